package screens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/realtime"
	"golang.org/x/sync/errgroup"
)

// OverviewState holds the four overview sections. Each loads and fails on
// its own.
type OverviewState struct {
	Date     time.Time
	Events   Section[models.Event]
	Chores   Section[models.Chore]
	Bills    Section[models.Bill]
	Shopping Section[models.ShoppingItem]
}

// Overview coordinates the home screen: today's events, chores and bills
// plus the open shopping list.
type Overview struct {
	*lifecycle
	state OverviewState
}

func NewOverview(deps Deps) *Overview {
	o := &Overview{lifecycle: newLifecycle("overview", deps)}
	o.state.Date = day(deps.now())
	return o
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *Overview) State() OverviewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Overview) Mount(ctx context.Context) {
	ctx, gen := s.mount(ctx, map[realtime.Topic]reload{
		realtime.TopicEvents:       s.loadEvents,
		realtime.TopicChores:       s.loadChores,
		realtime.TopicBills:        s.loadBills,
		realtime.TopicShoppingList: s.loadShopping,
		realtime.TopicConnected:    s.loadAll,
	})
	s.loadAll(ctx, gen, false)
}

func (s *Overview) Refresh(ctx context.Context) error {
	mctx, gen, err := s.current()
	if err != nil {
		return err
	}
	s.loadAll(mctx, gen, true)
	return nil
}

// SelectDate switches the date and reloads the dated sections.
func (s *Overview) SelectDate(ctx context.Context, date time.Time) error {
	mctx, gen, err := s.current()
	if err != nil {
		return err
	}
	s.apply(gen, func() { s.state.Date = day(date) })

	var g errgroup.Group
	for _, load := range []reload{s.loadEvents, s.loadChores, s.loadBills} {
		g.Go(func() error {
			load(mctx, gen, false)
			return nil
		})
	}
	return g.Wait()
}

// loadAll loads the sections concurrently; a failing section does not stop
// the others.
func (s *Overview) loadAll(ctx context.Context, gen uint64, refreshing bool) {
	var g errgroup.Group
	for _, load := range []reload{s.loadEvents, s.loadChores, s.loadBills, s.loadShopping} {
		g.Go(func() error {
			load(ctx, gen, refreshing)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Overview) date(gen uint64, start func()) (time.Time, bool) {
	var date time.Time
	ok := s.apply(gen, func() {
		date = s.state.Date
		start()
	})
	return date, ok
}

func (s *Overview) loadEvents(ctx context.Context, gen uint64, refreshing bool) {
	date, ok := s.date(gen, func() { s.state.Events.start(refreshing) })
	if !ok {
		return
	}
	items, err := s.deps.Data.OverviewEvents(ctx, date)
	s.finish(ctx, gen, date, "events", err, func() {
		if err != nil {
			s.state.Events.fail(errorText("events", err))
			return
		}
		s.state.Events.done(items, len(items))
	})
}

func (s *Overview) loadChores(ctx context.Context, gen uint64, refreshing bool) {
	date, ok := s.date(gen, func() { s.state.Chores.start(refreshing) })
	if !ok {
		return
	}
	items, err := s.deps.Data.OverviewChores(ctx, date)
	s.finish(ctx, gen, date, "chores", err, func() {
		if err != nil {
			s.state.Chores.fail(errorText("chores", err))
			return
		}
		s.state.Chores.done(items, len(items))
	})
}

func (s *Overview) loadBills(ctx context.Context, gen uint64, refreshing bool) {
	date, ok := s.date(gen, func() { s.state.Bills.start(refreshing) })
	if !ok {
		return
	}
	items, err := s.deps.Data.OverviewBills(ctx, date)
	s.finish(ctx, gen, date, "bills", err, func() {
		if err != nil {
			s.state.Bills.fail(errorText("bills", err))
			return
		}
		s.state.Bills.done(items, len(items))
	})
}

// loadShopping ignores the date: the overview always shows the open list.
func (s *Overview) loadShopping(ctx context.Context, gen uint64, refreshing bool) {
	if !s.apply(gen, func() { s.state.Shopping.start(refreshing) }) {
		return
	}
	items, err := s.deps.Data.OverviewShopping(ctx)
	s.apply(gen, func() {
		if err != nil {
			s.state.Shopping.fail(errorText("shopping items", err))
			return
		}
		s.state.Shopping.done(items, len(items))
	})
	if err != nil && ctx.Err() == nil {
		s.log.Warn(ctx, "load overview shopping", "error", err)
	}
}

// finish applies a dated result unless the date changed meanwhile.
func (s *Overview) finish(ctx context.Context, gen uint64, date time.Time, section string, err error, fn func()) {
	s.apply(gen, func() {
		if !s.state.Date.Equal(date) {
			return
		}
		fn()
	})
	if err != nil && ctx.Err() == nil {
		s.log.Warn(ctx, "load overview section", "section", section, "date", date.Format("2006-01-02"), "error", err)
	}
}
