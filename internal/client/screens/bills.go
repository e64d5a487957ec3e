package screens

import (
	"context"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/realtime"
)

type BillFilter string

const (
	BillsNotPaid BillFilter = "NOTPAID"
	BillsPaid    BillFilter = "PAID"
)

type BillsState struct {
	Section[models.Bill]
	Filter  BillFilter
	Summary models.BillSummary
}

// Bills coordinates the bills screen.
type Bills struct {
	*lifecycle
	state BillsState
}

func NewBills(deps Deps) *Bills {
	return &Bills{
		lifecycle: newLifecycle("bills", deps),
		state:     BillsState{Filter: BillsNotPaid},
	}
}

func (s *Bills) State() BillsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Bills) Mount(ctx context.Context) {
	ctx, gen := s.mount(ctx, map[realtime.Topic]reload{
		realtime.TopicBills:     s.load,
		realtime.TopicConnected: s.load,
	})
	s.load(ctx, gen, false)
}

func (s *Bills) Refresh(ctx context.Context) error {
	mctx, gen, err := s.current()
	if err != nil {
		return err
	}
	s.load(mctx, gen, true)
	return nil
}

func (s *Bills) SwitchFilter(ctx context.Context, f BillFilter) error {
	mctx, gen, err := s.current()
	if err != nil {
		return err
	}
	changed := false
	s.apply(gen, func() {
		if s.state.Filter != f {
			s.state.Filter = f
			changed = true
		}
	})
	if changed {
		s.load(mctx, gen, false)
	}
	return nil
}

func (s *Bills) load(ctx context.Context, gen uint64, refreshing bool) {
	var filter BillFilter
	s.apply(gen, func() {
		filter = s.state.Filter
		s.state.start(refreshing)
	})
	if filter == "" {
		return
	}

	bills, err := s.deps.Data.Bills(ctx, filter == BillsPaid)
	now := s.deps.now()
	s.apply(gen, func() {
		if s.state.Filter != filter {
			return
		}
		if err != nil {
			s.state.fail(errorText("bills", err))
			return
		}
		s.state.done(bills, len(bills))
		s.state.Summary = models.SummarizeBills(bills, now)
	})
	if err != nil && ctx.Err() == nil {
		s.log.Warn(ctx, "load bills", "filter", filter, "error", err)
	}
}
