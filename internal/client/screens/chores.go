package screens

import (
	"context"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/realtime"
)

type ChoreFilter string

const (
	ChoresTodo ChoreFilter = "TODO"
	ChoresDone ChoreFilter = "DONE"
)

const (
	choresLimit = 10
	choresSkip  = 0
)

type ChoresState struct {
	Section[models.Chore]
	Filter ChoreFilter
}

// Chores coordinates the chores screen.
type Chores struct {
	*lifecycle
	state ChoresState
}

func NewChores(deps Deps) *Chores {
	return &Chores{
		lifecycle: newLifecycle("chores", deps),
		state:     ChoresState{Filter: ChoresTodo},
	}
}

func (s *Chores) State() ChoresState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Chores) Mount(ctx context.Context) {
	ctx, gen := s.mount(ctx, map[realtime.Topic]reload{
		realtime.TopicChores:    s.load,
		realtime.TopicConnected: s.load,
	})
	s.load(ctx, gen, false)
}

func (s *Chores) Refresh(ctx context.Context) error {
	mctx, gen, err := s.current()
	if err != nil {
		return err
	}
	s.load(mctx, gen, true)
	return nil
}

// SwitchFilter reloads only when f differs from the current filter.
func (s *Chores) SwitchFilter(ctx context.Context, f ChoreFilter) error {
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

func (s *Chores) load(ctx context.Context, gen uint64, refreshing bool) {
	var filter ChoreFilter
	s.apply(gen, func() {
		filter = s.state.Filter
		s.state.start(refreshing)
	})
	if filter == "" {
		return
	}

	resp, err := s.deps.Data.Chores(ctx, filter == ChoresDone, choresLimit, choresSkip)
	s.apply(gen, func() {
		if s.state.Filter != filter {
			return
		}
		if err != nil {
			s.state.fail(errorText("chores", err))
			return
		}
		s.state.done(resp.Chores, resp.Count)
	})
	if err != nil && ctx.Err() == nil {
		s.log.Warn(ctx, "load chores", "filter", filter, "error", err)
	}
}
