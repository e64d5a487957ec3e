package screens

import (
	"context"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/realtime"
)

// Events coordinates the events screen.
type Events struct {
	*lifecycle
	state Section[models.Event]
}

func NewEvents(deps Deps) *Events {
	return &Events{lifecycle: newLifecycle("events", deps)}
}

func (s *Events) State() Section[models.Event] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mount subscribes to event updates and loads the list.
func (s *Events) Mount(ctx context.Context) {
	ctx, gen := s.mount(ctx, map[realtime.Topic]reload{
		realtime.TopicEvents:    s.load,
		realtime.TopicConnected: s.load,
	})
	s.load(ctx, gen, false)
}

func (s *Events) Refresh(ctx context.Context) error {
	mctx, gen, err := s.current()
	if err != nil {
		return err
	}
	s.load(mctx, gen, true)
	return nil
}

func (s *Events) load(ctx context.Context, gen uint64, refreshing bool) {
	if !s.apply(gen, func() { s.state.start(refreshing) }) {
		return
	}

	resp, err := s.deps.Data.Events(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn(ctx, "load events", "error", err)
		}
		s.apply(gen, func() { s.state.fail(errorText("events", err)) })
		return
	}
	s.apply(gen, func() { s.state.done(resp.Events, resp.Count) })
}
