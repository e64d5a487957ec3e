package screens

import (
	"context"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/realtime"
)

type ShoppingFilter string

const (
	ShoppingAll     ShoppingFilter = "ALL"
	ShoppingBought  ShoppingFilter = "BOUGHT"
	ShoppingPending ShoppingFilter = "PENDING"
)

type ShoppingState struct {
	Section[models.ShoppingItem]
	Filter ShoppingFilter
}

// Visible applies the filter to the loaded items.
func (s ShoppingState) Visible() []models.ShoppingItem {
	if s.Filter == ShoppingAll || s.Filter == "" {
		return s.Items
	}
	out := make([]models.ShoppingItem, 0, len(s.Items))
	for _, it := range s.Items {
		if it.IsBought() == (s.Filter == ShoppingBought) {
			out = append(out, it)
		}
	}
	return out
}

// Shopping coordinates the shopping list screen. Filtering is local.
type Shopping struct {
	*lifecycle
	state ShoppingState
}

func NewShopping(deps Deps) *Shopping {
	return &Shopping{
		lifecycle: newLifecycle("shopping", deps),
		state:     ShoppingState{Filter: ShoppingAll},
	}
}

func (s *Shopping) State() ShoppingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Shopping) SetFilter(f ShoppingFilter) {
	s.mu.Lock()
	s.state.Filter = f
	s.mu.Unlock()
}

func (s *Shopping) Mount(ctx context.Context) {
	ctx, gen := s.mount(ctx, map[realtime.Topic]reload{
		realtime.TopicShoppingList: s.load,
		realtime.TopicConnected:    s.load,
	})
	s.load(ctx, gen, false)
}

func (s *Shopping) Refresh(ctx context.Context) error {
	mctx, gen, err := s.current()
	if err != nil {
		return err
	}
	s.load(mctx, gen, true)
	return nil
}

func (s *Shopping) load(ctx context.Context, gen uint64, refreshing bool) {
	if !s.apply(gen, func() { s.state.start(refreshing) }) {
		return
	}

	items, err := s.deps.Data.ShoppingList(ctx, 0)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn(ctx, "load shopping list", "error", err)
		}
		s.apply(gen, func() { s.state.fail(errorText("shopping items", err)) })
		return
	}
	s.apply(gen, func() { s.state.done(items, len(items)) })
}
