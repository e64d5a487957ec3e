package screens

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/client"
	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newDeps(ch *fakeChannel, data *fakeData) Deps {
	return Deps{
		Channel:    ch,
		Households: fakeHouseholds{ID: "house-1"},
		Data:       data,
		Now:        func() time.Time { return fixedNow },
	}
}

func TestEvents_MountLoadsAndSubscribes(t *testing.T) {
	ch := newFakeChannel()
	data := &fakeData{EventsResp: models.EventsResponse{Events: []models.Event{{ID: 1, Name: "BBQ"}}, Count: 1}}
	s := NewEvents(newDeps(ch, data))
	ctx := context.Background()

	s.Mount(ctx)

	st := s.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "BBQ", st.Items[0].Name)
	assert.Equal(t, []string{"house-1"}, ch.InitCalls)
	assert.Equal(t, map[realtime.Topic]int{realtime.TopicEvents: 1, realtime.TopicConnected: 1}, ch.Topics())
	assert.Equal(t, "house-1", s.Household())

	select {
	case <-s.Changes():
	default:
		t.Fatal("no change signalled")
	}
}

func TestEvents_TopicTriggersRefetch(t *testing.T) {
	ch := newFakeChannel()
	data := &fakeData{}
	s := NewEvents(newDeps(ch, data))
	s.Mount(context.Background())
	require.Equal(t, 1, data.Calls("events"))

	ch.Fire(realtime.TopicChores)
	ch.Fire(realtime.TopicEvents)
	require.Eventually(t, func() bool { return data.Calls("events") == 2 }, waitFor, tick)

	ch.Fire(realtime.TopicConnected)
	require.Eventually(t, func() bool { return data.Calls("events") == 3 }, waitFor, tick)
	require.Eventually(t, func() bool { return !s.State().Refreshing }, waitFor, tick)
}

func TestMount_SkipsInitializeWhenConnected(t *testing.T) {
	ch := newFakeChannel()
	ch.initialized = true
	s := NewEvents(newDeps(ch, &fakeData{}))
	s.Mount(context.Background())
	assert.Empty(t, ch.InitCalls)
}

func TestMount_WithoutHouseholdStillLoads(t *testing.T) {
	ch := newFakeChannel()
	data := &fakeData{}
	deps := newDeps(ch, data)
	deps.Households = fakeHouseholds{Err: errors.New("user has no household")}
	s := NewEvents(deps)

	s.Mount(context.Background())
	assert.Equal(t, 1, data.Calls("events"))
	assert.Empty(t, ch.InitCalls)
	assert.Zero(t, ch.Subscribers())

	s.Unmount(context.Background())
	assert.Empty(t, ch.Disconnects())
}

func TestUnmount_LastScreenDisconnects(t *testing.T) {
	ch := newFakeChannel()
	data := &fakeData{}
	events := NewEvents(newDeps(ch, data))
	chores := NewChores(newDeps(ch, data))
	ctx := context.Background()

	events.Mount(ctx)
	chores.Mount(ctx)
	assert.Equal(t, []string{"house-1"}, ch.InitCalls, "second screen reuses the channel")
	assert.Equal(t, 4, ch.Subscribers())

	events.Unmount(ctx)
	assert.Equal(t, 2, ch.Subscribers())
	assert.Empty(t, ch.Disconnects())

	chores.Unmount(ctx)
	chores.Unmount(ctx)
	assert.Zero(t, ch.Subscribers())
	assert.Equal(t, []string{"house-1"}, ch.Disconnects())
	assert.False(t, chores.Mounted())
}

func TestUnmount_ForgetsHousehold(t *testing.T) {
	ch := newFakeChannel()
	deps := newDeps(ch, &fakeData{})
	deps.Households = &seqHouseholds{Results: []fakeHouseholds{
		{ID: "house-1"},
		{Err: errors.New("user left the household")},
	}}
	s := NewEvents(deps)
	ctx := context.Background()

	s.Mount(ctx)
	require.Equal(t, "house-1", s.Household())

	s.Unmount(ctx)
	assert.Empty(t, s.Household())
	assert.Equal(t, []string{"house-1"}, ch.Disconnects())

	s.Mount(ctx)
	assert.Empty(t, s.Household())

	s.Unmount(ctx)
	assert.Equal(t, []string{"house-1"}, ch.Disconnects(), "no disconnect with a stale household")
}

func TestUnmount_DiscardsLateResponse(t *testing.T) {
	ch := newFakeChannel()
	data := &fakeData{
		EventsResp: models.EventsResponse{Events: []models.Event{{ID: 9}}, Count: 1},
		Gate:       make(chan struct{}),
		Started:    make(chan struct{}),
	}
	started := data.Started
	s := NewEvents(newDeps(ch, data))

	mounted := make(chan struct{})
	go func() {
		defer close(mounted)
		s.Mount(context.Background())
	}()
	<-started

	s.Unmount(context.Background())
	close(data.Gate)
	<-mounted

	assert.Empty(t, s.State().Items)
	assert.Empty(t, s.State().Error)
	assert.False(t, s.Mounted())
}

func TestRefresh_RequiresMount(t *testing.T) {
	s := NewEvents(newDeps(newFakeChannel(), &fakeData{}))
	assert.ErrorIs(t, s.Refresh(context.Background()), ErrNotMounted)
}

func TestEvents_ErrorTexts(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "fetch", err: &client.StatusError{Kind: client.ErrDataUnavailable, Code: 500}, want: "Failed to fetch events"},
		{name: "network", err: fmt.Errorf("%w: refused", client.ErrNetwork), want: "Failed to fetch events"},
		{name: "parse", err: fmt.Errorf("get events/get: %w: unexpected EOF", client.ErrParse), want: "Failed to parse events data: get events/get: malformed response: unexpected EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewEvents(newDeps(newFakeChannel(), &fakeData{EventsErr: tt.err}))
			s.Mount(context.Background())
			st := s.State()
			assert.Equal(t, tt.want, st.Error)
			assert.False(t, st.Loading)
		})
	}
}

func TestChores_SwitchFilter(t *testing.T) {
	ch := newFakeChannel()
	data := &fakeData{ChoresResp: map[bool]models.ChoresResponse{
		false: {Chores: []models.Chore{{ID: 1}}, Count: 1},
		true:  {Chores: []models.Chore{{ID: 2}, {ID: 3}}, Count: 2},
	}}
	s := NewChores(newDeps(ch, data))
	ctx := context.Background()

	s.Mount(ctx)
	assert.Equal(t, ChoresTodo, s.State().Filter)
	assert.Equal(t, 1, s.State().Count)

	require.NoError(t, s.SwitchFilter(ctx, ChoresTodo))
	assert.Equal(t, 1, data.Calls("chores"), "same filter does not reload")

	require.NoError(t, s.SwitchFilter(ctx, ChoresDone))
	st := s.State()
	assert.Equal(t, ChoresDone, st.Filter)
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, []bool{false, true}, data.ChoresArgs)

	ch.Fire(realtime.TopicChores)
	require.Eventually(t, func() bool { return data.Calls("chores") == 3 }, waitFor, tick)
}

func TestBills_FilterAndSummary(t *testing.T) {
	data := &fakeData{BillsResp: map[bool][]models.Bill{
		false: {
			{ID: 1, Amount: 50, DueDate: "2025-03-01T00:00:00.000Z"},
			{ID: 2, Amount: 25, DueDate: "2025-03-12T00:00:00.000Z"},
		},
		true: {{ID: 3, Amount: 10, DueDate: "2025-01-01T00:00:00.000Z"}},
	}}
	s := NewBills(newDeps(newFakeChannel(), data))
	ctx := context.Background()

	s.Mount(ctx)
	st := s.State()
	assert.Equal(t, BillsNotPaid, st.Filter)
	assert.Len(t, st.Items, 2)
	assert.Len(t, st.Summary.Overdue, 1)
	assert.Len(t, st.Summary.DueSoon, 1)
	assert.InDelta(t, 75.0, st.Summary.Total, 1e-9)

	require.NoError(t, s.SwitchFilter(ctx, BillsPaid))
	assert.Equal(t, 3, s.State().Items[0].ID)

	data.mu.Lock()
	data.BillsErr = errors.New("boom")
	data.mu.Unlock()
	require.NoError(t, s.Refresh(ctx))
	st = s.State()
	assert.Equal(t, "Failed to fetch bills", st.Error)
	assert.Len(t, st.Items, 1, "previous items stay visible")
}

func TestShopping_LocalFilter(t *testing.T) {
	data := &fakeData{Shopping: []models.ShoppingItem{
		{ID: 1, Name: "Milk"},
		{ID: 2, Name: "Bread", BoughtBy: &models.CreatedBy{Username: "bob"}},
		{ID: 3, Name: "Eggs"},
	}}
	s := NewShopping(newDeps(newFakeChannel(), data))
	s.Mount(context.Background())

	ids := func() []int {
		out := []int{}
		for _, it := range s.State().Visible() {
			out = append(out, it.ID)
		}
		return out
	}
	assert.Equal(t, []int{1, 2, 3}, ids())
	s.SetFilter(ShoppingBought)
	assert.Equal(t, []int{2}, ids())
	s.SetFilter(ShoppingPending)
	assert.Equal(t, []int{1, 3}, ids())
	assert.Equal(t, 1, data.Calls("shopping"))
}

func TestOverview_SectionsIndependent(t *testing.T) {
	ch := newFakeChannel()
	data := &fakeData{
		OvEvents:    []models.Event{{ID: 1}},
		OvChoresErr: fmt.Errorf("%w: bad", client.ErrParse),
		OvBills:     []models.Bill{{ID: 2}},
		OvShopping:  []models.ShoppingItem{{ID: 3}, {ID: 4}},
	}
	s := NewOverview(newDeps(ch, data))
	ctx := context.Background()

	s.Mount(ctx)
	st := s.State()
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), st.Date)
	assert.Len(t, st.Events.Items, 1)
	assert.Contains(t, st.Chores.Error, "Failed to parse chores data")
	assert.Len(t, st.Bills.Items, 1)
	assert.Equal(t, 2, st.Shopping.Count)
	assert.Len(t, ch.Topics(), 5)

	ch.Fire(realtime.TopicBills)
	require.Eventually(t, func() bool { return data.Calls("ov-bills") == 2 }, waitFor, tick)
	assert.Equal(t, 1, data.Calls("ov-events"))
	assert.Equal(t, 1, data.Calls("ov-shopping"))
}

func TestOverview_SelectDate(t *testing.T) {
	data := &fakeData{}
	s := NewOverview(newDeps(newFakeChannel(), data))
	ctx := context.Background()
	s.Mount(ctx)

	require.NoError(t, s.SelectDate(ctx, time.Date(2025, 4, 1, 18, 30, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), s.State().Date)
	assert.Equal(t, 2, data.Calls("ov-events"))
	assert.Equal(t, 2, data.Calls("ov-chores"))
	assert.Equal(t, 2, data.Calls("ov-bills"))
	assert.Equal(t, 1, data.Calls("ov-shopping"))
	assert.Contains(t, data.OvDates, "ov-events@2025-04-01")

	s.Unmount(ctx)
	assert.ErrorIs(t, s.SelectDate(ctx, fixedNow), ErrNotMounted)
}
