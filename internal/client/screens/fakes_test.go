package screens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/realtime"
	"github.com/dmitrijs2005/forttask/internal/client/services"
)

type fakeChannel struct {
	mu sync.Mutex

	initialized bool
	InitErr     error

	InitCalls       []string
	DisconnectCalls []string

	subs map[realtime.Topic]map[int]func()
	next int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{subs: map[realtime.Topic]map[int]func(){}}
}

func (f *fakeChannel) IsInitialized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}

func (f *fakeChannel) Initialize(_ context.Context, householdID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InitCalls = append(f.InitCalls, householdID)
	if f.InitErr != nil {
		return f.InitErr
	}
	f.initialized = true
	return nil
}

func (f *fakeChannel) Disconnect(_ context.Context, householdID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DisconnectCalls = append(f.DisconnectCalls, householdID)
	f.initialized = false
	f.subs = map[realtime.Topic]map[int]func(){}
}

func (f *fakeChannel) Subscribe(topic realtime.Topic, fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := f.next
	if f.subs[topic] == nil {
		f.subs[topic] = map[int]func(){}
	}
	f.subs[topic][id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[topic], id)
	}
}

func (f *fakeChannel) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.subs {
		n += len(m)
	}
	return n
}

func (f *fakeChannel) Topics() map[realtime.Topic]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[realtime.Topic]int{}
	for t, m := range f.subs {
		if len(m) > 0 {
			out[t] = len(m)
		}
	}
	return out
}

// Fire invokes the listeners of topic like the channel's read loop would.
func (f *fakeChannel) Fire(topic realtime.Topic) {
	f.mu.Lock()
	fns := make([]func(), 0, len(f.subs[topic]))
	for _, fn := range f.subs[topic] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (f *fakeChannel) Disconnects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.DisconnectCalls...)
}

type fakeHouseholds struct {
	ID  string
	Err error
}

func (f fakeHouseholds) HouseholdID(context.Context) (string, error) { return f.ID, f.Err }

// seqHouseholds answers each lookup with the next entry of Results.
type seqHouseholds struct {
	mu      sync.Mutex
	Results []fakeHouseholds
}

func (f *seqHouseholds) HouseholdID(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.Results[0]
	if len(f.Results) > 1 {
		f.Results = f.Results[1:]
	}
	return r.HouseholdID(ctx)
}

// fakeData returns canned results and counts calls per endpoint. When Gate
// is set, Events blocks until it is closed or ctx ends.
type fakeData struct {
	mu sync.Mutex

	EventsResp models.EventsResponse
	EventsErr  error
	Gate       chan struct{}
	Started    chan struct{}

	ChoresResp map[bool]models.ChoresResponse
	ChoresArgs []bool

	BillsResp map[bool][]models.Bill
	BillsErr  error

	Shopping    []models.ShoppingItem
	ShoppingErr error

	OvEvents    []models.Event
	OvChores    []models.Chore
	OvChoresErr error
	OvBills     []models.Bill
	OvShopping  []models.ShoppingItem
	OvDates     []string

	calls map[string]int
}

var _ services.DataService = (*fakeData)(nil)

func (f *fakeData) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeData) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeData) Events(ctx context.Context) (models.EventsResponse, error) {
	f.count("events")
	f.mu.Lock()
	started, gate := f.Started, f.Gate
	f.Started = nil
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.EventsResponse{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.EventsResp, f.EventsErr
}

func (f *fakeData) Chores(_ context.Context, done bool, limit, skip int) (models.ChoresResponse, error) {
	f.count("chores")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ChoresArgs = append(f.ChoresArgs, done)
	return f.ChoresResp[done], nil
}

func (f *fakeData) Bills(_ context.Context, paid bool) ([]models.Bill, error) {
	f.count("bills")
	return f.BillsResp[paid], f.BillsErr
}

func (f *fakeData) ShoppingList(context.Context, int) ([]models.ShoppingItem, error) {
	f.count("shopping")
	return f.Shopping, f.ShoppingErr
}

func (f *fakeData) dated(name string, date time.Time) {
	f.count(name)
	f.mu.Lock()
	f.OvDates = append(f.OvDates, name+"@"+date.Format("2006-01-02"))
	f.mu.Unlock()
}

func (f *fakeData) OverviewEvents(_ context.Context, date time.Time) ([]models.Event, error) {
	f.dated("ov-events", date)
	return f.OvEvents, nil
}

func (f *fakeData) OverviewChores(_ context.Context, date time.Time) ([]models.Chore, error) {
	f.dated("ov-chores", date)
	return f.OvChores, f.OvChoresErr
}

func (f *fakeData) OverviewBills(_ context.Context, date time.Time) ([]models.Bill, error) {
	f.dated("ov-bills", date)
	return f.OvBills, nil
}

func (f *fakeData) OverviewShopping(context.Context) ([]models.ShoppingItem, error) {
	f.count("ov-shopping")
	return f.OvShopping, nil
}
