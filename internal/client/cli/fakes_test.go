package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/client"
	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/realtime"
	"github.com/dmitrijs2005/forttask/internal/client/screens"
	"github.com/dmitrijs2005/forttask/internal/client/services"
	"github.com/dmitrijs2005/forttask/internal/logging"
)

type fakeAuth struct {
	mu sync.Mutex

	Result    client.AuthResult
	Last      string
	LoggedIn  bool
	Household string
	HouseErr  error
	PingErr   error
	LogoutErr error

	LastUser     string
	LastPassword string
	LoginCalls   int
	PingCalls    int
}

var _ services.AuthService = (*fakeAuth)(nil)

func (f *fakeAuth) Login(_ context.Context, u, p string) client.AuthResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoginCalls++
	f.LastUser, f.LastPassword = u, p
	if f.Result.Success {
		f.LoggedIn = true
	}
	return f.Result
}

func (f *fakeAuth) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LogoutErr != nil {
		return f.LogoutErr
	}
	f.LoggedIn = false
	return nil
}

func (f *fakeAuth) IsLoggedIn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LoggedIn
}

func (f *fakeAuth) CurrentUser(context.Context) (models.UserData, error) {
	return models.UserData{Username: f.Last}, nil
}

func (f *fakeAuth) HouseholdID(context.Context) (string, error) {
	return f.Household, f.HouseErr
}

func (f *fakeAuth) LastUsername(context.Context) string { return f.Last }

func (f *fakeAuth) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PingCalls++
	return f.PingErr
}

func (f *fakeAuth) SetPingErr(err error) {
	f.mu.Lock()
	f.PingErr = err
	f.mu.Unlock()
}

func (f *fakeAuth) Pings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PingCalls
}

var errNotSaved = errors.New("not saved")

type fakeVault struct {
	Saved   map[string]string
	ListErr error

	SaveCalls []string
}

var _ services.VaultService = (*fakeVault)(nil)

func (f *fakeVault) HasCredentials(context.Context) (bool, error) { return len(f.Saved) > 0, nil }

func (f *fakeVault) FindByUsername(_ context.Context, u string) (*models.Credential, error) {
	p, ok := f.Saved[u]
	if !ok {
		return nil, nil
	}
	return &models.Credential{Username: u, Password: p}, nil
}

func (f *fakeVault) SaveOrUpdate(_ context.Context, u, p string) (bool, error) {
	if f.Saved == nil {
		f.Saved = map[string]string{}
	}
	_, exists := f.Saved[u]
	f.Saved[u] = p
	f.SaveCalls = append(f.SaveCalls, u+":"+p)
	return !exists, nil
}

func (f *fakeVault) List(context.Context) ([]models.Credential, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := []models.Credential{}
	for _, u := range []string{"alice", "bob", "carol"} {
		if _, ok := f.Saved[u]; ok {
			out = append(out, models.Credential{ID: int64(len(out) + 1), Username: u})
		}
	}
	return out, nil
}

func (f *fakeVault) Forget(_ context.Context, u string) error {
	if _, ok := f.Saved[u]; !ok {
		return errNotSaved
	}
	delete(f.Saved, u)
	return nil
}

func (f *fakeVault) Watch(context.Context) (<-chan []models.Credential, error) {
	return nil, errors.New("not implemented")
}

// fakeChannel records lifecycle calls and lets tests fire topics.
type fakeChannel struct {
	mu          sync.Mutex
	initialized bool
	subs        map[realtime.Topic]map[int]func()
	next        int

	InitCalls       []string
	DisconnectCalls []string
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{subs: map[realtime.Topic]map[int]func(){}}
}

func (f *fakeChannel) IsInitialized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}

func (f *fakeChannel) Initialize(_ context.Context, hh string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InitCalls = append(f.InitCalls, hh)
	f.initialized = true
	return nil
}

func (f *fakeChannel) Disconnect(_ context.Context, hh string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DisconnectCalls = append(f.DisconnectCalls, hh)
	f.initialized = false
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

type fakeHouseholds struct{ ID string }

func (f fakeHouseholds) HouseholdID(context.Context) (string, error) { return f.ID, nil }

// fakeData serves canned data; Events and Chores may be swapped while a
// screen is watched.
type fakeData struct {
	mu sync.Mutex

	EventsList []models.Event
	ChoresResp map[bool]models.ChoresResponse
	BillsResp  map[bool][]models.Bill
	Shopping   []models.ShoppingItem
	EventsErr  error

	OvDates []string
}

var _ services.DataService = (*fakeData)(nil)

func (f *fakeData) SetEvents(ev []models.Event) {
	f.mu.Lock()
	f.EventsList = ev
	f.mu.Unlock()
}

func (f *fakeData) Events(context.Context) (models.EventsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.EventsResponse{Events: f.EventsList, Count: len(f.EventsList)}, f.EventsErr
}

func (f *fakeData) Chores(_ context.Context, done bool, _, _ int) (models.ChoresResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ChoresResp[done], nil
}

func (f *fakeData) Bills(_ context.Context, paid bool) ([]models.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BillsResp[paid], nil
}

func (f *fakeData) ShoppingList(context.Context, int) ([]models.ShoppingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Shopping, nil
}

func (f *fakeData) OverviewEvents(_ context.Context, date time.Time) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OvDates = append(f.OvDates, date.Format("2006-01-02"))
	return f.EventsList, nil
}

func (f *fakeData) OverviewChores(context.Context, time.Time) ([]models.Chore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ChoresResp[false].Chores, nil
}

func (f *fakeData) OverviewBills(context.Context, time.Time) ([]models.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BillsResp[false], nil
}

func (f *fakeData) OverviewShopping(context.Context) ([]models.ShoppingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Shopping, nil
}

// syncBuffer lets the watch goroutine and the test share the output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	app     *App
	auth    *fakeAuth
	vault   *fakeVault
	channel *fakeChannel
	data    *fakeData
	out     *syncBuffer
}

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestEnv(input string) *testEnv {
	return newTestEnvReader(bytes.NewBufferString(input))
}

func newTestEnvReader(in io.Reader) *testEnv {
	env := &testEnv{
		auth:    &fakeAuth{Household: "7"},
		vault:   &fakeVault{},
		channel: newFakeChannel(),
		data:    &fakeData{},
		out:     &syncBuffer{},
	}
	deps := screens.Deps{
		Channel:    env.channel,
		Households: fakeHouseholds{ID: "7"},
		Data:       env.data,
		Now:        func() time.Time { return testNow },
	}
	env.app = &App{
		auth:  env.auth,
		vault: env.vault,
		screens: Screens{
			Overview: screens.NewOverview(deps),
			Events:   screens.NewEvents(deps),
			Chores:   screens.NewChores(deps),
			Bills:    screens.NewBills(deps),
			Shopping: screens.NewShopping(deps),
		},
		log:    logging.Nop(),
		reader: bufio.NewReader(in),
		out:    env.out,
		now:    func() time.Time { return testNow },
	}
	return env
}
