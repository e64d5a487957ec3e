package screens

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/realtime"
	"github.com/dmitrijs2005/forttask/internal/client/services"
	"github.com/dmitrijs2005/forttask/internal/logging"
)

var ErrNotMounted = errors.New("screen is not mounted")

// Channel is the part of the live update channel coordinators use.
type Channel interface {
	IsInitialized() bool
	Initialize(ctx context.Context, householdID string) error
	Disconnect(ctx context.Context, householdID string)
	Subscribe(topic realtime.Topic, fn func()) (unsubscribe func())
	Subscribers() int
}

// Households resolves the household of the signed-in user.
type Households interface {
	HouseholdID(ctx context.Context) (string, error)
}

// Deps are shared by all coordinators.
type Deps struct {
	Channel    Channel
	Households Households
	Data       services.DataService
	Log        logging.Logger
	Now        func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// reload fetches data for one generation. refreshing distinguishes a live
// update from the initial load.
type reload func(ctx context.Context, gen uint64, refreshing bool)

// lifecycle implements mount/unmount bookkeeping shared by all screens.
// mu also guards the embedding screen's state.
type lifecycle struct {
	name string
	deps Deps
	log  logging.Logger

	mu        sync.Mutex
	gen       uint64
	ctx       context.Context
	cancel    context.CancelFunc
	household string
	unsubs    []func()

	changes chan struct{}
}

func newLifecycle(name string, deps Deps) *lifecycle {
	log := deps.Log
	if log == nil {
		log = logging.Nop()
	}
	return &lifecycle{
		name:    name,
		deps:    deps,
		log:     log.With("screen", name),
		changes: make(chan struct{}, 1),
	}
}

// Changes signals that the state changed. Signals coalesce.
func (l *lifecycle) Changes() <-chan struct{} { return l.changes }

// Mounted reports whether the screen is mounted.
func (l *lifecycle) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx != nil
}

// Household is the household resolved by the live mount, or "".
func (l *lifecycle) Household() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.household
}

// mount starts a new generation and wires the topic handlers. A topic
// signal runs its handler on a new goroutine with refreshing=true.
func (l *lifecycle) mount(parent context.Context, handlers map[realtime.Topic]reload) (context.Context, uint64) {
	l.Unmount(parent)

	ctx, cancel := context.WithCancel(parent)

	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.ctx, l.cancel = ctx, cancel
	l.mu.Unlock()

	household, err := l.deps.Households.HouseholdID(ctx)
	if err != nil {
		l.log.Warn(ctx, "live updates disabled: household unknown", "error", err)
		return ctx, gen
	}

	if !l.deps.Channel.IsInitialized() {
		if err := l.deps.Channel.Initialize(ctx, household); err != nil {
			l.log.Error(ctx, "live update channel not connected", "household", household, "error", err)
		}
	}

	unsubs := make([]func(), 0, len(handlers))
	for topic, h := range handlers {
		unsubs = append(unsubs, l.deps.Channel.Subscribe(topic, l.trigger(ctx, gen, topic, h)))
	}

	l.mu.Lock()
	if l.gen == gen {
		l.household = household
		l.unsubs = unsubs
		unsubs = nil
	}
	l.mu.Unlock()

	// unmounted while subscribing
	for _, u := range unsubs {
		u()
	}
	return ctx, gen
}

func (l *lifecycle) trigger(ctx context.Context, gen uint64, topic realtime.Topic, h reload) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		l.log.Debug(ctx, "live update", "topic", topic)
		go h(ctx, gen, true)
	}
}

// Unmount cancels in-flight work and drops the subscriptions. The channel
// is disconnected when no subscriber is left. Unmount is idempotent.
func (l *lifecycle) Unmount(ctx context.Context) {
	l.mu.Lock()
	if l.ctx == nil {
		l.mu.Unlock()
		return
	}
	l.gen++
	l.cancel()
	l.ctx, l.cancel = nil, nil
	unsubs := l.unsubs
	l.unsubs = nil
	household := l.household
	l.household = ""
	l.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	if household != "" && l.deps.Channel.Subscribers() == 0 {
		l.deps.Channel.Disconnect(ctx, household)
	}
}

// current returns the live mount context and generation.
func (l *lifecycle) current() (context.Context, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx == nil {
		return nil, 0, ErrNotMounted
	}
	return l.ctx, l.gen, nil
}

// apply runs fn under the state lock if gen is still current, then signals
// a change. It reports whether fn ran.
func (l *lifecycle) apply(gen uint64, fn func()) bool {
	l.mu.Lock()
	if gen != l.gen || l.ctx == nil {
		l.mu.Unlock()
		return false
	}
	fn()
	l.mu.Unlock()

	select {
	case l.changes <- struct{}{}:
	default:
	}
	return true
}
