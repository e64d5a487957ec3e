package credentials

import "sync"

// changes fans a "something was written" signal out to watchers. Signals
// coalesce: a watcher that is busy re-reading sees at most one pending one.
type changes struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newChanges() *changes {
	return &changes{subs: make(map[chan struct{}]struct{})}
}

func (c *changes) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		delete(c.subs, ch)
		c.mu.Unlock()
	}
}

func (c *changes) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
