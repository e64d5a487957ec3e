package realtime

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/forttask/internal/errors"
	"github.com/dmitrijs2005/forttask/internal/logging"
	"github.com/dmitrijs2005/forttask/internal/socketio"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const openTimeout = 20 * time.Second

var (
	ErrNoHousehold      = errors.New("realtime: household id is required")
	ErrNotInitialized   = errors.New("realtime: channel not initialized")
	ErrConnectionClosed = errors.New("realtime: connection closed")
	ErrConnectRejected  = errors.New("realtime: connect rejected")
	errServerClosed     = errors.New("realtime: closed by server")
)

// Option configures a Channel.
type Option func(*Channel)

// WithDialer replaces the gorilla/websocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Channel) { c.log = l }
}

type subscription struct {
	id string
	fn func()
}

// Channel is the process-wide live update connection for one household.
//
// Initialize and Disconnect are serialized; the last caller wins. Listeners
// run on the connection's read goroutine and must not call Initialize or
// Disconnect synchronously: both wait for in-flight listeners to return.
type Channel struct {
	socketURL string
	dialer    Dialer
	log       logging.Logger

	opMu sync.Mutex

	mu        sync.Mutex
	conn      *connection
	household string
	subs      map[Topic][]subscription

	dispatchMu sync.RWMutex
}

// NewChannel builds a channel for the backend at baseURL
// (http[s]://host:port or ws[s]://host:port).
func NewChannel(baseURL string, opts ...Option) (*Channel, error) {
	socketURL, err := SocketURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Channel{
		socketURL: socketURL,
		dialer:    WebsocketDialer{},
		log:       logging.Nop(),
		subs:      make(map[Topic][]subscription),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "realtime")
	return c, nil
}

// SocketURL maps a backend url to its Socket.IO websocket endpoint.
func SocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse %q", baseURL)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.Errorf("realtime: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.Errorf("realtime: %q has no host", baseURL)
	}
	u.Path = socketio.Path
	q := url.Values{}
	q.Set("EIO", socketio.ProtocolVersion)
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Initialize connects to the backend for householdID. An existing
// connection is torn down first with a leave announcement for its household;
// subscriptions survive only when the household is unchanged. Once the
// namespace connect is acknowledged a join announcement is sent.
func (c *Channel) Initialize(ctx context.Context, householdID string) error {
	if householdID == "" {
		return ErrNoHousehold
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	prev := c.household
	c.mu.Unlock()
	c.teardown(ctx, prev, prev != householdID)

	conn, err := c.dialer.Dial(ctx, c.socketURL, nil)
	if err != nil {
		c.log.Error(ctx, "realtime connect failed", "household", householdID, "error", err)
		return errors.Wrap(err, "dial realtime channel")
	}

	cn := newConnection(conn, householdID)

	c.mu.Lock()
	c.conn = cn
	c.household = householdID
	c.mu.Unlock()

	go c.readLoop(cn)
	return nil
}

// Disconnect sends a leave announcement for householdID when connected,
// closes the connection and drops every subscription. It is a no-op when
// nothing is open.
func (c *Channel) Disconnect(ctx context.Context, householdID string) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.teardown(ctx, householdID, true)
}

// Close disconnects from the current household.
func (c *Channel) Close(ctx context.Context) error {
	c.Disconnect(ctx, c.Household())
	return nil
}

func (c *Channel) teardown(ctx context.Context, householdID string, dropSubs bool) {
	c.mu.Lock()
	cn := c.conn
	c.conn = nil
	c.household = ""
	if dropSubs {
		c.subs = make(map[Topic][]subscription)
	}
	c.mu.Unlock()

	if cn != nil {
		if cn.connected.Load() && householdID != "" {
			if err := cn.emit(eventLeaveHousehold, householdID); err != nil {
				c.log.Warn(ctx, "leave announcement failed", "household", householdID, "error", err)
			}
			_ = cn.write(socketio.Packet{Type: socketio.PacketDisconnect}.Message())
		}
		cn.close()
		c.log.Info(ctx, "realtime channel disconnected", "household", householdID)
	}

	// wait for listeners already running against the old connection
	c.dispatchMu.Lock()
	c.dispatchMu.Unlock() //nolint:staticcheck // barrier
}

// IsInitialized reports whether a connection exists and is connected.
func (c *Channel) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.conn.connected.Load()
}

// State reports the lifecycle of the current connection.
func (c *Channel) State() State {
	c.mu.Lock()
	cn := c.conn
	c.mu.Unlock()

	switch {
	case cn == nil:
		return StateDisconnected
	case cn.connected.Load():
		return StateConnected
	case cn.finished():
		return StateDisconnected
	default:
		return StateConnecting
	}
}

// Household returns the household of the current connection, or "".
func (c *Channel) Household() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.household
}

// WaitConnected blocks until the current connection is acknowledged, fails,
// or ctx ends.
func (c *Channel) WaitConnected(ctx context.Context) error {
	c.mu.Lock()
	cn := c.conn
	c.mu.Unlock()
	if cn == nil {
		return ErrNotInitialized
	}

	select {
	case <-cn.ready:
		return nil
	default:
	}

	select {
	case <-cn.ready:
		return nil
	case <-cn.done:
		if err := cn.failure(); err != nil {
			return err
		}
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers fn for topic and returns its unsubscribe func.
// Several listeners per topic are allowed; Disconnect drops them all.
func (c *Channel) Subscribe(topic Topic, fn func()) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	id := uuid.NewString()

	c.mu.Lock()
	c.subs[topic] = append(c.subs[topic], subscription{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(topic, id) })
	}
}

func (c *Channel) unsubscribe(topic Topic, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.subs[topic]
	for i, s := range list {
		if s.id == id {
			c.subs[topic] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(c.subs[topic]) == 0 {
		delete(c.subs, topic)
	}
}

// Subscribers counts registered listeners over all topics.
func (c *Channel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, list := range c.subs {
		n += len(list)
	}
	return n
}

func (c *Channel) isCurrent(cn *connection) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == cn
}

func (c *Channel) dispatch(ctx context.Context, cn *connection, topic Topic) {
	c.dispatchMu.RLock()
	defer c.dispatchMu.RUnlock()

	c.mu.Lock()
	if c.conn != cn {
		c.mu.Unlock()
		return
	}
	listeners := append([]subscription(nil), c.subs[topic]...)
	c.mu.Unlock()

	for _, s := range listeners {
		c.invoke(ctx, topic, s)
	}
}

func (c *Channel) invoke(ctx context.Context, topic Topic, s subscription) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error(ctx, "realtime listener panicked", "topic", topic, "subscription", s.id, "panic", r)
		}
	}()
	s.fn()
}

func (c *Channel) readLoop(cn *connection) {
	ctx := context.Background()
	defer cn.finish()

	_ = cn.conn.SetReadDeadline(time.Now().Add(openTimeout))

	for {
		_, msg, err := cn.conn.ReadMessage()
		if err != nil {
			c.lost(ctx, cn, err)
			return
		}
		if err := c.handleFrame(ctx, cn, msg); err != nil {
			if errors.Is(err, errServerClosed) || errors.Is(err, ErrConnectRejected) {
				c.lost(ctx, cn, err)
				return
			}
			c.log.Warn(ctx, "realtime frame ignored", "error", err)
		}
		cn.extendDeadline()
	}
}

func (c *Channel) lost(ctx context.Context, cn *connection, err error) {
	cn.connected.Store(false)
	if cn.closing.Load() {
		return
	}
	cn.setFailure(err)
	c.log.Error(ctx, "realtime connection lost", "household", cn.household, "error", err)
}

func (c *Channel) handleFrame(ctx context.Context, cn *connection, msg []byte) error {
	f, err := socketio.ParseFrame(msg)
	if err != nil {
		return err
	}

	switch f.Type {
	case socketio.EngineOpen:
		var h socketio.Handshake
		if err := json.Unmarshal(f.Payload, &h); err != nil {
			return errors.Wrap(err, "decode handshake")
		}
		cn.setPingWindow(time.Duration(h.PingInterval+h.PingTimeout) * time.Millisecond)
		connect, _ := socketio.ConnectPacket(nil)
		return cn.write(connect.Message())

	case socketio.EnginePing:
		return cn.write(socketio.Frame{Type: socketio.EnginePong}.Encode())

	case socketio.EngineClose:
		return errServerClosed

	case socketio.EngineMessage:
		return c.handlePacket(ctx, cn, f.Payload)
	}
	return nil
}

func (c *Channel) handlePacket(ctx context.Context, cn *connection, payload []byte) error {
	p, err := socketio.ParsePacket(payload)
	if err != nil {
		return err
	}
	if p.Namespace != socketio.DefaultNamespace {
		return nil
	}

	switch p.Type {
	case socketio.PacketConnect:
		return c.connected(ctx, cn)

	case socketio.PacketDisconnect:
		return errServerClosed

	case socketio.PacketConnectError:
		return errors.Wrap(ErrConnectRejected, p.ConnectErrorMessage())

	case socketio.PacketEvent:
		name, _, err := p.Event()
		if err != nil {
			return err
		}
		topic := Topic(name)
		if !isDispatchable(topic) {
			c.log.Debug(ctx, "realtime event without handler", "event", name)
			return nil
		}
		c.dispatch(ctx, cn, topic)
	}
	return nil
}

func (c *Channel) connected(ctx context.Context, cn *connection) error {
	if !c.isCurrent(cn) {
		return nil
	}
	cn.connected.Store(true)
	if err := cn.emit(eventJoinHousehold, cn.household); err != nil {
		return errors.Wrap(err, "join announcement")
	}
	cn.markReady()
	c.log.Info(ctx, "realtime channel connected", "household", cn.household)

	c.dispatch(ctx, cn, TopicConnected)
	return nil
}

type connection struct {
	conn      Conn
	household string

	writeMu sync.Mutex

	connected atomic.Bool
	closing   atomic.Bool

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	doneOnce  sync.Once

	mu         sync.Mutex
	pingWindow time.Duration
	err        error
}

func newConnection(conn Conn, household string) *connection {
	return &connection{
		conn:      conn,
		household: household,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (cn *connection) write(b []byte) error {
	cn.writeMu.Lock()
	defer cn.writeMu.Unlock()
	return cn.conn.WriteMessage(websocket.TextMessage, b)
}

func (cn *connection) emit(event string, args ...any) error {
	p, err := socketio.EventPacket(event, args...)
	if err != nil {
		return err
	}
	return cn.write(p.Message())
}

func (cn *connection) close() {
	cn.closing.Store(true)
	cn.connected.Store(false)

	cn.writeMu.Lock()
	_ = cn.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	cn.writeMu.Unlock()

	_ = cn.conn.Close()
}

func (cn *connection) markReady() {
	cn.readyOnce.Do(func() { close(cn.ready) })
}

func (cn *connection) finish() {
	cn.doneOnce.Do(func() {
		_ = cn.conn.Close()
		close(cn.done)
	})
}

func (cn *connection) finished() bool {
	select {
	case <-cn.done:
		return true
	default:
		return false
	}
}

func (cn *connection) setPingWindow(d time.Duration) {
	cn.mu.Lock()
	cn.pingWindow = d
	cn.mu.Unlock()
}

func (cn *connection) extendDeadline() {
	cn.mu.Lock()
	d := cn.pingWindow
	cn.mu.Unlock()
	if d > 0 {
		_ = cn.conn.SetReadDeadline(time.Now().Add(d))
	}
}

func (cn *connection) setFailure(err error) {
	cn.mu.Lock()
	cn.err = err
	cn.mu.Unlock()
}

func (cn *connection) failure() error {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	return cn.err
}
