// Package hub is the development backend's Socket.IO endpoint. Sockets
// join household rooms with join-household and receive update-* events
// broadcast to their room.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/forttask/internal/errors"
	"github.com/dmitrijs2005/forttask/internal/logging"
	"github.com/dmitrijs2005/forttask/internal/socketio"
)

const (
	eventJoin  = "join-household"
	eventLeave = "leave-household"

	msgNotAuthorized = "Not authorized"
)

var ErrNotAuthorized = errors.New("socket not authorized")

// Authenticator resolves the household of the user behind an upgrade
// request. ok is false when the request carries no valid session.
type Authenticator func(r *http.Request) (household string, ok bool)

type Options struct {
	PingInterval time.Duration
	PingTimeout  time.Duration
}

type Hub struct {
	log          logging.Logger
	auth         Authenticator
	pingInterval time.Duration
	pingTimeout  time.Duration
	upgrader     websocket.Upgrader

	mu      sync.Mutex
	rooms   map[string]map[*socket]struct{}
	sockets map[*socket]struct{}
}

func New(auth Authenticator, opts Options, log logging.Logger) *Hub {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 25 * time.Second
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 20 * time.Second
	}
	return &Hub{
		log:          log,
		auth:         auth,
		pingInterval: opts.PingInterval,
		pingTimeout:  opts.PingTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		rooms:   map[string]map[*socket]struct{}{},
		sockets: map[*socket]struct{}{},
	}
}

type socket struct {
	id        string
	conn      *websocket.Conn
	household string
	authed    bool

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func (s *socket) write(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

func (s *socket) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// ServeHTTP upgrades an Engine.IO websocket request and serves the socket
// until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("transport") != "websocket" || r.URL.Query().Get("EIO") != socketio.ProtocolVersion {
		http.Error(w, "only EIO=4 websocket transport is supported", http.StatusBadRequest)
		return
	}
	household, authed := h.auth(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	s := &socket{
		id:        uuid.NewString(),
		conn:      conn,
		household: household,
		authed:    authed,
		done:      make(chan struct{}),
	}
	h.serve(context.WithoutCancel(r.Context()), s)
}

func (h *Hub) serve(ctx context.Context, s *socket) {
	log := h.log.With("sid", s.id)

	h.mu.Lock()
	h.sockets[s] = struct{}{}
	h.mu.Unlock()
	defer h.drop(s)
	defer s.close()

	open, err := socketio.OpenFrame(socketio.Handshake{
		SID:          s.id,
		Upgrades:     []string{},
		PingInterval: int(h.pingInterval / time.Millisecond),
		PingTimeout:  int(h.pingTimeout / time.Millisecond),
		MaxPayload:   1 << 20,
	})
	if err != nil || s.write(open) != nil {
		return
	}

	go h.pingLoop(s)

	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(h.pingInterval + h.pingTimeout))
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			log.Debug(ctx, "socket closed", "error", err)
			return
		}
		if err := h.handleFrame(ctx, s, msg); err != nil {
			if !errors.Is(err, errClosed) {
				log.Warn(ctx, "socket frame rejected", "error", err)
			}
			return
		}
	}
}

var errClosed = errors.New("socket closed by peer")

func (h *Hub) handleFrame(ctx context.Context, s *socket, msg []byte) error {
	f, err := socketio.ParseFrame(msg)
	if err != nil {
		return err
	}
	switch f.Type {
	case socketio.EngineClose:
		return errClosed
	case socketio.EngineMessage:
		return h.handlePacket(ctx, s, f.Payload)
	}
	return nil
}

func (h *Hub) handlePacket(ctx context.Context, s *socket, payload []byte) error {
	p, err := socketio.ParsePacket(payload)
	if err != nil {
		return err
	}
	if p.Namespace != socketio.DefaultNamespace {
		return nil
	}

	switch p.Type {
	case socketio.PacketConnect:
		if !s.authed {
			rejected := socketio.Packet{Type: socketio.PacketConnectError, Namespace: socketio.DefaultNamespace}
			rejected.Data, _ = json.Marshal(map[string]string{"message": msgNotAuthorized})
			_ = s.write(rejected.Message())
			return ErrNotAuthorized
		}
		ack, err := socketio.ConnectPacket(map[string]string{"sid": s.id})
		if err != nil {
			return err
		}
		return s.write(ack.Message())

	case socketio.PacketDisconnect:
		return errClosed

	case socketio.PacketEvent:
		name, args, err := p.Event()
		if err != nil {
			return err
		}
		return h.handleEvent(ctx, s, name, args)
	}
	return nil
}

func (h *Hub) handleEvent(ctx context.Context, s *socket, name string, args []json.RawMessage) error {
	if name != eventJoin && name != eventLeave {
		h.log.Debug(ctx, "ignored socket event", "event", name)
		return nil
	}
	if len(args) == 0 {
		return errors.Errorf("%s without household", name)
	}
	room, err := householdArg(args[0])
	if err != nil {
		return err
	}

	if name == eventLeave {
		h.leave(s, room)
		h.log.Info(ctx, "socket left household", "sid", s.id, "household", room)
		return nil
	}
	if room != s.household {
		h.log.Warn(ctx, "join refused: not a member", "sid", s.id, "household", room)
		return nil
	}
	h.join(s, room)
	h.log.Info(ctx, "socket joined household", "sid", s.id, "household", room)
	return nil
}

// householdArg accepts the household id as a JSON string or number.
func householdArg(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n), nil
	}
	return "", errors.Errorf("household id %s is neither string nor number", string(raw))
}

func (h *Hub) pingLoop(s *socket) {
	t := time.NewTicker(h.pingInterval)
	defer t.Stop()
	ping := socketio.Frame{Type: socketio.EnginePing}.Encode()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			if err := s.write(ping); err != nil {
				s.close()
				return
			}
		}
	}
}

func (h *Hub) join(s *socket, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = map[*socket]struct{}{}
	}
	h.rooms[room][s] = struct{}{}
}

func (h *Hub) leave(s *socket, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[room], s)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) drop(s *socket) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sockets, s)
	for room, members := range h.rooms {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Members is the number of sockets in the household's room.
func (h *Hub) Members(household string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[household])
}

// Broadcast emits event to every socket in the household's room and
// returns how many sockets it reached.
func (h *Hub) Broadcast(ctx context.Context, household, event string) (int, error) {
	p, err := socketio.EventPacket(event)
	if err != nil {
		return 0, err
	}
	msg := p.Message()

	h.mu.Lock()
	members := make([]*socket, 0, len(h.rooms[household]))
	for s := range h.rooms[household] {
		members = append(members, s)
	}
	h.mu.Unlock()

	sent := 0
	for _, s := range members {
		if err := s.write(msg); err != nil {
			h.log.Warn(ctx, "broadcast write failed", "sid", s.id, "error", err)
			s.close()
			continue
		}
		sent++
	}
	h.log.Debug(ctx, "broadcast", "household", household, "event", event, "sockets", sent)
	return sent, nil
}

// Close disconnects every socket.
func (h *Hub) Close() {
	h.mu.Lock()
	all := make([]*socket, 0, len(h.sockets))
	for s := range h.sockets {
		all = append(all, s)
	}
	h.mu.Unlock()

	for _, s := range all {
		_ = s.write(socketio.Frame{Type: socketio.EngineClose}.Encode())
		s.close()
	}
}
