package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/forttask/internal/client/realtime"
	"github.com/dmitrijs2005/forttask/internal/logging"
	"github.com/dmitrijs2005/forttask/internal/socketio"
)

func memberOf(household string) Authenticator {
	return func(*http.Request) (string, bool) { return household, true }
}

func newServer(t *testing.T, auth Authenticator, opts Options) (*Hub, *httptest.Server) {
	t.Helper()
	h := New(auth, opts, logging.Nop())
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, srv
}

func dialRaw(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + socketio.Path + "?EIO=4&transport=websocket"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func handshake(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	open := read(t, conn)
	require.True(t, strings.HasPrefix(open, "0{"), open)
	require.Contains(t, open, `"pingInterval"`)
	send(t, conn, "40")
	ack := read(t, conn)
	require.True(t, strings.HasPrefix(ack, `40{"sid":`), ack)
}

func TestServeHTTP_RejectsOtherTransports(t *testing.T) {
	_, srv := newServer(t, memberOf("1"), Options{})

	resp, err := http.Get(srv.URL + socketio.Path + "?EIO=4&transport=polling")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJoinAndBroadcast(t *testing.T) {
	h, srv := newServer(t, memberOf("1"), Options{})
	conn := dialRaw(t, srv)
	handshake(t, conn)

	send(t, conn, `42["join-household","1"]`)
	require.Eventually(t, func() bool { return h.Members("1") == 1 }, 2*time.Second, 10*time.Millisecond)

	n, err := h.Broadcast(context.Background(), "1", "update-chores")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, `42["update-chores"]`, read(t, conn))

	n, err = h.Broadcast(context.Background(), "2", "update-chores")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestJoin_NumericHouseholdAndLeave(t *testing.T) {
	h, srv := newServer(t, memberOf("1"), Options{})
	conn := dialRaw(t, srv)
	handshake(t, conn)

	send(t, conn, `42["join-household",1]`)
	require.Eventually(t, func() bool { return h.Members("1") == 1 }, 2*time.Second, 10*time.Millisecond)

	send(t, conn, `42["leave-household","1"]`)
	require.Eventually(t, func() bool { return h.Members("1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestJoin_ForeignHouseholdRefused(t *testing.T) {
	h, srv := newServer(t, memberOf("1"), Options{})
	conn := dialRaw(t, srv)
	handshake(t, conn)

	send(t, conn, `42["join-household","2"]`)
	send(t, conn, `42["join-household","1"]`)
	require.Eventually(t, func() bool { return h.Members("1") == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Zero(t, h.Members("2"))
}

func TestConnect_Unauthorized(t *testing.T) {
	denied := func(*http.Request) (string, bool) { return "", false }
	_, srv := newServer(t, denied, Options{})
	conn := dialRaw(t, srv)

	require.True(t, strings.HasPrefix(read(t, conn), "0{"))
	send(t, conn, "40")
	require.Equal(t, `44{"message":"Not authorized"}`, read(t, conn))
}

func TestPing_SentOnInterval(t *testing.T) {
	_, srv := newServer(t, memberOf("1"), Options{PingInterval: 20 * time.Millisecond, PingTimeout: time.Second})
	conn := dialRaw(t, srv)
	require.True(t, strings.HasPrefix(read(t, conn), "0{"))

	require.Equal(t, "2", read(t, conn))
	send(t, conn, "3")
	require.Equal(t, "2", read(t, conn))
}

func TestDisconnect_DropsMembership(t *testing.T) {
	h, srv := newServer(t, memberOf("1"), Options{})
	conn := dialRaw(t, srv)
	handshake(t, conn)

	send(t, conn, `42["join-household","1"]`)
	require.Eventually(t, func() bool { return h.Members("1") == 1 }, 2*time.Second, 10*time.Millisecond)

	send(t, conn, "41")
	require.Eventually(t, func() bool { return h.Members("1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestChannelRoundTrip(t *testing.T) {
	h, srv := newServer(t, memberOf("1"), Options{})

	ch, err := realtime.NewChannel(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close(context.Background()) })

	var fired atomic.Int32
	ctx := context.Background()
	require.NoError(t, ch.Initialize(ctx, "1"))
	ch.Subscribe(realtime.TopicBills, func() { fired.Add(1) })

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, ch.WaitConnected(waitCtx))
	require.Eventually(t, func() bool { return h.Members("1") == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = h.Broadcast(ctx, "1", string(realtime.TopicBills))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	ch.Disconnect(ctx, "1")
	require.Eventually(t, func() bool { return h.Members("1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestChannel_UnauthorizedConnectFails(t *testing.T) {
	denied := func(*http.Request) (string, bool) { return "", false }
	_, srv := newServer(t, denied, Options{})

	ch, err := realtime.NewChannel(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ch.Initialize(ctx, "1"))
	require.Error(t, ch.WaitConnected(ctx))
	require.False(t, ch.IsInitialized())
}
