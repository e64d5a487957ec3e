package realtime

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the websocket surface the channel needs. *websocket.Conn
// satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens a Conn to a socket url.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket. A Jar, when set, attaches
// the session cookies to the upgrade request. The jar is read only:
// cookies set by the upgrade response are ignored, since a store that
// replaces a host's cookies wholesale would lose the session token.
type WebsocketDialer struct {
	Jar              http.CookieJar
	HandshakeTimeout time.Duration
}

func (d WebsocketDialer) Dial(ctx context.Context, rawURL string, header http.Header) (Conn, error) {
	wd := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	if wd.HandshakeTimeout == 0 {
		wd.HandshakeTimeout = 10 * time.Second
	}

	if d.Jar != nil {
		h, err := d.withCookies(rawURL, header)
		if err != nil {
			return nil, err
		}
		header = h
	}

	conn, resp, err := wd.DialContext(ctx, rawURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// withCookies returns a copy of header carrying the jar's cookies for
// rawURL in a Cookie header.
func (d WebsocketDialer) withCookies(rawURL string, header http.Header) (http.Header, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	// jars key on http urls
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}

	cookies := d.Jar.Cookies(u)
	out := header.Clone()
	if len(cookies) == 0 {
		return out, nil
	}
	if out == nil {
		out = http.Header{}
	}
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	if prev := out.Get("Cookie"); prev != "" {
		pairs = append([]string{prev}, pairs...)
	}
	out.Set("Cookie", strings.Join(pairs, "; "))
	return out, nil
}
