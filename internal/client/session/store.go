// Package session keeps the cookies the backend hands out, keyed by host.
//
// Store implements http.CookieJar, so every http.Client built around it
// captures Set-Cookie headers on the way in and replays them on the way out
// without any explicit token handling by callers.
package session

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cookie names issued by the backend's auth layer.
const (
	SessionTokenCookie       = "next-auth.session-token"
	SecureSessionTokenCookie = "__Secure-next-auth.session-token"
	CSRFCookiePrefix         = "next-auth.csrf-token"
)

// Store is a host-keyed cookie jar. A save for a host replaces everything
// stored for it; there is no merging across responses.
type Store struct {
	mu      sync.RWMutex
	cookies map[string][]*http.Cookie
}

var _ http.CookieJar = (*Store)(nil)

func NewStore() *Store {
	return &Store{cookies: make(map[string][]*http.Cookie)}
}

// Save replaces the cookie set for host.
func (s *Store) Save(host string, cookies []*http.Cookie) {
	cp := cloneCookies(cookies)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies[normalizeHost(host)] = cp
}

// Load returns the cookies stored for host, or an empty slice.
func (s *Store) Load(host string) []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.cookies[normalizeHost(host)]
	if len(stored) == 0 {
		return []*http.Cookie{}
	}
	return cloneCookies(stored)
}

// HasSessionToken reports whether host holds a live session-token cookie,
// either the plain or the __Secure- prefixed variant.
func (s *Store) HasSessionToken(host string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	for _, c := range s.cookies[normalizeHost(host)] {
		if !IsSessionTokenName(c.Name) || c.Value == "" {
			continue
		}
		if expired(c, now) {
			continue
		}
		return true
	}
	return false
}

// Clear drops the cookies of every host.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = make(map[string][]*http.Cookie)
}

// Hosts lists hosts with stored cookies, sorted.
func (s *Store) Hosts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hosts := make([]string, 0, len(s.cookies))
	for h := range s.cookies {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// SetCookies is called by http.Client with the cookies of every response
// that carried at least one Set-Cookie header.
func (s *Store) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.Save(u.Hostname(), cookies)
}

// Cookies returns the unexpired cookies to send to u.
func (s *Store) Cookies(u *url.URL) []*http.Cookie {
	stored := s.Load(u.Hostname())

	now := time.Now()
	out := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		if expired(c, now) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// IsSessionTokenName reports whether name is one of the session-token cookie names.
func IsSessionTokenName(name string) bool {
	return name == SessionTokenCookie || name == SecureSessionTokenCookie
}

func expired(c *http.Cookie, now time.Time) bool {
	if c.MaxAge < 0 {
		return true
	}
	return !c.Expires.IsZero() && c.Expires.Before(now)
}

func normalizeHost(host string) string {
	return strings.ToLower(host)
}

func cloneCookies(in []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		cc := *c
		out = append(out, &cc)
	}
	return out
}
