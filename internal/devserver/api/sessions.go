package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/session"
	"github.com/dmitrijs2005/forttask/internal/devserver/auth"
	"github.com/dmitrijs2005/forttask/internal/devserver/store"
	"github.com/dmitrijs2005/forttask/internal/errors"
)

var ErrNoSession = errors.New("no session")

// Sessions issues and resolves session-token cookies.
type Sessions struct {
	store  *store.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(st *store.Store, secret []byte, ttl time.Duration) *Sessions {
	return &Sessions{store: st, secret: secret, ttl: ttl, now: time.Now}
}

// Cookie signs a session token for u.
func (s *Sessions) Cookie(u store.User) (*http.Cookie, error) {
	now := s.now()
	tok, err := auth.GenerateToken(u.ID, s.secret, s.ttl, now)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     session.SessionTokenCookie,
		Value:    tok,
		Path:     "/",
		Expires:  now.Add(s.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// User resolves the user behind the request's session cookie.
func (s *Sessions) User(r *http.Request) (store.User, error) {
	for _, name := range []string{session.SessionTokenCookie, session.SecureSessionTokenCookie} {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			continue
		}
		id, err := auth.UserIDFromToken(c.Value, s.secret)
		if err != nil {
			return store.User{}, err
		}
		return s.store.User(id)
	}
	return store.User{}, ErrNoSession
}

// Household authenticates a socket upgrade. Users without a household
// are refused.
func (s *Sessions) Household(r *http.Request) (string, bool) {
	u, err := s.User(r)
	if err != nil || u.HouseholdID == nil {
		return "", false
	}
	return strconv.Itoa(*u.HouseholdID), true
}
