// Package api serves the household REST surface of the development backend
// under /api/ and mounts the Socket.IO hub at /socket.io/.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/realtime"
	"github.com/dmitrijs2005/forttask/internal/client/session"
	"github.com/dmitrijs2005/forttask/internal/devserver/auth"
	"github.com/dmitrijs2005/forttask/internal/devserver/store"
	"github.com/dmitrijs2005/forttask/internal/errors"
	"github.com/dmitrijs2005/forttask/internal/logging"
	"github.com/dmitrijs2005/forttask/internal/socketio"
)

const dateParam = "2006-01-02"

// Broadcaster pushes a realtime event to a household room.
type Broadcaster interface {
	Broadcast(ctx context.Context, household, event string) (int, error)
}

type Server struct {
	store    *store.Store
	sessions *Sessions
	csrf     *auth.CSRF
	hub      Broadcaster
	socket   http.Handler
	log      logging.Logger
	now      func() time.Time
}

// New builds the API. socket serves /socket.io/ and may be nil.
func New(st *store.Store, sessions *Sessions, csrf *auth.CSRF, hub Broadcaster, socket http.Handler, log logging.Logger) *Server {
	return &Server{
		store:    st,
		sessions: sessions,
		csrf:     csrf,
		hub:      hub,
		socket:   socket,
		log:      log,
		now:      time.Now,
	}
}

type userKey struct{}

func userFrom(ctx context.Context) store.User {
	u, _ := ctx.Value(userKey{}).(store.User)
	return u
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	if s.socket != nil {
		r.PathPrefix(socketio.Path).Handler(s.socket)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.logRequests)
	api.HandleFunc("/auth/csrf", s.csrfToken).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/auth/callback/credentials", s.credentials).Methods(http.MethodPost)

	p := api.NewRoute().Subrouter()
	p.Use(s.requireSession)
	p.HandleFunc("/user/get", s.currentUser).Methods(http.MethodGet)
	p.HandleFunc("/events/get", s.events).Methods(http.MethodGet)
	p.HandleFunc("/chores/todo/get", s.chores(false)).Methods(http.MethodGet)
	p.HandleFunc("/chores/done/get", s.chores(true)).Methods(http.MethodGet)
	p.HandleFunc("/bill/mobile/notpaid", s.bills(false)).Methods(http.MethodGet)
	p.HandleFunc("/bill/mobile/paid", s.bills(true)).Methods(http.MethodGet)
	p.HandleFunc("/shoppingList", s.shopping).Methods(http.MethodGet)
	p.HandleFunc("/overview/events", s.overviewEvents).Methods(http.MethodGet)
	p.HandleFunc("/overview/chores", s.overviewChores).Methods(http.MethodGet)
	p.HandleFunc("/overview/bills", s.overviewBills).Methods(http.MethodGet)
	p.HandleFunc("/overview/shoppingList", s.overviewShopping).Methods(http.MethodGet)
	p.HandleFunc("/dev/touch/{topic}", s.touch).Methods(http.MethodPost)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.sessions.User(r)
		if err != nil {
			s.log.Debug(r.Context(), "session rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	})
}

func (s *Server) csrfToken(w http.ResponseWriter, r *http.Request) {
	token, value := s.csrf.Issue()
	http.SetCookie(w, &http.Cookie{
		Name:     session.CSRFCookiePrefix,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func (s *Server) credentials(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}
	c, err := r.Cookie(session.CSRFCookiePrefix)
	if err != nil || !s.csrf.Verify(r.PostForm.Get("csrfToken"), c.Value) {
		writeError(w, http.StatusForbidden, "csrf token mismatch")
		return
	}

	username := r.PostForm.Get("username")
	u, err := s.store.Authenticate(username, r.PostForm.Get("password"))
	if err != nil {
		s.log.Info(r.Context(), "login rejected", "username", username)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	cookie, err := s.sessions.Cookie(u)
	if err != nil {
		s.log.Error(r.Context(), "session token not issued", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.SetCookie(w, cookie)
	s.log.Info(r.Context(), "login succeeded", "username", username)
	writeJSON(w, http.StatusOK, map[string]string{"url": "/"})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()).Data())
}

// household writes 403 and returns false when the user has none.
func household(w http.ResponseWriter, u store.User) (int, bool) {
	if u.HouseholdID == nil {
		writeError(w, http.StatusForbidden, "User is not part of a household")
		return 0, false
	}
	return *u.HouseholdID, true
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	hh, ok := household(w, userFrom(r.Context()))
	if !ok {
		return
	}
	ev := s.store.Events(hh)
	writeJSON(w, http.StatusOK, models.EventsResponse{Events: ev, Count: len(ev)})
}

func (s *Server) chores(done bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hh, ok := household(w, userFrom(r.Context()))
		if !ok {
			return
		}
		limit, err := intParam(r, "limit")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		skip, err := intParam(r, "skip")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		page, count := s.store.Chores(hh, done, limit, skip)
		writeJSON(w, http.StatusOK, models.ChoresResponse{Chores: page, Count: count})
	}
}

func (s *Server) bills(paid bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hh, ok := household(w, userFrom(r.Context()))
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.store.Bills(hh, paid))
	}
}

func (s *Server) shopping(w http.ResponseWriter, r *http.Request) {
	hh, ok := household(w, userFrom(r.Context()))
	if !ok {
		return
	}
	skip, err := intParam(r, "skip")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.store.Shopping(hh, skip))
}

func (s *Server) overviewEvents(w http.ResponseWriter, r *http.Request) {
	hh, day, ok := s.overviewScope(w, r)
	if ok {
		writeJSON(w, http.StatusOK, models.OverviewEvents{Events: s.store.OverviewEvents(hh, day)})
	}
}

func (s *Server) overviewChores(w http.ResponseWriter, r *http.Request) {
	hh, day, ok := s.overviewScope(w, r)
	if ok {
		writeJSON(w, http.StatusOK, models.OverviewChores{Chores: s.store.OverviewChores(hh, day)})
	}
}

func (s *Server) overviewBills(w http.ResponseWriter, r *http.Request) {
	hh, day, ok := s.overviewScope(w, r)
	if ok {
		writeJSON(w, http.StatusOK, models.OverviewBills{Bills: s.store.OverviewBills(hh, day)})
	}
}

func (s *Server) overviewShopping(w http.ResponseWriter, r *http.Request) {
	hh, ok := household(w, userFrom(r.Context()))
	if ok {
		writeJSON(w, http.StatusOK, models.OverviewShopping{ShoppingItems: s.store.OverviewShopping(hh)})
	}
}

// overviewScope resolves the household and the ?date= day. A missing date
// means today.
func (s *Server) overviewScope(w http.ResponseWriter, r *http.Request) (int, time.Time, bool) {
	hh, ok := household(w, userFrom(r.Context()))
	if !ok {
		return 0, time.Time{}, false
	}
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return hh, s.now().UTC(), true
	}
	day, err := time.ParseInLocation(dateParam, raw, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return 0, time.Time{}, false
	}
	return hh, day, true
}

// touch broadcasts an update-* event to the caller's household, standing
// in for the mutation endpoints the client does not use.
func (s *Server) touch(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	hh, ok := household(w, u)
	if !ok {
		return
	}
	topic := realtime.Topic(mux.Vars(r)["topic"])
	if !knownTopic(topic) {
		writeError(w, http.StatusNotFound, "unknown topic")
		return
	}
	n, err := s.hub.Broadcast(r.Context(), strconv.Itoa(hh), string(topic))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info(r.Context(), "topic touched", "user", u.Username, "topic", topic, "sockets", n)
	writeJSON(w, http.StatusOK, map[string]int{"sockets": n})
}

func knownTopic(t realtime.Topic) bool {
	for _, known := range realtime.Topics {
		if t == known {
			return true
		}
	}
	return false
}

// intParam reads a non-negative integer query parameter; absent means 0.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
