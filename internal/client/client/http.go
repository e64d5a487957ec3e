package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/forttask/internal/client/session"
	"github.com/dmitrijs2005/forttask/internal/errors"
	"github.com/dmitrijs2005/forttask/internal/logging"
)

const (
	csrfPath        = "/api/auth/csrf"
	credentialsPath = "/api/auth/callback/credentials"
	apiPrefix       = "/api/"

	maxBodySize     = 4 << 20
	maxErrorExcerpt = 512

	msgCsrfMissing = "Failed to retrieve CSRF token or cookie."
)

// AuthState is the position of the most recent login attempt in the
// csrf + credentials handshake.
type AuthState int

const (
	StateIdle AuthState = iota
	StateFetchingCsrf
	StateCsrfObtained
	StateSubmittingCredentials
	StateAuthenticated
	StateFailed
)

func (s AuthState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateFetchingCsrf:
		return "FETCHING_CSRF"
	case StateCsrfObtained:
		return "CSRF_OBTAINED"
	case StateSubmittingCredentials:
		return "SUBMITTING_CREDENTIALS"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateFailed:
		return "FAILED"
	}
	return fmt.Sprintf("AuthState(%d)", int(s))
}

// AuthResult is the outcome of Login. ErrorMessage is empty on success.
type AuthResult struct {
	Success      bool
	ErrorMessage string
}

// HTTPClient talks to the household backend over one http.Client whose
// cookie jar is the session store, so the csrf call, the credentials POST
// and later data fetches all share session state.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	probe   *http.Client
	store   *session.Store
	log     logging.Logger

	mu    sync.Mutex
	state AuthState
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for baseURL (scheme://host:port). A zero
// timeout keeps transport defaults.
func NewHTTPClient(baseURL string, store *session.Store, log logging.Logger, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", baseURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must include scheme and host", baseURL)
	}
	if log == nil {
		log = logging.Nop()
	}

	return &HTTPClient{
		baseURL: u,
		http:    &http.Client{Jar: store, Timeout: timeout},
		probe:   &http.Client{Timeout: timeout},
		store:   store,
		log:     log.With("component", "http-client"),
	}, nil
}

// BaseURL returns the backend root, e.g. http://127.0.0.1:3000.
func (c *HTTPClient) BaseURL() string { return c.baseURL.String() }

// Host is the cookie host the session store keys this backend under.
func (c *HTTPClient) Host() string { return c.baseURL.Hostname() }

// State reports where the latest login attempt got to.
func (c *HTTPClient) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *HTTPClient) setState(s AuthState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// HasSession reports whether the store holds a session token for the backend.
func (c *HTTPClient) HasSession() bool {
	return c.store.HasSessionToken(c.Host())
}

// Logout forgets every cookie.
func (c *HTTPClient) Logout() {
	c.store.Clear()
	c.setState(StateIdle)
}

// FetchCsrf returns the csrf token and the "name=value" part of the csrf
// cookie, or two empty strings on any failure.
func (c *HTTPClient) FetchCsrf(ctx context.Context) (string, string) {
	token, cookie, err := c.FetchCsrfErr(ctx)
	if err != nil {
		c.log.Warn(ctx, "csrf fetch failed", "error", err)
		return "", ""
	}
	return token, cookie
}

// FetchCsrfErr is FetchCsrf with the failure classified.
func (c *HTTPClient) FetchCsrfErr(ctx context.Context) (token, cookie string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(csrfPath), nil)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if !isSuccess(resp.StatusCode) {
		return "", "", &StatusError{Kind: ErrProtocol, Code: resp.StatusCode, Body: excerpt(body)}
	}

	var payload struct {
		CsrfToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", "", fmt.Errorf("%w: csrf body: %v", ErrParse, err)
	}

	cookie = csrfCookie(resp.Header.Values("Set-Cookie"))
	if payload.CsrfToken == "" || cookie == "" {
		return "", "", errors.Wrapf(ErrProtocol, "csrf token present=%t cookie present=%t", payload.CsrfToken != "", cookie != "")
	}
	return payload.CsrfToken, cookie, nil
}

func csrfCookie(headers []string) string {
	for _, h := range headers {
		if strings.HasPrefix(h, session.CSRFCookiePrefix) {
			v, _, _ := strings.Cut(h, ";")
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Login runs the csrf handshake and submits the credentials form. Success
// needs a 2xx status and a session-token cookie captured by the store;
// every failure clears the store.
func (c *HTTPClient) Login(ctx context.Context, username, password string) AuthResult {
	log := c.log.With("username", username)

	c.setState(StateFetchingCsrf)
	token, cookie := c.FetchCsrf(ctx)
	if token == "" || cookie == "" {
		return c.fail(ctx, log, msgCsrfMissing)
	}
	c.setState(StateCsrfObtained)

	form := url.Values{}
	form.Set("csrfToken", token)
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(credentialsPath), strings.NewReader(form.Encode()))
	if err != nil {
		return c.fail(ctx, log, "Network error: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", cookie)

	c.setState(StateSubmittingCredentials)
	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(ctx, log, "Network error: "+err.Error())
	}
	defer resp.Body.Close()

	body, _ := readBody(resp.Body)

	if isSuccess(resp.StatusCode) && c.HasSession() {
		c.setState(StateAuthenticated)
		log.Info(ctx, "login succeeded")
		return AuthResult{Success: true}
	}

	return c.fail(ctx, log, fmt.Sprintf("Server error: %d - %s", resp.StatusCode, excerpt(body)))
}

func (c *HTTPClient) fail(ctx context.Context, log logging.Logger, msg string) AuthResult {
	c.store.Clear()
	c.setState(StateFailed)
	log.Warn(ctx, "login failed", "reason", msg)
	return AuthResult{Success: false, ErrorMessage: msg}
}

// Fetch GETs /api/<path> and returns the body on 2xx. Any failure yields
// ("", false).
func (c *HTTPClient) Fetch(ctx context.Context, path string) (string, bool) {
	body, err := c.FetchErr(ctx, path)
	if err != nil {
		c.log.Warn(ctx, "fetch failed", "path", path, "error", err)
		return "", false
	}
	return body, true
}

// FetchErr is Fetch with the failure classified.
func (c *HTTPClient) FetchErr(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL(path), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if !isSuccess(resp.StatusCode) {
		return "", &StatusError{Kind: ErrDataUnavailable, Code: resp.StatusCode, Body: excerpt(body)}
	}

	c.log.Debug(ctx, "fetched", "path", path, "bytes", len(body))
	return string(body), nil
}

// GetJSON fetches path and decodes the body into v.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, v any) error {
	body, err := c.FetchErr(ctx, path)
	if err != nil {
		return err
	}
	return DecodeJSON(body, v)
}

// DecodeJSON decodes body into v, tagging failures with ErrParse.
func DecodeJSON(body string, v any) error {
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

// Ping checks that the backend answers at all. Transport failures and 5xx
// map to ErrUnavailable. It bypasses the cookie jar: a csrf Set-Cookie on
// the probe would otherwise replace the stored session.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint(csrfPath), nil)
	if err != nil {
		return err
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{Kind: ErrUnavailable, Code: resp.StatusCode}
	}
	return nil
}

// APIURL joins the base url, the /api/ prefix and path.
func (c *HTTPClient) APIURL(path string) string {
	return c.baseURL.String() + apiPrefix + strings.TrimLeft(path, "/")
}

func (c *HTTPClient) endpoint(path string) string {
	return c.baseURL.String() + path
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func readBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBodySize))
}

func excerpt(body []byte) string {
	if len(body) <= maxErrorExcerpt {
		return string(body)
	}
	cut := body[:maxErrorExcerpt]
	for len(cut) > 0 && !utf8.Valid(cut) {
		cut = cut[:len(cut)-1]
	}
	return string(cut) + "..."
}
