// Package client is the HTTP side of the household backend contract.
//
// # Overview
//
//  1. Client is the surface services depend on: the csrf + credentials login
//     handshake, protected reads under /api/, and a reachability probe.
//  2. HTTPClient implements it over a single http.Client whose cookie jar is
//     a session.Store, so Set-Cookie headers from any response land in the
//     store and are replayed on later requests.
//  3. InitDatabase and RunMigrations open the local SQLite file and apply the
//     embedded goose migrations.
//
// # Error Handling
//
// Failures are classified with sentinels: ErrNetwork, ErrProtocol,
// ErrAuthRejected, ErrDataUnavailable and ErrParse. Non-2xx responses come
// back as *StatusError, which also matches ErrUnauthorized (401/403) and
// ErrUnavailable (5xx).
//
// The outward-facing operations never return errors: Login folds every
// failure into an AuthResult, FetchCsrf into two empty strings and Fetch into
// ("", false). FetchErr, FetchCsrfErr and GetJSON expose the classification
// for callers that want it.
//
// # Login
//
// Login needs a 2xx response to the credentials POST and a session-token
// cookie in the store afterwards. Any other outcome clears the store.
package client
