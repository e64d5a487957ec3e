package client

import "context"

// Client is the backend surface used by services: the login handshake,
// protected reads and a reachability probe.
type Client interface {
	FetchCsrf(ctx context.Context) (token string, cookie string)
	Login(ctx context.Context, username, password string) AuthResult
	Fetch(ctx context.Context, path string) (string, bool)
	FetchErr(ctx context.Context, path string) (string, error)
	GetJSON(ctx context.Context, path string, v any) error
	Ping(ctx context.Context) error
	HasSession() bool
	Logout()
}
