package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/forttask/internal/client/client"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeClient implements client.Client with canned bodies per path.
type fakeClient struct {
	mu sync.Mutex

	LoginRet client.AuthResult
	PingErr  error
	Session  bool

	Bodies map[string]string
	Errs   map[string]error

	LastLoginUser string
	LastLoginPass string
	Paths         []string
	LogoutCalls   int
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) FetchCsrf(context.Context) (string, string) { return "tok", "csrf=tok" }

func (f *fakeClient) Login(_ context.Context, username, password string) client.AuthResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastLoginUser = username
	f.LastLoginPass = password
	f.Session = f.LoginRet.Success
	return f.LoginRet
}

func (f *fakeClient) Fetch(ctx context.Context, path string) (string, bool) {
	body, err := f.FetchErr(ctx, path)
	return body, err == nil
}

func (f *fakeClient) FetchErr(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Paths = append(f.Paths, path)
	if err, ok := f.Errs[path]; ok {
		return "", err
	}
	if body, ok := f.Bodies[path]; ok {
		return body, nil
	}
	return "", &client.StatusError{Kind: client.ErrDataUnavailable, Code: 404, Body: "not found"}
}

func (f *fakeClient) GetJSON(ctx context.Context, path string, v any) error {
	body, err := f.FetchErr(ctx, path)
	if err != nil {
		return err
	}
	return client.DecodeJSON(body, v)
}

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

func (f *fakeClient) HasSession() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Session
}

func (f *fakeClient) Logout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LogoutCalls++
	f.Session = false
}

func (f *fakeClient) LastPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Paths) == 0 {
		return ""
	}
	return f.Paths[len(f.Paths)-1]
}
