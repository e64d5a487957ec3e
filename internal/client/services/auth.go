// Package services contains the application services of the forttask client.
// This file defines the authentication service: the login handshake, logout,
// a reachability probe and the household lookup that scopes every screen.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/client"
	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/forttask/internal/logging"
)

// ErrNoHousehold is returned when the signed-in user has not joined a household.
var ErrNoHousehold = errors.New("user has no household")

const userPath = "user/get"

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: run the csrf + credentials handshake; on success remember the username.
//   - Logout: drop the session and the cached household.
//   - HouseholdID: resolve the household of the signed-in user.
//   - Ping: check server reachability without touching the session.
type AuthService interface {
	Login(ctx context.Context, username, password string) client.AuthResult
	Logout(ctx context.Context) error
	IsLoggedIn() bool
	CurrentUser(ctx context.Context) (models.UserData, error)
	HouseholdID(ctx context.Context) (string, error)
	LastUsername(ctx context.Context) string
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	meta   metadata.Repository
	log    logging.Logger
	now    func() time.Time
}

// NewAuthService constructs an AuthService bound to the given API client and
// metadata store.
func NewAuthService(c client.Client, meta metadata.Repository, log logging.Logger) AuthService {
	return &authService{client: c, meta: meta, log: log, now: time.Now}
}

func (a *authService) Login(ctx context.Context, username, password string) client.AuthResult {
	res := a.client.Login(ctx, username, password)
	if !res.Success {
		return res
	}

	// a different user may belong to a different household
	if err := a.meta.Delete(ctx, metadata.KeyHouseholdID); err != nil {
		a.log.Warn(ctx, "cached household not cleared", "error", err)
	}
	if err := a.meta.Set(ctx, metadata.KeyUsername, username); err != nil {
		a.log.Warn(ctx, "username not cached", "error", err)
	}
	if err := a.meta.Set(ctx, metadata.KeyLastLogin, a.now().UTC().Format(time.RFC3339)); err != nil {
		a.log.Warn(ctx, "login time not cached", "error", err)
	}
	return res
}

func (a *authService) Logout(ctx context.Context) error {
	a.client.Logout()
	if err := a.meta.Delete(ctx, metadata.KeyHouseholdID); err != nil {
		return fmt.Errorf("clear household: %w", err)
	}
	return nil
}

func (a *authService) IsLoggedIn() bool {
	return a.client.HasSession()
}

func (a *authService) CurrentUser(ctx context.Context) (models.UserData, error) {
	var u models.UserData
	if err := a.client.GetJSON(ctx, userPath, &u); err != nil {
		return models.UserData{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// HouseholdID asks the backend for the household of the signed-in user and
// caches it. When the backend cannot be reached the cached id is used.
func (a *authService) HouseholdID(ctx context.Context) (string, error) {
	u, err := a.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, client.ErrNetwork) {
			if id, ok, cerr := a.meta.Get(ctx, metadata.KeyHouseholdID); cerr == nil && ok {
				a.log.Warn(ctx, "using cached household", "household", id, "error", err)
				return id, nil
			}
		}
		return "", err
	}

	id, ok := u.Household()
	if !ok {
		return "", ErrNoHousehold
	}
	if err := a.meta.Set(ctx, metadata.KeyHouseholdID, id); err != nil {
		a.log.Warn(ctx, "household not cached", "error", err)
	}
	return id, nil
}

// LastUsername returns the last user that signed in successfully, or "".
func (a *authService) LastUsername(ctx context.Context) string {
	v, _, err := a.meta.Get(ctx, metadata.KeyUsername)
	if err != nil {
		a.log.Warn(ctx, "read cached username", "error", err)
	}
	return v
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
