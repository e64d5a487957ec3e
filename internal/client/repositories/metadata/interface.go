// Package metadata is a small key/value table for client state that must
// survive restarts: the last signed-in user and their household.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyUsername    = "username"
	KeyHouseholdID = "household_id"
	KeyLastLogin   = "last_login"
)

// Repository stores string values by key. Get reports ok=false for a
// missing key rather than an error.
type Repository interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
