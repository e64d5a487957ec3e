package credentials

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/forttask/internal/client/models"
)

var (
	ErrNotFound  = errors.New("credential not found")
	ErrDuplicate = errors.New("username already saved")
	ErrInvalid   = errors.New("invalid credential")
)

// Repository describes the vault operations used by services.
type Repository interface {
	// Insert stores a new row and returns its id. A taken username yields
	// ErrDuplicate.
	Insert(ctx context.Context, c models.Credential) (int64, error)

	// Update rewrites username and password of the row with c.ID.
	Update(ctx context.Context, c models.Credential) error

	// Upsert updates the password of the row holding username, or inserts
	// one. created reports which happened.
	Upsert(ctx context.Context, username, password string) (id int64, created bool, err error)

	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Credential, error)
	GetByUsername(ctx context.Context, username string) (*models.Credential, error)
	GetAll(ctx context.Context) ([]models.Credential, error)

	Watch(ctx context.Context) (<-chan []models.Credential, error)
	WatchOne(ctx context.Context, id int64) (<-chan *models.Credential, error)
}
