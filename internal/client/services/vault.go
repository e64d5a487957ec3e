package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/client/repositories/credentials"
)

// VaultService is the convenience credential store behind login auto-fill.
// Nothing is saved implicitly: the CLI asks before SaveOrUpdate.
type VaultService interface {
	HasCredentials(ctx context.Context) (bool, error)
	FindByUsername(ctx context.Context, username string) (*models.Credential, error)
	SaveOrUpdate(ctx context.Context, username, password string) (created bool, err error)
	List(ctx context.Context) ([]models.Credential, error)
	Forget(ctx context.Context, username string) error
	Watch(ctx context.Context) (<-chan []models.Credential, error)
}

type vaultService struct {
	repo credentials.Repository
}

func NewVaultService(repo credentials.Repository) VaultService {
	return &vaultService{repo: repo}
}

func (v *vaultService) HasCredentials(ctx context.Context) (bool, error) {
	all, err := v.repo.GetAll(ctx)
	if err != nil {
		return false, err
	}
	return len(all) > 0, nil
}

// FindByUsername returns nil without error when nothing is saved for username.
func (v *vaultService) FindByUsername(ctx context.Context, username string) (*models.Credential, error) {
	c, err := v.repo.GetByUsername(ctx, username)
	if errors.Is(err, credentials.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// SaveOrUpdate stores the pair, replacing the password when the username is
// already saved.
func (v *vaultService) SaveOrUpdate(ctx context.Context, username, password string) (bool, error) {
	_, created, err := v.repo.Upsert(ctx, username, password)
	if err != nil {
		return false, fmt.Errorf("save credentials: %w", err)
	}
	return created, nil
}

func (v *vaultService) List(ctx context.Context) ([]models.Credential, error) {
	return v.repo.GetAll(ctx)
}

func (v *vaultService) Forget(ctx context.Context, username string) error {
	c, err := v.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return v.repo.Delete(ctx, c.ID)
}

func (v *vaultService) Watch(ctx context.Context) (<-chan []models.Credential, error) {
	return v.repo.Watch(ctx)
}
