package storage

import (
	"context"
	"time"

	"github.com/divu-hq/module-builder/internal/models"
)

// Repository defines the interface for draft and module persistence
type Repository interface {
	// Drafts
	CreateDraft(ctx context.Context, d *models.Draft) error
	GetDraft(ctx context.Context, id string) (*models.Draft, error)
	GetLatestDraft(ctx context.Context, authorID string) (*models.Draft, error)
	UpdateDraft(ctx context.Context, d *models.Draft) (int64, error)
	DeleteDraft(ctx context.Context, id string) error
	ListDrafts(ctx context.Context, filters models.DraftFilters) ([]*models.Draft, error)
	GetStaleDrafts(ctx context.Context, idleSince time.Time) ([]*models.Draft, error)

	// Modules
	PublishModule(ctx context.Context, m *models.Module, draftID string) error
	DeleteModule(ctx context.Context, id string) error
	GetModule(ctx context.Context, id string) (*models.Module, error)
	ListModules(ctx context.Context, filters models.ModuleFilters) ([]*models.Module, error)

	// API Clients
	GetClientByAPIKey(ctx context.Context, apiKey string) (*models.APIClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
