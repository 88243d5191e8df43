package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/parlay-slip/internal/models"
)

// SlipRepository persists one serialized slip per session. Load returns
// (nil, nil) when the session has nothing stored.
type SlipRepository interface {
	Save(ctx context.Context, sessionID string, slip models.SerializedSlip) error
	Load(ctx context.Context, sessionID string) (*models.SerializedSlip, error)
	Delete(ctx context.Context, sessionID string) error
}

// TemplateRepository defines the interface for parlay template data access
type TemplateRepository interface {
	Create(ctx context.Context, template *models.ParlayTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ParlayTemplate, error)
	List(ctx context.Context, limit int) ([]*models.ParlayTemplate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Pinger is implemented by backends that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}
