package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/yourusername/parlay-slip/internal/models"
)

// MemorySlipRepository keeps slips in process memory
type MemorySlipRepository struct {
	mu    sync.RWMutex
	slips map[string]models.SerializedSlip
}

// NewMemorySlipRepository creates an empty in-memory slip store
func NewMemorySlipRepository() *MemorySlipRepository {
	return &MemorySlipRepository{slips: make(map[string]models.SerializedSlip)}
}

// Save stores a copy of the slip
func (r *MemorySlipRepository) Save(ctx context.Context, sessionID string, slip models.SerializedSlip) error {
	if sessionID == "" {
		return models.ErrInvalidID
	}
	slip.Legs = models.CloneLegs(slip.Legs)

	r.mu.Lock()
	r.slips[sessionID] = slip
	r.mu.Unlock()
	return nil
}

// Load returns a copy of the stored slip
func (r *MemorySlipRepository) Load(ctx context.Context, sessionID string) (*models.SerializedSlip, error) {
	r.mu.RLock()
	slip, ok := r.slips[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	slip.Legs = models.CloneLegs(slip.Legs)
	return &slip, nil
}

// Delete removes the stored slip; deleting a missing slip is not an error
func (r *MemorySlipRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.slips, sessionID)
	r.mu.Unlock()
	return nil
}

// Len returns the number of stored slips
func (r *MemorySlipRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slips)
}

// MemoryTemplateRepository keeps templates in process memory
type MemoryTemplateRepository struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]models.ParlayTemplate
}

// NewMemoryTemplateRepository creates an empty in-memory template store
func NewMemoryTemplateRepository() *MemoryTemplateRepository {
	return &MemoryTemplateRepository{templates: make(map[uuid.UUID]models.ParlayTemplate)}
}

// Create inserts a new template
func (r *MemoryTemplateRepository) Create(ctx context.Context, template *models.ParlayTemplate) error {
	if template.ID == uuid.Nil {
		return models.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[template.ID]; exists {
		return models.ErrDuplicateKey
	}
	r.templates[template.ID] = copyTemplate(*template)
	return nil
}

// GetByID retrieves a template by ID
func (r *MemoryTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ParlayTemplate, error) {
	r.mu.RLock()
	t, ok := r.templates[id]
	r.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	t = copyTemplate(t)
	return &t, nil
}

// List returns templates newest first, at most limit when limit > 0
func (r *MemoryTemplateRepository) List(ctx context.Context, limit int) ([]*models.ParlayTemplate, error) {
	r.mu.RLock()
	out := make([]*models.ParlayTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		t = copyTemplate(t)
		out = append(out, &t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a template
func (r *MemoryTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

func copyTemplate(t models.ParlayTemplate) models.ParlayTemplate {
	t.Legs = models.CloneLegs(t.Legs)
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}
