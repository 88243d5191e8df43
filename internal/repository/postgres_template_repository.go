package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yourusername/parlay-slip/internal/database"
	"github.com/yourusername/parlay-slip/internal/models"
)

const uniqueViolation = "23505"

// PostgresTemplateRepository implements TemplateRepository for PostgreSQL
type PostgresTemplateRepository struct {
	db *database.DB
}

// NewPostgresTemplateRepository creates a new template repository
func NewPostgresTemplateRepository(db *database.DB) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

// Create inserts a new template
func (r *PostgresTemplateRepository) Create(ctx context.Context, template *models.ParlayTemplate) error {
	legs, err := json.Marshal(template.Legs)
	if err != nil {
		return fmt.Errorf("failed to encode legs: %w", err)
	}
	tags := template.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO parlay_templates (id, name, legs, total_odds, bookmaker, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		template.ID, template.Name, legs, template.TotalOdds, template.Bookmaker, tags, template.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

// GetByID retrieves a template by ID
func (r *PostgresTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ParlayTemplate, error) {
	query := `
		SELECT id, name, legs, total_odds, bookmaker, tags, created_at
		FROM parlay_templates WHERE id = $1
	`

	t, err := scanTemplate(r.db.GetPool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return t, nil
}

// List returns templates newest first
func (r *PostgresTemplateRepository) List(ctx context.Context, limit int) ([]*models.ParlayTemplate, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, name, legs, total_odds, bookmaker, tags, created_at
		FROM parlay_templates
		ORDER BY created_at DESC, id
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.ParlayTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

// Delete removes a template
func (r *PostgresTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM parlay_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanTemplate(row pgx.Row) (*models.ParlayTemplate, error) {
	var (
		t    models.ParlayTemplate
		legs []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &legs, &t.TotalOdds, &t.Bookmaker, &t.Tags, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(legs, &t.Legs); err != nil {
		return nil, fmt.Errorf("failed to decode legs: %w", err)
	}
	return &t, nil
}
