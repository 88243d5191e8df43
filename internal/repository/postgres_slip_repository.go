package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourusername/parlay-slip/internal/database"
	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/odds"
)

// PostgresSlipRepository implements SlipRepository for PostgreSQL
type PostgresSlipRepository struct {
	db *database.DB
}

// NewPostgresSlipRepository creates a new slip repository
func NewPostgresSlipRepository(db *database.DB) *PostgresSlipRepository {
	return &PostgresSlipRepository{db: db}
}

// Save upserts the session's slip. Money columns are NUMERIC rounded to cents.
func (r *PostgresSlipRepository) Save(ctx context.Context, sessionID string, slip models.SerializedSlip) error {
	if sessionID == "" {
		return models.ErrInvalidID
	}

	legs, err := json.Marshal(slip.Legs)
	if err != nil {
		return fmt.Errorf("failed to encode legs: %w", err)
	}

	query := `
		INSERT INTO slips (session_id, slip_id, legs, total_stake, total_odds, potential_payout, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric, $7, NOW())
		ON CONFLICT (session_id) DO UPDATE SET
			slip_id = EXCLUDED.slip_id,
			legs = EXCLUDED.legs,
			total_stake = EXCLUDED.total_stake,
			total_odds = EXCLUDED.total_odds,
			potential_payout = EXCLUDED.potential_payout,
			created_at = EXCLUDED.created_at,
			updated_at = NOW()
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		sessionID, slip.ID, legs,
		odds.RoundCents(slip.TotalStake).StringFixed(2), slip.TotalOdds,
		odds.RoundCents(slip.PotentialPayout).StringFixed(2), slip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save slip: %w", err)
	}

	return nil
}

// Load retrieves the session's slip
func (r *PostgresSlipRepository) Load(ctx context.Context, sessionID string) (*models.SerializedSlip, error) {
	query := `
		SELECT slip_id, legs, total_stake::text, total_odds, potential_payout::text, created_at
		FROM slips WHERE session_id = $1
	`

	var (
		slip          models.SerializedSlip
		legs          []byte
		stake, payout string
	)
	err := r.db.GetPool().QueryRow(ctx, query, sessionID).Scan(
		&slip.ID, &legs, &stake, &slip.TotalOdds, &payout, &slip.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slip: %w", err)
	}

	if err := json.Unmarshal(legs, &slip.Legs); err != nil {
		return nil, fmt.Errorf("failed to decode legs: %w", err)
	}
	if slip.TotalStake, err = parseMoney(stake); err != nil {
		return nil, err
	}
	if slip.PotentialPayout, err = parseMoney(payout); err != nil {
		return nil, err
	}
	slip.CreatedAt = slip.CreatedAt.UTC()

	return &slip, nil
}

// Delete removes the session's slip
func (r *PostgresSlipRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.GetPool().Exec(ctx, `DELETE FROM slips WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete slip: %w", err)
	}
	return nil
}

// Ping verifies database connectivity
func (r *PostgresSlipRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func parseMoney(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}
