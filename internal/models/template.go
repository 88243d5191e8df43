package models

import (
	"time"

	"github.com/google/uuid"
)

// ParlayTemplate is a saved set of legs that can be re-applied to a slip
type ParlayTemplate struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,min=1,max=255"`
	Legs      []Leg     `db:"legs" json:"legs" validate:"required,min=1"`
	TotalOdds int       `db:"total_odds" json:"totalOdds"`
	Bookmaker string    `db:"bookmaker" json:"bookmaker,omitempty"`
	Tags      []string  `db:"tags" json:"tags,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Validate performs basic validation on the template
func (t *ParlayTemplate) Validate() error {
	if err := validate.Struct(t); err != nil {
		return err
	}
	for _, leg := range t.Legs {
		if err := leg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
