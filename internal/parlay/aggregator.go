// Package parlay prices, validates and combines parlay legs. Everything in
// this package is deterministic and free of side effects.
package parlay

import (
	"fmt"
	"math"

	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/odds"
)

// CombinedDecimal multiplies the decimal odds of every leg. The product is
// kept at full precision.
func CombinedDecimal(legs []models.Leg) (float64, error) {
	if len(legs) == 0 {
		return 0, models.ErrEmptySlip
	}

	product := 1.0
	for _, leg := range legs {
		dec, err := odds.AmericanToDecimal(leg.Odds)
		if err != nil {
			return 0, fmt.Errorf("leg %q: %w", leg.ID, err)
		}
		product *= dec
	}
	return product, nil
}

// CombinedOdds returns the parlay price of legs in American notation. A
// single leg is returned unchanged so no rounding is introduced.
func CombinedOdds(legs []models.Leg) (int, error) {
	if len(legs) == 1 {
		if legs[0].Odds == 0 {
			return 0, fmt.Errorf("leg %q: %w: American odds cannot be 0", legs[0].ID, models.ErrInvalidOdds)
		}
		return legs[0].Odds, nil
	}

	dec, err := CombinedDecimal(legs)
	if err != nil {
		return 0, err
	}
	return odds.DecimalToAmerican(dec)
}

// ExpectedValue returns the expected return per unit staked minus one, for a
// bet at americanOdds that wins with modelProbability. Positive is +EV.
func ExpectedValue(modelProbability float64, americanOdds int) (float64, error) {
	if math.IsNaN(modelProbability) || modelProbability < 0 || modelProbability > 1 {
		return 0, fmt.Errorf("%w: must be between 0 and 1, got %v", models.ErrInvalidProbability, modelProbability)
	}
	dec, err := odds.AmericanToDecimal(americanOdds)
	if err != nil {
		return 0, err
	}
	return modelProbability*dec - 1, nil
}

// BreakEvenProbability is the win rate at which the parlay returns exactly
// its stake over time.
func BreakEvenProbability(legs []models.Leg) (float64, error) {
	dec, err := CombinedDecimal(legs)
	if err != nil {
		return 0, err
	}
	return 1 / dec, nil
}

// CorrelationFactor scores how much of a leg set shares events. 1 means no
// correlated pairs; every correlated pair adds up to a maximum of 1.5.
func CorrelationFactor(legs []models.Leg) float64 {
	if len(legs) < 2 {
		return 1
	}

	correlated, pairs := 0, 0
	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			pairs++
			if Correlated(legs[i], legs[j]) {
				correlated++
			}
		}
	}
	return 1 + float64(correlated)/float64(pairs)*0.5
}

// Pricing is the full price breakdown of a leg set at a stake
type Pricing struct {
	AmericanOdds       int     `json:"americanOdds"`
	DecimalOdds        float64 `json:"decimalOdds"`
	ImpliedProbability float64 `json:"impliedProbability"`
	Stake              float64 `json:"stake"`
	Payout             float64 `json:"payout"`
	Profit             float64 `json:"profit"`
}

// Price computes the joint odds and returns of legs at stake
func Price(legs []models.Leg, stake float64) (Pricing, error) {
	american, err := CombinedOdds(legs)
	if err != nil {
		return Pricing{}, err
	}
	dec, err := CombinedDecimal(legs)
	if err != nil {
		return Pricing{}, err
	}
	payout, err := odds.PayoutFromDecimal(stake, dec)
	if err != nil {
		return Pricing{}, err
	}

	return Pricing{
		AmericanOdds:       american,
		DecimalOdds:        dec,
		ImpliedProbability: 1 / dec,
		Stake:              stake,
		Payout:             payout,
		Profit:             payout - stake,
	}, nil
}
