// Package odds converts between American and decimal odds and computes
// payout arithmetic. All functions are pure.
package odds

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yourusername/parlay-slip/internal/models"
)

// MinDecimal is the smallest decimal price that converts to American odds
const MinDecimal = 1.01

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -110 → Decimal 1.909...
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("%w: American odds cannot be 0", models.ErrInvalidOdds)
	}
	if american > 0 {
		return 1 + float64(american)/100, nil
	}
	return 1 + 100/float64(-american), nil
}

// DecimalToAmerican converts decimal odds to American odds, rounding to the
// nearest integer.
// Decimal 2.50 → American +150
// Decimal 1.91 → American -110
func DecimalToAmerican(dec float64) (int, error) {
	if math.IsNaN(dec) || math.IsInf(dec, 0) || dec < MinDecimal {
		return 0, fmt.Errorf("%w: decimal odds must be at least %.2f, got %v", models.ErrInvalidOdds, MinDecimal, dec)
	}
	if dec >= 2 {
		return int(math.Round((dec - 1) * 100)), nil
	}
	return int(math.Round(-100 / (dec - 1))), nil
}

// ImpliedProbability returns the no-margin win probability implied by
// American odds, in (0,1).
func ImpliedProbability(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("%w: American odds cannot be 0", models.ErrInvalidOdds)
	}
	if american > 0 {
		return 100 / float64(american+100), nil
	}
	abs := float64(-american)
	return abs / (abs + 100), nil
}

// DecimalFromProbability returns the fair decimal price for a probability
func DecimalFromProbability(p float64) (float64, error) {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return 0, fmt.Errorf("%w: must be between 0 and 1, got %v", models.ErrInvalidProbability, p)
	}
	return 1 / p, nil
}

// Payout returns the total return (stake included) of a winning bet
func Payout(stake float64, american int) (float64, error) {
	dec, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}
	return PayoutFromDecimal(stake, dec)
}

// PayoutFromDecimal returns stake × dec for an already converted price
func PayoutFromDecimal(stake, dec float64) (float64, error) {
	if math.IsNaN(stake) || stake < 0 {
		return 0, fmt.Errorf("%w: stake must be >= 0, got %v", models.ErrInvalidStake, stake)
	}
	if math.IsNaN(dec) || dec < 1 {
		return 0, fmt.Errorf("%w: decimal odds must be >= 1, got %v", models.ErrInvalidOdds, dec)
	}
	return stake * dec, nil
}

// Profit returns payout minus stake
func Profit(stake float64, american int) (float64, error) {
	payout, err := Payout(stake, american)
	if err != nil {
		return 0, err
	}
	return payout - stake, nil
}

// FormatOdds renders American odds for display. Positive odds get a
// leading '+'.
func FormatOdds(american int) string {
	if american > 0 {
		return "+" + strconv.Itoa(american)
	}
	return strconv.Itoa(american)
}

// ParseOdds parses a display string such as "+150" or "-110"
func ParseOdds(s string) (int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "+")
	american, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot parse %q", models.ErrInvalidOdds, s)
	}
	if american == 0 {
		return 0, fmt.Errorf("%w: American odds cannot be 0", models.ErrInvalidOdds)
	}
	return american, nil
}

// RoundCents rounds a money amount to cents for storage and display
func RoundCents(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(2)
}
