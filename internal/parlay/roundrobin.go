package parlay

import (
	"fmt"
	"math"

	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/odds"
)

const maxPrealloc = 4096

// Combination is one priced k-leg parlay of a round robin
type Combination struct {
	// Indices are the positions of Legs in the pool, ascending.
	Indices      []int        `json:"indices"`
	Legs         []models.Leg `json:"legs"`
	CombinedOdds float64      `json:"combinedOdds"`
	Stake        float64      `json:"stake"`
	Payout       float64      `json:"payout"`
}

// RoundRobinSummary totals a set of combinations
type RoundRobinSummary struct {
	Combinations int     `json:"combinations"`
	TotalStake   float64 `json:"totalStake"`
	// MaxReturn is the total payout when every leg in the pool wins.
	MaxReturn  float64 `json:"maxReturn"`
	BestPayout float64 `json:"bestPayout"`
}

// Binomial returns C(n, k), saturating at math.MaxInt
func Binomial(n, k int) int {
	if k < 0 || n < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1
	for i := 0; i < k; i++ {
		// result*(n-i) is always divisible by (i+1) at this point
		if result > math.MaxInt/(n-i) {
			return math.MaxInt
		}
		result = result * (n - i) / (i + 1)
	}
	return result
}

// RoundRobin enumerates every k-leg subset of pool in lexicographic index
// order and prices each at stakePerCombo. The result has exactly
// Binomial(len(pool), k) entries. No cap is applied; callers bound the pool.
func RoundRobin(pool []models.Leg, k int, stakePerCombo float64) ([]Combination, error) {
	if math.IsNaN(stakePerCombo) || stakePerCombo < 0 {
		return nil, fmt.Errorf("%w: stake per combination must be >= 0, got %v", models.ErrInvalidStake, stakePerCombo)
	}
	return generate(pool, k, func([]models.Leg) float64 { return stakePerCombo })
}

// RoundRobinWithOverrides behaves like RoundRobin but honors per-leg stake
// overrides: a combination is staked at the smallest SelectedStake among its
// legs, or defaultStake when none of its legs carries one.
func RoundRobinWithOverrides(pool []models.Leg, k int, defaultStake float64) ([]Combination, error) {
	if math.IsNaN(defaultStake) || defaultStake < 0 {
		return nil, fmt.Errorf("%w: default stake must be >= 0, got %v", models.ErrInvalidStake, defaultStake)
	}
	for _, leg := range pool {
		if leg.SelectedStake != nil && (*leg.SelectedStake < 0 || math.IsNaN(*leg.SelectedStake)) {
			return nil, fmt.Errorf("leg %q: %w: override must be >= 0", leg.ID, models.ErrInvalidStake)
		}
	}

	return generate(pool, k, func(legs []models.Leg) float64 {
		stake := math.Inf(1)
		for _, leg := range legs {
			if leg.SelectedStake != nil && *leg.SelectedStake < stake {
				stake = *leg.SelectedStake
			}
		}
		if math.IsInf(stake, 1) {
			return defaultStake
		}
		return stake
	})
}

func generate(pool []models.Leg, k int, stakeFor func([]models.Leg) float64) ([]Combination, error) {
	n := len(pool)
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: size %d for a pool of %d legs", models.ErrInvalidComboSize, k, n)
	}

	decimals := make([]float64, n)
	for i, leg := range pool {
		dec, err := odds.AmericanToDecimal(leg.Odds)
		if err != nil {
			return nil, fmt.Errorf("leg %q: %w", leg.ID, err)
		}
		decimals[i] = dec
	}

	capacity := Binomial(n, k)
	if capacity > maxPrealloc {
		capacity = maxPrealloc
	}
	combos := make([]Combination, 0, capacity)
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	for {
		legs := make([]models.Leg, k)
		indices := make([]int, k)
		product := 1.0
		for j, i := range idx {
			legs[j] = pool[i]
			indices[j] = i
			product *= decimals[i]
		}
		stake := stakeFor(legs)
		combos = append(combos, Combination{
			Indices:      indices,
			Legs:         legs,
			CombinedOdds: product,
			Stake:        stake,
			Payout:       stake * product,
		})

		// Advance to the next subset: find the rightmost index that can move.
		pos := k - 1
		for pos >= 0 && idx[pos] == n-k+pos {
			pos--
		}
		if pos < 0 {
			break
		}
		idx[pos]++
		for j := pos + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}

	return combos, nil
}

// Summarize totals stake and returns across combos
func Summarize(combos []Combination) RoundRobinSummary {
	summary := RoundRobinSummary{Combinations: len(combos)}
	for _, c := range combos {
		summary.TotalStake += c.Stake
		summary.MaxReturn += c.Payout
		if c.Payout > summary.BestPayout {
			summary.BestPayout = c.Payout
		}
	}
	return summary
}
