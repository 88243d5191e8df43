package parlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/odds"
)

func TestCombinedOddsWorkedExample(t *testing.T) {
	legs := []models.Leg{
		leg("l1", "A", "ml", -110),
		leg("l2", "B", "ml", 150),
	}

	dec, err := CombinedDecimal(legs)
	require.NoError(t, err)
	assert.InDelta(t, 4.7727, dec, 1e-4)

	american, err := CombinedOdds(legs)
	require.NoError(t, err)
	assert.Equal(t, 377, american)

	pricing, err := Price(legs, 10)
	require.NoError(t, err)
	assert.Equal(t, "47.73", odds.RoundCents(pricing.Payout).StringFixed(2))
	assert.InDelta(t, pricing.Payout-10, pricing.Profit, 1e-9)
	assert.InDelta(t, 1/dec, pricing.ImpliedProbability, 1e-12)
}

func TestCombinedOddsSingleLegIdentity(t *testing.T) {
	for _, american := range []int{-110, 150, -100, 100, -20000, 99999, -101} {
		got, err := CombinedOdds([]models.Leg{leg("x", "e", "m", american)})
		require.NoError(t, err)
		assert.Equal(t, american, got)
	}
}

func TestCombinedOddsMultiplicative(t *testing.T) {
	legs := []models.Leg{
		leg("a", "e1", "m", -110),
		leg("b", "e2", "m", -110),
		leg("c", "e3", "m", 200),
		leg("d", "e4", "m", -250),
	}

	want := 1.0
	for _, l := range legs {
		dec, err := odds.AmericanToDecimal(l.Odds)
		require.NoError(t, err)
		want *= dec
	}

	got, err := CombinedDecimal(legs)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)

	american, err := CombinedOdds(legs)
	require.NoError(t, err)
	back, err := odds.AmericanToDecimal(american)
	require.NoError(t, err)
	// American odds are integers, so the round trip is exact to within one unit of the price.
	assert.InDelta(t, want, back, 0.01)
}

func TestCombinedOddsEmpty(t *testing.T) {
	_, err := CombinedOdds(nil)
	assert.ErrorIs(t, err, models.ErrEmptySlip)

	_, err = CombinedDecimal([]models.Leg{})
	assert.ErrorIs(t, err, models.ErrEmptySlip)

	_, err = BreakEvenProbability(nil)
	assert.ErrorIs(t, err, models.ErrEmptySlip)
}

func TestCombinedOddsInvalidLeg(t *testing.T) {
	_, err := CombinedOdds([]models.Leg{leg("z", "e", "m", 0)})
	assert.ErrorIs(t, err, models.ErrInvalidOdds)

	_, err = CombinedOdds([]models.Leg{leg("a", "e", "m", 150), leg("z", "f", "m", 0)})
	assert.ErrorIs(t, err, models.ErrInvalidOdds)
}

func TestCombinedOddsIsIdempotent(t *testing.T) {
	legs := []models.Leg{leg("a", "e1", "m", -115), leg("b", "e2", "m", 130)}
	first, err := CombinedOdds(legs)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := CombinedOdds(legs)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExpectedValue(t *testing.T) {
	ev, err := ExpectedValue(0.5, 150)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, ev, 1e-9)

	ev, err = ExpectedValue(0.5, -110)
	require.NoError(t, err)
	assert.Less(t, ev, 0.0)

	_, err = ExpectedValue(1.2, 150)
	assert.ErrorIs(t, err, models.ErrInvalidProbability)

	_, err = ExpectedValue(0.5, 0)
	assert.ErrorIs(t, err, models.ErrInvalidOdds)
}

func TestBreakEvenProbability(t *testing.T) {
	p, err := BreakEvenProbability([]models.Leg{leg("a", "e1", "m", 100), leg("b", "e2", "m", 100)})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, p, 1e-12)
}

func TestCorrelationFactor(t *testing.T) {
	assert.Equal(t, 1.0, CorrelationFactor(nil))
	assert.Equal(t, 1.0, CorrelationFactor([]models.Leg{leg("a", "e1", "m", 100)}))

	independent := []models.Leg{leg("a", "e1", "m", 100), leg("b", "e2", "m", 100), leg("c", "e3", "m", 100)}
	assert.Equal(t, 1.0, CorrelationFactor(independent))

	// one of three pairs shares an event
	mixed := []models.Leg{leg("a", "e1", "m1", 100), leg("b", "e1", "m2", 100), leg("c", "e3", "m", 100)}
	assert.InDelta(t, 1+0.5/3, CorrelationFactor(mixed), 1e-12)

	sameGame := []models.Leg{leg("a", "e1", "m1", 100), leg("b", "e1", "m2", 100)}
	assert.Equal(t, 1.5, CorrelationFactor(sameGame))
}

func TestPriceRejectsNegativeStake(t *testing.T) {
	_, err := Price([]models.Leg{leg("a", "e1", "m", 100)}, -5)
	assert.ErrorIs(t, err, models.ErrInvalidStake)
}
