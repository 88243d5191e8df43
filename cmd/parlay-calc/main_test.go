package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/parlay-slip/internal/models"
)

func TestRunPrice(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runPrice(&out, []string{"-110", "+150"}, 10))

	assert.Contains(t, out.String(), "Odds:       +377 (4.7727)")
	assert.Contains(t, out.String(), "Payout:     47.73")
	assert.Contains(t, out.String(), "Profit:     37.73")
}

func TestRunConvert(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runConvert(&out, "-200", false))
	assert.Contains(t, out.String(), "Decimal:  1.5000")
	assert.Contains(t, out.String(), "Implied:  66.67%")

	out.Reset()
	require.NoError(t, runConvert(&out, "3.0", true))
	assert.Contains(t, out.String(), "American: +200")

	assert.ErrorIs(t, runConvert(&out, "abc", true), models.ErrInvalidOdds)
	assert.ErrorIs(t, runConvert(&out, "0", false), models.ErrInvalidOdds)
}

func TestRunRoundRobin(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runRoundRobin(&out, []string{"-110", "+150", "+200"}, 2, 5))

	assert.Contains(t, out.String(), "1+2")
	assert.Contains(t, out.String(), "2+3")
	assert.Contains(t, out.String(), "Combinations: 3")
	assert.Contains(t, out.String(), "Total stake:  15.00")

	assert.ErrorIs(t, runRoundRobin(&out, []string{"-110"}, 2, 5), models.ErrInvalidComboSize)
}

func TestRunEV(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runEV(&out, "+150", 0.5))
	assert.Contains(t, out.String(), "+0.2500 (positive)")

	assert.ErrorIs(t, runEV(&out, "+150", 1.5), models.ErrInvalidProbability)
}
