package parlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/parlay-slip/internal/models"
)

func TestNormalizeSuggestionLeg(t *testing.T) {
	line := 24.5
	in := models.SuggestionLeg{
		ID:         "s1",
		GameID:     "game-9",
		Odds:       "+125",
		Confidence: 71,
		Sport:      "NBA",
		Market:     "player_props",
		PlayerName: "Jalen Brunson",
		StatType:   "Points",
		Line:       &line,
	}

	got, err := NormalizeSuggestionLeg(in)
	require.NoError(t, err)
	assert.Equal(t, "game-9", got.EventID)
	assert.Equal(t, "player_props|jalen brunson|points", got.MarketID)
	assert.Equal(t, 125, got.Odds)
	require.NotNil(t, got.Confidence)
	assert.Equal(t, 71.0, *got.Confidence)
	assert.Equal(t, "Jalen Brunson", got.Player)
}

func TestNormalizeSuggestionLegFallbacks(t *testing.T) {
	got, err := NormalizeSuggestionLeg(models.SuggestionLeg{
		ID:    "s2",
		Odds:  "-110",
		Teams: &models.MatchupTeams{Home: "BOS", Away: "NYK"},
	})
	require.NoError(t, err)
	assert.Equal(t, "nyk@bos", got.EventID)
	assert.Equal(t, "leg:s2", got.MarketID)
	assert.Nil(t, got.Confidence)

	got, err = NormalizeSuggestionLeg(models.SuggestionLeg{ID: "s3", Odds: "200"})
	require.NoError(t, err)
	assert.Equal(t, "leg:s3", got.EventID)
}

func TestNormalizeSuggestionRejectsBadOdds(t *testing.T) {
	_, err := NormalizeSuggestion(models.ParlaySuggestion{
		ID:   "p1",
		Legs: []models.SuggestionLeg{{ID: "a", Odds: "+150"}, {ID: "b", Odds: "even"}},
	})
	assert.ErrorIs(t, err, models.ErrInvalidOdds)
}
