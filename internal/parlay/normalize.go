package parlay

import (
	"fmt"
	"strings"

	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/odds"
)

// NormalizeSuggestionLeg converts a feed leg into a canonical Leg. The event
// is the game id when present, else the matchup, else the leg itself. The
// market is built from market, player and stat so alternate lines on the
// same prop collapse to one selection.
func NormalizeSuggestionLeg(in models.SuggestionLeg) (models.Leg, error) {
	american, err := odds.ParseOdds(in.Odds)
	if err != nil {
		return models.Leg{}, fmt.Errorf("suggestion leg %q: %w", in.ID, err)
	}

	player := firstNonEmpty(in.Player, in.PlayerName)
	leg := models.Leg{
		ID:          in.ID,
		EventID:     eventIDFor(in),
		MarketID:    marketIDFor(in, player),
		Odds:        american,
		Description: in.Description,
		Player:      player,
		Sport:       in.Sport,
		Line:        in.Line,
	}
	if in.Confidence > 0 {
		confidence := in.Confidence
		leg.Confidence = &confidence
	}

	if err := leg.Validate(); err != nil {
		return models.Leg{}, err
	}
	return leg, nil
}

// NormalizeSuggestion converts every leg of a suggestion, preserving order
func NormalizeSuggestion(s models.ParlaySuggestion) ([]models.Leg, error) {
	legs := make([]models.Leg, 0, len(s.Legs))
	for _, in := range s.Legs {
		leg, err := NormalizeSuggestionLeg(in)
		if err != nil {
			return nil, fmt.Errorf("suggestion %q: %w", s.ID, err)
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

func eventIDFor(in models.SuggestionLeg) string {
	if in.GameID != "" {
		return in.GameID
	}
	if in.Teams != nil && in.Teams.Home != "" && in.Teams.Away != "" {
		return strings.ToLower(in.Teams.Away + "@" + in.Teams.Home)
	}
	return "leg:" + in.ID
}

func marketIDFor(in models.SuggestionLeg, player string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{in.Market, player, firstNonEmpty(in.Stat, in.StatType)} {
		if p != "" {
			parts = append(parts, strings.ToLower(p))
		}
	}
	if len(parts) == 0 {
		return "leg:" + in.ID
	}
	return strings.Join(parts, "|")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
