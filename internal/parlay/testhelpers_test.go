package parlay

import "github.com/yourusername/parlay-slip/internal/models"

func leg(id, eventID, marketID string, american int) models.Leg {
	return models.Leg{ID: id, EventID: eventID, MarketID: marketID, Odds: american}
}
