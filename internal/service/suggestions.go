package service

import (
	"context"

	"github.com/yourusername/parlay-slip/internal/betslip"
	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/parlay"
)

// LegRejection reports one leg that could not be added
type LegRejection struct {
	LegID string `json:"legId"`
	Err   error  `json:"-"`
}

// BatchResult is the outcome of adding several legs at once
type BatchResult struct {
	State    betslip.State
	Added    []string
	Rejected []LegRejection
}

// AddSuggestion adds every leg of a feed suggestion to the slip in order.
// Each leg goes through the same validation as a manual add; legs that
// fail are reported and the rest are kept.
func (s *Service) AddSuggestion(ctx context.Context, sessionID string, suggestion models.ParlaySuggestion) (BatchResult, error) {
	var result BatchResult
	err := s.withSession(ctx, sessionID, func(sess *session) error {
		result = s.addAll(sessionID, sess, suggestionLegs(suggestion))
		return nil
	})
	return result, err
}

// AddSuggestionByID looks the suggestion up in the feed and adds it
func (s *Service) AddSuggestionByID(ctx context.Context, sessionID, sport, suggestionID string) (BatchResult, error) {
	if s.suggestions == nil {
		return BatchResult{}, ErrNoSuggestions
	}
	suggestion, err := s.suggestions.Suggestion(ctx, sport, suggestionID)
	if err != nil {
		return BatchResult{}, err
	}
	return s.AddSuggestion(ctx, sessionID, *suggestion)
}

type candidate struct {
	id  string
	leg models.Leg
	err error
}

func suggestionLegs(suggestion models.ParlaySuggestion) []candidate {
	out := make([]candidate, 0, len(suggestion.Legs))
	for _, in := range suggestion.Legs {
		leg, err := parlay.NormalizeSuggestionLeg(in)
		out = append(out, candidate{id: in.ID, leg: leg, err: err})
	}
	return out
}

func (s *Service) addAll(sessionID string, sess *session, legs []candidate) BatchResult {
	var result BatchResult
	for _, c := range legs {
		if c.err != nil {
			s.metrics.RecordRejection(betslip.AddLeg{}.Name(), reasonLabel(c.err))
			result.Rejected = append(result.Rejected, LegRejection{LegID: c.id, Err: c.err})
			continue
		}
		if _, err := s.dispatch(sessionID, sess, betslip.AddLeg{Leg: c.leg}); err != nil {
			result.Rejected = append(result.Rejected, LegRejection{LegID: c.id, Err: err})
			continue
		}
		result.Added = append(result.Added, c.id)
	}
	result.State = sess.machine.Snapshot()
	return result
}
