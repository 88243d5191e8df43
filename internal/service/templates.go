package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yourusername/parlay-slip/internal/betslip"
	"github.com/yourusername/parlay-slip/internal/models"
)

// SaveTemplate stores the session's current legs as a named template
func (s *Service) SaveTemplate(ctx context.Context, sessionID, name string, tags []string) (*models.ParlayTemplate, error) {
	var legs []models.Leg
	var totalOdds int
	err := s.withSession(ctx, sessionID, func(sess *session) error {
		st := sess.machine.Snapshot()
		if st.Slip == nil {
			return models.ErrEmptySlip
		}
		legs, totalOdds = st.Slip.Legs, st.Slip.TotalOdds
		return nil
	})
	if err != nil {
		return nil, err
	}

	template := &models.ParlayTemplate{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Legs:      legs,
		TotalOdds: totalOdds,
		Bookmaker: commonBookmaker(legs),
		Tags:      tags,
		CreatedAt: s.now().UTC(),
	}
	if err := template.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidTemplate, err)
	}
	if err := s.templates.Create(ctx, template); err != nil {
		return nil, err
	}

	s.audit.LogTemplateSaved(template.ID.String(), template.Name, len(template.Legs), template.TotalOdds)
	return template, nil
}

// ApplyTemplate replaces the session's slip with the template's legs. Legs
// that no longer validate are reported and skipped.
func (s *Service) ApplyTemplate(ctx context.Context, sessionID string, templateID uuid.UUID) (BatchResult, error) {
	template, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return BatchResult{}, err
	}

	candidates := make([]candidate, 0, len(template.Legs))
	for _, leg := range template.Legs {
		candidates = append(candidates, candidate{id: leg.ID, leg: leg})
	}

	var result BatchResult
	err = s.withSession(ctx, sessionID, func(sess *session) error {
		if _, err := s.dispatch(sessionID, sess, betslip.Clear{}); err != nil {
			return err
		}
		result = s.addAll(sessionID, sess, candidates)
		return nil
	})
	return result, err
}

// ListTemplates returns saved templates, newest first
func (s *Service) ListTemplates(ctx context.Context, limit int) ([]*models.ParlayTemplate, error) {
	return s.templates.List(ctx, limit)
}

// DeleteTemplate removes a saved template
func (s *Service) DeleteTemplate(ctx context.Context, templateID uuid.UUID) error {
	if err := s.templates.Delete(ctx, templateID); err != nil {
		return err
	}
	s.audit.LogTemplateDeleted(templateID.String())
	return nil
}

func commonBookmaker(legs []models.Leg) string {
	if len(legs) == 0 {
		return ""
	}
	name := legs[0].Bookmaker
	for _, leg := range legs[1:] {
		if leg.Bookmaker != name {
			return ""
		}
	}
	return name
}
