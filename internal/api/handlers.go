// Package api serves the bet slip over HTTP and streams slip snapshots over
// websockets.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/parlay-slip/internal/feed"
	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/odds"
	"github.com/yourusername/parlay-slip/internal/parlay"
	"github.com/yourusername/parlay-slip/internal/service"
)

const (
	maxBodyBytes   = 1 << 20
	requestTimeout = 10 * time.Second
)

// SuggestionLister returns the leading suggestions for a sport
type SuggestionLister interface {
	Top(ctx context.Context, sport string, n int) ([]models.ParlaySuggestion, error)
}

// Handler holds the dependencies of the HTTP handlers
type Handler struct {
	slips       *service.Service
	suggestions SuggestionLister
	log         *logrus.Entry
	validate    *validator.Validate
	upgrader    websocket.Upgrader
}

// NewHandler creates a handler. suggestions may be nil when no feed is
// configured.
func NewHandler(slips *service.Service, suggestions SuggestionLister, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{
		slips:       slips,
		suggestions: suggestions,
		log:         log.WithField("component", "api"),
		validate:    validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

type stakeRequest struct {
	Amount *float64 `json:"amount" validate:"required"`
}

type orderRequest struct {
	LegIDs []string `json:"legIds" validate:"required"`
}

type templateRequest struct {
	Name string   `json:"name" validate:"required,max=255"`
	Tags []string `json:"tags"`
}

// decode reads a JSON body into dst and runs struct validation
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, validationMessage(err), nil)
		return false
	}
	return true
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func sessionParam(r *http.Request) string {
	return chi.URLParam(r, "session")
}

func parseIntParam(r *http.Request, param string, defaultValue int) (int, error) {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(valueStr)
}

// GetSlip returns the session's slip
func (h *Handler) GetSlip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session := sessionParam(r)
	st, err := h.slips.Snapshot(ctx, session)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSlipView(session, st))
}

// AddLeg validates and appends a leg
func (h *Handler) AddLeg(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var leg models.Leg
	if !h.decode(w, r, &leg) {
		return
	}

	session := sessionParam(r)
	st, err := h.slips.AddLeg(ctx, session, leg)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newSlipView(session, st))
}

// RemoveLeg drops a leg from the slip
func (h *Handler) RemoveLeg(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session := sessionParam(r)
	st, err := h.slips.RemoveLeg(ctx, session, chi.URLParam(r, "legID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSlipView(session, st))
}

// ClearSlip empties the slip
func (h *Handler) ClearSlip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session := sessionParam(r)
	st, err := h.slips.Clear(ctx, session)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSlipView(session, st))
}

// SetTotalStake changes the slip stake
func (h *Handler) SetTotalStake(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req stakeRequest
	if !h.decode(w, r, &req) {
		return
	}

	session := sessionParam(r)
	st, err := h.slips.SetTotalStake(ctx, session, *req.Amount)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSlipView(session, st))
}

// SetLegStake sets one leg's stake override
func (h *Handler) SetLegStake(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req stakeRequest
	if !h.decode(w, r, &req) {
		return
	}

	session := sessionParam(r)
	st, err := h.slips.SetLegStake(ctx, session, chi.URLParam(r, "legID"), *req.Amount)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSlipView(session, st))
}

// ReorderLegs rearranges the slip's legs
func (h *Handler) ReorderLegs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req orderRequest
	if !h.decode(w, r, &req) {
		return
	}

	session := sessionParam(r)
	st, err := h.slips.Reorder(ctx, session, req.LegIDs)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSlipView(session, st))
}

// AddSuggestion adds every leg of a feed suggestion
// Query params: sport (default all)
func (h *Handler) AddSuggestion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sport := r.URL.Query().Get("sport")
	if sport == "" {
		sport = feed.AllSports
	}

	session := sessionParam(r)
	result, err := h.slips.AddSuggestionByID(ctx, session, sport, chi.URLParam(r, "suggestionID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newBatchView(session, result))
}

// ListSuggestions returns the feed's leading suggestions
// Query params: sport (default all), limit (default 3)
func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if h.suggestions == nil {
		h.fail(w, service.ErrNoSuggestions)
		return
	}

	sport := r.URL.Query().Get("sport")
	if sport == "" {
		sport = feed.AllSports
	}
	limit, err := parseIntParam(r, "limit", feed.DefaultTop)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "limit must be an integer", nil)
		return
	}

	suggestions, err := h.suggestions.Top(ctx, sport, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport":       sport,
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// RoundRobin prices every size-leg combination of the slip
// Query params: size (required), stake (optional; per-leg overrides otherwise)
func (h *Handler) RoundRobin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "size must be an integer", nil)
		return
	}

	var stake *float64
	if raw := r.URL.Query().Get("stake"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "stake must be a number", nil)
			return
		}
		stake = &v
	}

	result, err := h.slips.RoundRobin(ctx, sessionParam(r), size, stake)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newRoundRobinView(result))
}

type priceLeg struct {
	ID       string `json:"id"`
	EventID  string `json:"eventId"`
	MarketID string `json:"marketId"`
	Odds     string `json:"odds" validate:"required"`
}

type priceRequest struct {
	Legs        []priceLeg `json:"legs" validate:"required,min=1,dive"`
	Stake       float64    `json:"stake" validate:"gte=0"`
	Probability *float64   `json:"probability,omitempty" validate:"omitempty,gt=0,lt=1"`
}

// PriceResponse is the price of an ad hoc leg set
type PriceResponse struct {
	parlay.Pricing
	DisplayOdds       string          `json:"displayOdds"`
	PayoutCents       decimal.Decimal `json:"payoutCents"`
	BreakEven         float64         `json:"breakEvenProbability"`
	CorrelationFactor float64         `json:"correlationFactor"`
	ExpectedValue     *float64        `json:"expectedValue,omitempty"`
}

// PriceOdds prices a leg set without touching any slip
func (h *Handler) PriceOdds(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if !h.decode(w, r, &req) {
		return
	}

	legs := make([]models.Leg, len(req.Legs))
	for i, in := range req.Legs {
		american, err := odds.ParseOdds(in.Odds)
		if err != nil {
			h.fail(w, err)
			return
		}
		fallback := fmt.Sprintf("leg-%d", i+1)
		legs[i] = models.Leg{
			ID:       firstNonEmpty(in.ID, fallback),
			EventID:  firstNonEmpty(in.EventID, fallback),
			MarketID: firstNonEmpty(in.MarketID, fallback),
			Odds:     american,
		}
	}

	pricing, err := parlay.Price(legs, req.Stake)
	if err != nil {
		h.fail(w, err)
		return
	}
	breakEven, err := parlay.BreakEvenProbability(legs)
	if err != nil {
		h.fail(w, err)
		return
	}

	resp := PriceResponse{
		Pricing:           pricing,
		DisplayOdds:       odds.FormatOdds(pricing.AmericanOdds),
		PayoutCents:       odds.RoundCents(pricing.Payout),
		BreakEven:         breakEven,
		CorrelationFactor: parlay.CorrelationFactor(legs),
	}
	if req.Probability != nil {
		ev, err := parlay.ExpectedValue(*req.Probability, pricing.AmericanOdds)
		if err != nil {
			h.fail(w, err)
			return
		}
		resp.ExpectedValue = &ev
	}
	respondJSON(w, http.StatusOK, resp)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ListTemplates returns saved templates, newest first
// Query params: limit (default 50)
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	limit, err := parseIntParam(r, "limit", 50)
	if err != nil || limit <= 0 {
		h.respondError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
		return
	}
	if limit > 500 {
		limit = 500
	}

	templates, err := h.slips.ListTemplates(ctx, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	if templates == nil {
		templates = []*models.ParlayTemplate{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	})
}

// SaveTemplate stores the session's legs as a named template
func (h *Handler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req templateRequest
	if !h.decode(w, r, &req) {
		return
	}

	template, err := h.slips.SaveTemplate(ctx, sessionParam(r), req.Name, req.Tags)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, template)
}

// ApplyTemplate replaces the session's slip with a template's legs
func (h *Handler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, ok := h.templateID(w, r)
	if !ok {
		return
	}

	session := sessionParam(r)
	result, err := h.slips.ApplyTemplate(ctx, session, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newBatchView(session, result))
}

// DeleteTemplate removes a saved template
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, ok := h.templateID(w, r)
	if !ok {
		return
	}
	if err := h.slips.DeleteTemplate(ctx, id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) templateID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "template id must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
