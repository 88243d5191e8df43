package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/parlay-slip/internal/betslip"
	"github.com/yourusername/parlay-slip/internal/feed"
	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/odds"
	"github.com/yourusername/parlay-slip/internal/parlay"
	"github.com/yourusername/parlay-slip/internal/service"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// LegView is a leg with its odds formatted for display
type LegView struct {
	models.Leg
	DisplayOdds string `json:"displayOdds"`
}

// SlipView is a session's slip as returned by the API. Money fields are
// rounded to cents.
type SlipView struct {
	SessionID       string           `json:"sessionId"`
	Status          betslip.Status   `json:"status"`
	ID              string           `json:"id,omitempty"`
	Legs            []LegView        `json:"legs"`
	TotalStake      *decimal.Decimal `json:"totalStake,omitempty"`
	TotalOdds       int              `json:"totalOdds,omitempty"`
	DisplayOdds     string           `json:"displayOdds,omitempty"`
	TotalDecimal    float64          `json:"totalDecimal,omitempty"`
	PotentialPayout *decimal.Decimal `json:"potentialPayout,omitempty"`
	CreatedAt       *time.Time       `json:"createdAt,omitempty"`
}

func newSlipView(sessionID string, st betslip.State) SlipView {
	view := SlipView{SessionID: sessionID, Status: st.Status(), Legs: []LegView{}}
	if st.Slip == nil {
		return view
	}

	slip := st.Slip
	stake := odds.RoundCents(slip.TotalStake)
	payout := odds.RoundCents(slip.PotentialPayout)
	created := slip.CreatedAt

	view.ID = slip.ID
	view.Legs = legViews(slip.Legs)
	view.TotalStake = &stake
	view.TotalOdds = slip.TotalOdds
	view.DisplayOdds = odds.FormatOdds(slip.TotalOdds)
	view.TotalDecimal = slip.TotalDecimal
	view.PotentialPayout = &payout
	view.CreatedAt = &created
	return view
}

func newSerializedView(sessionID string, s *models.SerializedSlip) SlipView {
	if s == nil {
		return SlipView{SessionID: sessionID, Status: betslip.StatusEmpty, Legs: []LegView{}}
	}
	stake := odds.RoundCents(s.TotalStake)
	payout := odds.RoundCents(s.PotentialPayout)
	created := s.CreatedAt
	dec, _ := odds.AmericanToDecimal(s.TotalOdds)
	return SlipView{
		SessionID:       sessionID,
		Status:          betslip.StatusActive,
		ID:              s.ID,
		Legs:            legViews(s.Legs),
		TotalStake:      &stake,
		TotalOdds:       s.TotalOdds,
		DisplayOdds:     odds.FormatOdds(s.TotalOdds),
		TotalDecimal:    dec,
		PotentialPayout: &payout,
		CreatedAt:       &created,
	}
}

func legViews(legs []models.Leg) []LegView {
	out := make([]LegView, len(legs))
	for i, leg := range legs {
		out[i] = LegView{Leg: leg, DisplayOdds: odds.FormatOdds(leg.Odds)}
	}
	return out
}

// RejectedLeg names a leg of a batch that was not added
type RejectedLeg struct {
	LegID  string `json:"legId"`
	Reason string `json:"reason"`
}

// BatchView is the result of adding a suggestion or template
type BatchView struct {
	Slip     SlipView      `json:"slip"`
	Added    []string      `json:"added"`
	Rejected []RejectedLeg `json:"rejected"`
}

func newBatchView(sessionID string, result service.BatchResult) BatchView {
	view := BatchView{
		Slip:     newSlipView(sessionID, result.State),
		Added:    result.Added,
		Rejected: make([]RejectedLeg, 0, len(result.Rejected)),
	}
	if view.Added == nil {
		view.Added = []string{}
	}
	for _, r := range result.Rejected {
		view.Rejected = append(view.Rejected, RejectedLeg{LegID: r.LegID, Reason: r.Err.Error()})
	}
	return view
}

// CombinationView is one round-robin parlay
type CombinationView struct {
	LegIDs      []string        `json:"legIds"`
	DecimalOdds float64         `json:"decimalOdds"`
	DisplayOdds string          `json:"displayOdds"`
	Stake       decimal.Decimal `json:"stake"`
	Payout      decimal.Decimal `json:"payout"`
}

// RoundRobinView is a round-robin breakdown with totals
type RoundRobinView struct {
	Size         int               `json:"size"`
	Combinations []CombinationView `json:"combinations"`
	Count        int               `json:"count"`
	TotalStake   decimal.Decimal   `json:"totalStake"`
	MaxReturn    decimal.Decimal   `json:"maxReturn"`
	BestPayout   decimal.Decimal   `json:"bestPayout"`
}

func newRoundRobinView(result service.RoundRobinResult) RoundRobinView {
	view := RoundRobinView{
		Size:         result.Size,
		Combinations: make([]CombinationView, 0, len(result.Combinations)),
		Count:        result.Summary.Combinations,
		TotalStake:   odds.RoundCents(result.Summary.TotalStake),
		MaxReturn:    odds.RoundCents(result.Summary.MaxReturn),
		BestPayout:   odds.RoundCents(result.Summary.BestPayout),
	}
	for _, c := range result.Combinations {
		view.Combinations = append(view.Combinations, newCombinationView(c))
	}
	return view
}

func newCombinationView(c parlay.Combination) CombinationView {
	ids := make([]string, len(c.Legs))
	for i, leg := range c.Legs {
		ids[i] = leg.ID
	}
	display := ""
	if american, err := odds.DecimalToAmerican(c.CombinedOdds); err == nil {
		display = odds.FormatOdds(american)
	}
	return CombinationView{
		LegIDs:      ids,
		DecimalOdds: c.CombinedOdds,
		DisplayOdds: display,
		Stake:       odds.RoundCents(c.Stake),
		Payout:      odds.RoundCents(c.Payout),
	}
}

// statusFor maps engine errors onto HTTP status codes. Selection rejections
// are conflicts with the slip's current legs; malformed values are 422.
func statusFor(err error) int {
	switch {
	case models.IsRejection(err), errors.Is(err, models.ErrEmptySlip):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidSession):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrLegNotFound),
		errors.Is(err, models.ErrNotFound),
		errors.Is(err, feed.ErrSuggestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidOdds),
		errors.Is(err, models.ErrInvalidStake),
		errors.Is(err, models.ErrInvalidProbability),
		errors.Is(err, models.ErrInvalidLeg),
		errors.Is(err, models.ErrInvalidOrder),
		errors.Is(err, models.ErrInvalidComboSize),
		errors.Is(err, models.ErrInvalidTemplate),
		errors.Is(err, service.ErrPoolTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, feed.ErrCircuitOpen), errors.Is(err, service.ErrNoSuggestions):
		return http.StatusServiceUnavailable
	case errors.Is(err, feed.ErrFeedUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("status", status).Error(message)
	}
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// fail reports an engine error with its mapped status
func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	h.respondError(w, status, message, err)
}
