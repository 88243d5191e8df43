// Package service hosts bet slips for many sessions. Each session owns one
// state machine; mutations on a session are serialized while different
// sessions proceed in parallel.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/parlay-slip/internal/betslip"
	"github.com/yourusername/parlay-slip/internal/logger"
	"github.com/yourusername/parlay-slip/internal/metrics"
	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/repository"
)

var (
	ErrPoolTooLarge   = errors.New("round robin pool too large")
	ErrInvalidSession = errors.New("invalid session id")
	ErrNoSuggestions  = errors.New("suggestion source not configured")
)

// SuggestionSource looks up feed suggestions by id
type SuggestionSource interface {
	Suggestion(ctx context.Context, sport, id string) (*models.ParlaySuggestion, error)
}

// Config holds the host-level settings
type Config struct {
	Slip        betslip.Config
	MaxPool     int
	IdleTimeout time.Duration
}

// Dependencies are the collaborators a Service needs. Suggestions and
// Metrics may be nil.
type Dependencies struct {
	Slips       repository.SlipRepository
	Templates   repository.TemplateRepository
	Persister   *Persister
	Suggestions SuggestionSource
	Logger      *logrus.Logger
	Metrics     *metrics.Metrics
}

// Service owns every live session
type Service struct {
	cfg         Config
	slips       repository.SlipRepository
	templates   repository.TemplateRepository
	persister   *Persister
	suggestions SuggestionSource
	log         *logger.SlipLogger
	audit       *logger.AuditLogger
	metrics     *metrics.Metrics
	now         func() time.Time
	newEnv      func() betslip.Env

	mu       sync.Mutex
	sessions map[string]*session

	subs *hub
}

type session struct {
	mu       sync.Mutex
	machine  *betslip.Machine
	loaded   bool
	evicted  bool
	lastUsed time.Time
}

// New creates a service
func New(cfg Config, deps Dependencies) *Service {
	base := deps.Logger
	if base == nil {
		base = discardLogger()
	}
	if cfg.MaxPool <= 0 {
		cfg.MaxPool = 12
	}
	templates := deps.Templates
	if templates == nil {
		templates = repository.NewMemoryTemplateRepository()
	}
	return &Service{
		cfg:         cfg,
		slips:       deps.Slips,
		templates:   templates,
		persister:   deps.Persister,
		suggestions: deps.Suggestions,
		log:         logger.NewSlipLogger(base),
		audit:       logger.NewAuditLogger(base),
		metrics:     deps.Metrics,
		now:         time.Now,
		newEnv:      betslip.DefaultEnv,
		sessions:    make(map[string]*session),
		subs:        newHub(),
	}
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// withSession runs fn holding the session's lock, loading the stored slip
// on first use.
func (s *Service) withSession(ctx context.Context, sessionID string, fn func(*session) error) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	for {
		s.mu.Lock()
		sess, ok := s.sessions[sessionID]
		if !ok {
			sess = &session{machine: betslip.NewMachine(s.cfg.Slip, betslip.WithEnv(s.newEnv()))}
			s.sessions[sessionID] = sess
			s.metrics.SetActiveSessions(len(s.sessions))
		}
		s.mu.Unlock()

		sess.mu.Lock()
		if sess.evicted {
			sess.mu.Unlock()
			continue
		}

		if !sess.loaded {
			if err := s.load(ctx, sessionID, sess); err != nil {
				sess.mu.Unlock()
				s.drop(sessionID, sess)
				return err
			}
		}
		sess.lastUsed = s.now()

		err := fn(sess)
		sess.mu.Unlock()
		return err
	}
}

func (s *Service) load(ctx context.Context, sessionID string, sess *session) error {
	var saved *models.SerializedSlip
	if unsaved, ok := s.unsaved(sessionID); ok {
		saved = unsaved
	} else if s.slips != nil {
		var err error
		saved, err = s.slips.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load slip for session %s: %w", sessionID, err)
		}
	}
	if err := sess.machine.Restore(saved); err != nil {
		s.audit.LogRestoreSkipped(sessionID, err)
	}
	sess.loaded = true
	return nil
}

func (s *Service) unsaved(sessionID string) (*models.SerializedSlip, bool) {
	if s.persister == nil {
		return nil, false
	}
	return s.persister.Unsaved(sessionID)
}

func (s *Service) drop(sessionID string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sessionID] == sess {
		delete(s.sessions, sessionID)
		s.metrics.SetActiveSessions(len(s.sessions))
	}
}

// dispatch applies one event inside a locked session and publishes the result
func (s *Service) dispatch(sessionID string, sess *session, ev betslip.Event) (betslip.State, error) {
	before := sess.machine.Snapshot()
	st, err := sess.machine.Dispatch(ev)
	if err != nil {
		s.log.LogRejection(sessionID, ev.Name(), err)
		s.metrics.RecordRejection(ev.Name(), reasonLabel(err))
		return st, err
	}

	legs, odds, payout := 0, 0, 0.0
	if st.Slip != nil {
		legs, odds, payout = len(st.Slip.Legs), st.Slip.TotalOdds, st.Slip.PotentialPayout
	}
	s.log.LogEvent(sessionID, ev.Name(), legs, odds, payout)
	s.metrics.RecordEvent(ev.Name(), legs)

	if !sameSlip(before, st) {
		s.publish(sessionID, ev.Name(), st)
	}
	return st, nil
}

// publish hands the new snapshot to the persister and subscribers
func (s *Service) publish(sessionID, event string, st betslip.State) {
	var serialized *models.SerializedSlip
	if st.Slip != nil {
		v := st.Slip.Serialize()
		serialized = &v
	}
	if s.persister != nil {
		s.persister.Enqueue(sessionID, serialized)
	}
	s.subs.broadcast(Update{SessionID: sessionID, Event: event, Slip: serialized})
}

func sameSlip(a, b betslip.State) bool {
	if a.Slip == nil || b.Slip == nil {
		return a.Slip == nil && b.Slip == nil
	}
	if a.Slip.ID != b.Slip.ID || a.Slip.TotalStake != b.Slip.TotalStake || len(a.Slip.Legs) != len(b.Slip.Legs) {
		return false
	}
	for i := range a.Slip.Legs {
		if a.Slip.Legs[i].ID != b.Slip.Legs[i].ID || a.Slip.Legs[i].Stake(-1) != b.Slip.Legs[i].Stake(-1) {
			return false
		}
	}
	return true
}

func reasonLabel(err error) string {
	switch {
	case errors.Is(err, models.ErrMaxLegsExceeded):
		return "max_legs"
	case errors.Is(err, models.ErrDuplicateSelection):
		return "duplicate"
	case errors.Is(err, models.ErrCorrelatedSelection):
		return "correlated"
	case errors.Is(err, models.ErrInvalidOdds):
		return "invalid_odds"
	case errors.Is(err, models.ErrInvalidStake):
		return "invalid_stake"
	case errors.Is(err, models.ErrLegNotFound):
		return "leg_not_found"
	case errors.Is(err, models.ErrInvalidOrder):
		return "invalid_order"
	default:
		return "invalid"
	}
}

func (s *Service) apply(ctx context.Context, sessionID string, ev betslip.Event) (betslip.State, error) {
	var st betslip.State
	err := s.withSession(ctx, sessionID, func(sess *session) error {
		var err error
		st, err = s.dispatch(sessionID, sess, ev)
		return err
	})
	return st, err
}

// AddLeg adds a leg to the session's slip
func (s *Service) AddLeg(ctx context.Context, sessionID string, leg models.Leg) (betslip.State, error) {
	return s.apply(ctx, sessionID, betslip.AddLeg{Leg: leg})
}

// RemoveLeg removes a leg; unknown ids leave the slip unchanged
func (s *Service) RemoveLeg(ctx context.Context, sessionID, legID string) (betslip.State, error) {
	return s.apply(ctx, sessionID, betslip.RemoveLeg{LegID: legID})
}

// Clear empties the slip
func (s *Service) Clear(ctx context.Context, sessionID string) (betslip.State, error) {
	return s.apply(ctx, sessionID, betslip.Clear{})
}

// SetTotalStake sets the slip stake
func (s *Service) SetTotalStake(ctx context.Context, sessionID string, amount float64) (betslip.State, error) {
	return s.apply(ctx, sessionID, betslip.SetTotalStake{Amount: amount})
}

// SetLegStake records a per-leg stake override
func (s *Service) SetLegStake(ctx context.Context, sessionID, legID string, amount float64) (betslip.State, error) {
	return s.apply(ctx, sessionID, betslip.SetLegStake{LegID: legID, Amount: amount})
}

// Reorder permutes the slip's legs
func (s *Service) Reorder(ctx context.Context, sessionID string, legIDs []string) (betslip.State, error) {
	return s.apply(ctx, sessionID, betslip.ReorderLegs{LegIDs: legIDs})
}

// Snapshot returns the session's current state
func (s *Service) Snapshot(ctx context.Context, sessionID string) (betslip.State, error) {
	var st betslip.State
	err := s.withSession(ctx, sessionID, func(sess *session) error {
		st = sess.machine.Snapshot()
		return nil
	})
	return st, err
}

// Contains reports whether legID is on the session's slip
func (s *Service) Contains(ctx context.Context, sessionID, legID string) (bool, error) {
	var found bool
	err := s.withSession(ctx, sessionID, func(sess *session) error {
		found = sess.machine.Contains(legID)
		return nil
	})
	return found, err
}

// Sessions returns the number of sessions held in memory
func (s *Service) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle drops sessions unused since before now minus the idle timeout.
// Busy sessions are skipped. Their slips stay in the store.
func (s *Service) EvictIdle(now time.Time) int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-s.cfg.IdleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastUsed.Before(cutoff) {
			sess.evicted = true
			delete(s.sessions, id)
			s.log.LogSessionEvicted(id, now.Sub(sess.lastUsed).Seconds())
			evicted++
		}
		sess.mu.Unlock()
	}
	s.metrics.SetActiveSessions(len(s.sessions))
	return evicted
}

// Subscribe streams snapshots of one session's slip after every change.
// The returned cancel func must be called to release the subscription.
func (s *Service) Subscribe(sessionID string) (<-chan Update, func()) {
	return s.subs.subscribe(sessionID)
}

// Close ends every subscription, flushes pending writes and stops the persister
func (s *Service) Close(ctx context.Context) error {
	s.subs.closeAll()
	if s.persister == nil {
		return nil
	}
	err := s.persister.Flush(ctx)
	s.persister.Stop()
	return err
}
