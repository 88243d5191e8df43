package betslip

import (
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/parlay-slip/internal/models"
)

// Machine owns one slip and applies events to it. It is not safe for
// concurrent use; hosts serialize dispatches per slip.
type Machine struct {
	cfg   Config
	env   Env
	state State
}

// Option configures a Machine
type Option func(*Machine)

// WithEnv overrides id generation and the clock
func WithEnv(env Env) Option {
	return func(m *Machine) {
		m.env = env
	}
}

// NewMachine creates a machine in the Empty state
func NewMachine(cfg Config, opts ...Option) *Machine {
	m := &Machine{cfg: cfg, env: DefaultEnv()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatch applies ev and returns a snapshot of the resulting state. On
// error the machine keeps its previous state.
func (m *Machine) Dispatch(ev Event) (State, error) {
	next, err := Transition(m.cfg, m.state, ev, m.env)
	if err != nil {
		return m.state.Clone(), err
	}
	m.state = next
	return m.state.Clone(), nil
}

// Snapshot returns a copy of the current state
func (m *Machine) Snapshot() State {
	return m.state.Clone()
}

// Contains reports whether a leg with legID is on the slip
func (m *Machine) Contains(legID string) bool {
	return m.state.Slip.FindLeg(legID) >= 0
}

// Config returns the machine's configuration
func (m *Machine) Config() Config {
	return m.cfg
}

// Restore rebuilds the slip from storage by replaying its legs and stake
// through the validator, so stored derived fields are never trusted. Legs
// that no longer validate are skipped and reported in the returned error;
// everything that does validate is kept.
func (m *Machine) Restore(saved *models.SerializedSlip) error {
	m.state = State{}
	if saved == nil || len(saved.Legs) == 0 {
		return nil
	}

	env := m.env
	env.NewID = func() string { return saved.ID }
	env.Now = func() time.Time { return saved.CreatedAt }

	var errs []error
	for _, leg := range saved.Legs {
		next, err := Transition(m.cfg, m.state, AddLeg{Leg: leg}, env)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.state = next
	}

	if next, err := Transition(m.cfg, m.state, SetTotalStake{Amount: saved.TotalStake}, env); err != nil {
		errs = append(errs, err)
	} else {
		m.state = next
	}

	if len(errs) > 0 {
		return fmt.Errorf("restore slip %q: %w", saved.ID, errors.Join(errs...))
	}
	return nil
}
