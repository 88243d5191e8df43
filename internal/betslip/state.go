// Package betslip holds the bet slip state machine. Transition is a pure
// function from (state, event) to state; Machine is a thin single-writer
// shell around it.
package betslip

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/parlay"
)

// DefaultStake is the stake given to a slip when it is created
const DefaultStake = 10.0

// Status names the two machine states
type Status string

const (
	StatusEmpty  Status = "empty"
	StatusActive Status = "active"
)

// Config controls slip validation and defaults
type Config struct {
	MaxLegs         int
	AllowCorrelated bool
	DefaultStake    float64
}

// DefaultConfig returns a ten-leg, correlation-free configuration with a
// stake of 10
func DefaultConfig() Config {
	return Config{
		MaxLegs:         parlay.DefaultMaxLegs,
		AllowCorrelated: false,
		DefaultStake:    DefaultStake,
	}
}

// Validator returns the leg validator for this configuration
func (c Config) Validator() parlay.Validator {
	return parlay.NewValidator(c.MaxLegs, c.AllowCorrelated)
}

// Env supplies the non-deterministic inputs of a transition
type Env struct {
	NewID func() string
	Now   func() time.Time
}

// DefaultEnv generates random slip ids and reads the wall clock
func DefaultEnv() Env {
	return Env{
		NewID: func() string { return "slip-" + uuid.NewString() },
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// State is a slip snapshot. A nil Slip is the Empty state.
type State struct {
	Slip *models.BetSlip
}

// Status reports whether the state is empty or active
func (s State) Status() Status {
	if s.Slip == nil {
		return StatusEmpty
	}
	return StatusActive
}

// IsEmpty reports whether there is no slip
func (s State) IsEmpty() bool {
	return s.Slip == nil
}

// Clone returns a copy that shares no leg storage with s
func (s State) Clone() State {
	return State{Slip: s.Slip.Clone()}
}
