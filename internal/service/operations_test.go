package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/parlay-slip/internal/betslip"
	"github.com/yourusername/parlay-slip/internal/models"
)

type mockSuggestions struct {
	mock.Mock
}

func (m *mockSuggestions) Suggestion(ctx context.Context, sport, id string) (*models.ParlaySuggestion, error) {
	args := m.Called(ctx, sport, id)
	if s := args.Get(0); s != nil {
		return s.(*models.ParlaySuggestion), args.Error(1)
	}
	return nil, args.Error(1)
}

func sampleSuggestion() models.ParlaySuggestion {
	return models.ParlaySuggestion{
		ID:    "nba-1",
		Name:  "Favorites",
		Sport: "NBA",
		Legs: []models.SuggestionLeg{
			{ID: "l1", GameID: "g1", Market: "moneyline", Odds: "-110", Sport: "NBA"},
			{ID: "l2", GameID: "g2", Market: "moneyline", Odds: "+150", Sport: "NBA"},
			{ID: "l3", GameID: "g3", Market: "spread", Odds: "even", Sport: "NBA"},
			{ID: "l4", GameID: "g1", Market: "total", Odds: "+105", Sport: "NBA"},
		},
	}
}

func TestAddSuggestionReportsRejectedLegs(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.AddSuggestion(context.Background(), "s1", sampleSuggestion())
	require.NoError(t, err)

	assert.Equal(t, []string{"l1", "l2"}, result.Added)
	require.Len(t, result.Rejected, 2)
	assert.Equal(t, "l3", result.Rejected[0].LegID)
	assert.ErrorIs(t, result.Rejected[0].Err, models.ErrInvalidOdds)
	assert.Equal(t, "l4", result.Rejected[1].LegID)
	assert.ErrorIs(t, result.Rejected[1].Err, models.ErrCorrelatedSelection)

	require.NotNil(t, result.State.Slip)
	assert.Equal(t, 377, result.State.Slip.TotalOdds)
}

func TestAddSuggestionByID(t *testing.T) {
	source := &mockSuggestions{}
	suggestion := sampleSuggestion()
	source.On("Suggestion", mock.Anything, "nba", "nba-1").Return(&suggestion, nil)
	source.On("Suggestion", mock.Anything, "nba", "missing").Return(nil, fmt.Errorf("lookup: %w", models.ErrNotFound))

	svc := New(Config{Slip: betslip.DefaultConfig()}, Dependencies{Suggestions: source})
	ctx := context.Background()

	result, err := svc.AddSuggestionByID(ctx, "s1", "nba", "nba-1")
	require.NoError(t, err)
	assert.Len(t, result.Added, 2)

	_, err = svc.AddSuggestionByID(ctx, "s1", "nba", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	source.AssertExpectations(t)
}

func TestAddSuggestionByIDWithoutSource(t *testing.T) {
	svc := New(Config{Slip: betslip.DefaultConfig()}, Dependencies{})

	_, err := svc.AddSuggestionByID(context.Background(), "s1", "nba", "x")
	assert.ErrorIs(t, err, ErrNoSuggestions)
}

func TestRoundRobin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, o := range []int{-110, 150, 200} {
		_, err := f.svc.AddLeg(ctx, "s1", leg(fmt.Sprintf("l%d", i), fmt.Sprintf("e%d", i), "m", o))
		require.NoError(t, err)
	}

	stake := 10.0
	result, err := f.svc.RoundRobin(ctx, "s1", 2, &stake)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Size)
	require.Len(t, result.Combinations, 3)
	assert.Equal(t, []int{0, 1}, result.Combinations[0].Indices)
	assert.Equal(t, []int{1, 2}, result.Combinations[2].Indices)
	assert.Equal(t, 3, result.Summary.Combinations)
	assert.InDelta(t, 30.0, result.Summary.TotalStake, 1e-9)
}

func TestRoundRobinUsesLegOverrides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, o := range []int{-110, 150, 200} {
		_, err := f.svc.AddLeg(ctx, "s1", leg(fmt.Sprintf("l%d", i), fmt.Sprintf("e%d", i), "m", o))
		require.NoError(t, err)
	}
	_, err := f.svc.SetLegStake(ctx, "s1", "l0", 4)
	require.NoError(t, err)
	_, err = f.svc.SetLegStake(ctx, "s1", "l1", 6)
	require.NoError(t, err)

	result, err := f.svc.RoundRobin(ctx, "s1", 2, nil)
	require.NoError(t, err)
	require.Len(t, result.Combinations, 3)
	assert.Equal(t, 4.0, result.Combinations[0].Stake, "smallest override among the legs")
	assert.Equal(t, 4.0, result.Combinations[1].Stake)
	assert.Equal(t, 6.0, result.Combinations[2].Stake)
}

func TestRoundRobinErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stake := 5.0

	_, err := f.svc.RoundRobin(ctx, "empty", 2, &stake)
	assert.ErrorIs(t, err, models.ErrEmptySlip)

	for i := 0; i < 7; i++ {
		_, err := f.svc.AddLeg(ctx, "big", leg(fmt.Sprintf("l%d", i), fmt.Sprintf("e%d", i), "m", 110))
		require.NoError(t, err)
	}
	_, err = f.svc.RoundRobin(ctx, "big", 3, &stake)
	assert.ErrorIs(t, err, ErrPoolTooLarge)

	_, err = f.svc.RemoveLeg(ctx, "big", "l6")
	require.NoError(t, err)
	_, err = f.svc.RoundRobin(ctx, "big", 7, &stake)
	assert.ErrorIs(t, err, models.ErrInvalidComboSize)
}

func TestTemplatesRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SaveTemplate(ctx, "s1", "nothing", nil)
	assert.ErrorIs(t, err, models.ErrEmptySlip)

	a := leg("a", "e1", "m1", -110)
	a.Bookmaker = "draftkings"
	b := leg("b", "e2", "m2", 150)
	b.Bookmaker = "draftkings"
	_, err = f.svc.AddLeg(ctx, "s1", a)
	require.NoError(t, err)
	_, err = f.svc.AddLeg(ctx, "s1", b)
	require.NoError(t, err)

	_, err = f.svc.SaveTemplate(ctx, "s1", "   ", nil)
	assert.ErrorIs(t, err, models.ErrInvalidTemplate)

	tmpl, err := f.svc.SaveTemplate(ctx, "s1", " Sunday double ", []string{"nfl"})
	require.NoError(t, err)
	assert.Equal(t, "Sunday double", tmpl.Name)
	assert.Equal(t, 377, tmpl.TotalOdds)
	assert.Equal(t, "draftkings", tmpl.Bookmaker)

	_, err = f.svc.AddLeg(ctx, "s2", leg("z", "e9", "m9", 300))
	require.NoError(t, err)

	result, err := f.svc.ApplyTemplate(ctx, "s2", tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result.Added)
	assert.Empty(t, result.Rejected)
	require.NotNil(t, result.State.Slip)
	assert.Len(t, result.State.Slip.Legs, 2, "applying a template replaces the slip")

	list, err := f.svc.ListTemplates(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.svc.DeleteTemplate(ctx, tmpl.ID))
	_, err = f.svc.ApplyTemplate(ctx, "s2", tmpl.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteTemplate(ctx, uuid.New()), models.ErrNotFound)
}
