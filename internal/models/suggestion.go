package models

// ParlaySuggestion is a recommender-built leg collection served by the
// suggestion feed. It is read-only input; its legs are normalized and added
// to a slip one at a time like any manual selection.
type ParlaySuggestion struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Sport           string          `json:"sport"`
	Type            string          `json:"type"`
	MarketType      string          `json:"market_type,omitempty"`
	Legs            []SuggestionLeg `json:"legs"`
	TotalOdds       string          `json:"total_odds"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel string          `json:"confidence_level"`
	Analysis        string          `json:"analysis"`
	ExpectedValue   string          `json:"expected_value"`
	Timestamp       string          `json:"timestamp"`
	IsToday         bool            `json:"isToday"`
}

// SuggestionLeg is a leg as the suggestion feed ships it, with odds as a
// signed string and loosely populated identity fields.
type SuggestionLeg struct {
	ID          string        `json:"id"`
	GameID      string        `json:"game_id,omitempty"`
	Description string        `json:"description,omitempty"`
	Odds        string        `json:"odds"`
	Confidence  float64       `json:"confidence"`
	Sport       string        `json:"sport"`
	Market      string        `json:"market,omitempty"`
	Player      string        `json:"player,omitempty"`
	PlayerName  string        `json:"player_name,omitempty"`
	Stat        string        `json:"stat,omitempty"`
	StatType    string        `json:"stat_type,omitempty"`
	Line        *float64      `json:"line,omitempty"`
	Teams       *MatchupTeams `json:"teams,omitempty"`
}

// MatchupTeams names both sides of a contest
type MatchupTeams struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// SuggestionsResponse is the envelope returned by the suggestion endpoint
type SuggestionsResponse struct {
	Success     bool               `json:"success"`
	Suggestions []ParlaySuggestion `json:"suggestions"`
	Count       int                `json:"count"`
	Timestamp   string             `json:"timestamp"`
	Sport       string             `json:"sport"`
	Message     string             `json:"message"`
}
