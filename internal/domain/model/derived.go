package model

// ExceptionEjection marks a lineup that is short-handed because a player was
// ejected and no replacement has been recorded yet.
const ExceptionEjection = "ejection"

// LineupState is the set of players one team has on the court over the
// half-open range [StartOrder, EndOrder). The last state of a team ends at
// the final event order of the game.
type LineupState struct {
	GameID     string   `json:"game_id"`
	TeamID     string   `json:"team_id"`
	Period     int      `json:"period"`
	StartOrder int64    `json:"start_order"`
	EndOrder   int64    `json:"end_order"`
	Players    []string `json:"players"`
	Exception  string   `json:"exception,omitempty"`
	Degraded   bool     `json:"degraded,omitempty"`
}

// SubstitutionEvent records one player swap. Swaps of one cluster share Order.
type SubstitutionEvent struct {
	GameID    string `json:"game_id"`
	TeamID    string `json:"team_id"`
	Order     int64  `json:"order"`
	PlayerIn  string `json:"player_in"`
	PlayerOut string `json:"player_out"`
}

// Outcome is how a possession ended.
type Outcome string

// Possession outcomes.
const (
	OutcomeMadeShot            Outcome = "made_shot"
	OutcomeTurnover            Outcome = "turnover"
	OutcomeMissedShotRebounded Outcome = "missed_shot_rebounded"
	OutcomeEndOfPeriod         Outcome = "end_of_period"
	OutcomeEndOfGame           Outcome = "end_of_game"
	OutcomeAmbiguous           Outcome = "ambiguous"
	OutcomeTechnicalFreeThrow  Outcome = "technical_free_throw"
	OutcomeInterrupted         Outcome = "interrupted"
)

// PossessionEvent is one possession over the inclusive range
// [StartOrder, EndOrder].
type PossessionEvent struct {
	GameID           string  `json:"game_id"`
	PossessionNumber int     `json:"possession_number"`
	TeamID           string  `json:"team_id"`
	StartOrder       int64   `json:"start_order"`
	EndOrder         int64   `json:"end_order"`
	Outcome          Outcome `json:"outcome"`
	PointsScored     int     `json:"points_scored"`
}

// Contains reports whether order falls inside the possession.
func (p *PossessionEvent) Contains(order int64) bool {
	return order >= p.StartOrder && order <= p.EndOrder
}

// PlayPossessionLink joins an event to the possession it belongs to.
type PlayPossessionLink struct {
	GameID            string `json:"game_id"`
	PlaySequenceOrder int64  `json:"play_sequence_order"`
	PossessionNumber  int    `json:"possession_number"`
}
