// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// EventType enumerates play-by-play event kinds.
type EventType string

// Known event types.
const (
	EventShotMade     EventType = "shot_made"
	EventShotMissed   EventType = "shot_missed"
	EventRebound      EventType = "rebound"
	EventTurnover     EventType = "turnover"
	EventFoul         EventType = "foul"
	EventFreeThrow    EventType = "free_throw"
	EventSubstitution EventType = "substitution"
	EventPeriodStart  EventType = "period_start"
	EventPeriodEnd    EventType = "period_end"
	EventOther        EventType = "other"
)

// Known reports whether t is one of the enumerated event types.
func (t EventType) Known() bool {
	switch t {
	case EventShotMade, EventShotMissed, EventRebound, EventTurnover, EventFoul,
		EventFreeThrow, EventSubstitution, EventPeriodStart, EventPeriodEnd, EventOther:
		return true
	}
	return false
}

// RegulationPeriods is the number of non-overtime periods.
const RegulationPeriods = 4

// PlayEvent is one immutable play-by-play record.
// Substitutions carry the entering player in PlayerID and the leaving player
// in SecondaryPlayerID.
type PlayEvent struct {
	GameID            string        `json:"game_id"`
	SequenceOrder     int64         `json:"sequence_order"`
	Period            int           `json:"period"`
	ClockRemaining    time.Duration `json:"clock_remaining"`
	EventType         EventType     `json:"event_type"`
	Subtype           string        `json:"subtype,omitempty"`
	TeamID            string        `json:"team_id,omitempty"`
	PlayerID          string        `json:"player_id,omitempty"`
	SecondaryPlayerID string        `json:"secondary_player_id,omitempty"`
	Points            int           `json:"points,omitempty"`
	Description       string        `json:"description,omitempty"`
}

// Overtime reports whether the event happened in an overtime period.
func (e *PlayEvent) Overtime() bool { return e.Period > RegulationPeriods }

// RosterPlayer is one entry of the pre-game roster context.
type RosterPlayer struct {
	PlayerID string `json:"player_id" yaml:"player_id"`
	TeamID   string `json:"team_id" yaml:"team_id"`
	Name     string `json:"name" yaml:"name"`
	Starter  bool   `json:"starter" yaml:"starter"`
}

// Game bundles everything the engine receives for one game.
type Game struct {
	GameID     string         `json:"game_id"`
	HomeTeamID string         `json:"home_team_id,omitempty"`
	AwayTeamID string         `json:"away_team_id,omitempty"`
	Events     []PlayEvent    `json:"events"`
	Roster     []RosterPlayer `json:"roster"`
	FinalScore map[string]int `json:"final_score"`
}

// Teams returns the two team ids of the game. Explicit home/away ids win;
// otherwise the distinct roster team ids are returned sorted.
func (g *Game) Teams() []string {
	if g.HomeTeamID != "" && g.AwayTeamID != "" {
		return []string{g.HomeTeamID, g.AwayTeamID}
	}
	seen := make(map[string]struct{})
	var teams []string
	for _, p := range g.Roster {
		if p.TeamID == "" {
			continue
		}
		if _, ok := seen[p.TeamID]; ok {
			continue
		}
		seen[p.TeamID] = struct{}{}
		teams = append(teams, p.TeamID)
	}
	sort.Strings(teams)
	return teams
}

// Opponent returns the team facing team, or "" if it cannot be determined.
func Opponent(teams []string, team string) string {
	if len(teams) != 2 || team == "" {
		return ""
	}
	switch team {
	case teams[0]:
		return teams[1]
	case teams[1]:
		return teams[0]
	}
	return ""
}
