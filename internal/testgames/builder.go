// Package testgames builds play-by-play games for tests and load runs: a
// fluent Builder for hand written scenarios and a seeded Generate for
// realistic full games.
package testgames

import (
	"fmt"
	"time"

	"github.com/okian/courtside/internal/domain/model"
)

// Default team ids used by NewBuilder.
const (
	Home = "HOM"
	Away = "AWY"
)

const (
	periodLength   = 12 * time.Minute
	overtimeLength = 5 * time.Minute
	defaultTick    = 10 * time.Second
	benchSize      = 3
)

var names = map[string][]string{
	Home: {"Nikola Jokic", "Jamal Murray", "Aaron Gordon", "Michael Porter", "Kentavious Caldwell", "Bruce Brown", "Jeff Green", "Bones Hyland"},
	Away: {"Jayson Tatum", "Jaylen Brown", "Jrue Holiday", "Derrick White", "Kristaps Porzingis", "Al Horford", "Sam Hauser", "Payton Pritchard"},
}

// PlayerID returns the id of the n-th player (1-based) of team. Players 1-5
// start.
func PlayerID(team string, n int) string { return fmt.Sprintf("%s%d", team, n) }

// Name returns the display name of the n-th player of a default team.
func Name(team string, n int) string { return names[team][n-1] }

// Roster returns five starters and three reserves for each team.
func Roster(teams ...string) []model.RosterPlayer {
	var out []model.RosterPlayer
	for _, team := range teams {
		list, ok := names[team]
		for n := 1; n <= 5+benchSize; n++ {
			name := fmt.Sprintf("Player %s %d", team, n)
			if ok {
				name = list[n-1]
			}
			out = append(out, model.RosterPlayer{
				PlayerID: PlayerID(team, n),
				TeamID:   team,
				Name:     name,
				Starter:  n <= 5,
			})
		}
	}
	return out
}

// Builder appends events with increasing sequence orders and a running game
// clock. Live-ball actions tick the clock; fouls, free throws and
// substitutions happen with the clock stopped.
type Builder struct {
	game   model.Game
	order  int64
	step   int64
	period int
	clock  time.Duration
	score  map[string]int
}

// NewBuilder returns a builder for a Home vs Away game with the default roster.
func NewBuilder(gameID string) *Builder {
	return &Builder{
		game: model.Game{
			GameID:     gameID,
			HomeTeamID: Home,
			AwayTeamID: Away,
			Roster:     Roster(Home, Away),
		},
		step:  1,
		score: map[string]int{Home: 0, Away: 0},
	}
}

// OrderStep sets the gap between consecutive sequence orders.
func (b *Builder) OrderStep(step int64) *Builder {
	b.step = step
	return b
}

// Clock sets the game clock for the next events.
func (b *Builder) Clock(d time.Duration) *Builder {
	b.clock = d
	return b
}

// Tick runs the game clock down by d.
func (b *Builder) Tick(d time.Duration) *Builder {
	b.clock = max(b.clock-d, 0)
	return b
}

// StartPeriod opens period p and resets the clock.
func (b *Builder) StartPeriod(p int) *Builder {
	b.period = p
	b.clock = periodLength
	if p > model.RegulationPeriods {
		b.clock = overtimeLength
	}
	return b.add(model.PlayEvent{EventType: model.EventPeriodStart})
}

// EndPeriod closes the current period.
func (b *Builder) EndPeriod() *Builder {
	b.clock = 0
	return b.add(model.PlayEvent{EventType: model.EventPeriodEnd})
}

// Shot adds a field goal attempt worth pts.
func (b *Builder) Shot(team string, player int, pts int, made bool) *Builder {
	b.Tick(defaultTick)
	e := model.PlayEvent{EventType: model.EventShotMissed, TeamID: team, PlayerID: PlayerID(team, player)}
	if made {
		e.EventType = model.EventShotMade
		e.Points = pts
	}
	e.Description = fmt.Sprintf("%s %d-pt shot", Name(team, player), pts)
	return b.add(e)
}

// FreeThrow adds free throw n of total.
func (b *Builder) FreeThrow(team string, player int, made bool, n, total int) *Builder {
	e := model.PlayEvent{
		EventType: model.EventFreeThrow,
		TeamID:    team,
		PlayerID:  PlayerID(team, player),
		Subtype:   fmt.Sprintf("%d of %d", n, total),
	}
	if made {
		e.Points = 1
	}
	return b.add(e)
}

// TechnicalFreeThrow adds a technical free throw.
func (b *Builder) TechnicalFreeThrow(team string, player int, made bool) *Builder {
	b.FreeThrow(team, player, made, 1, 1)
	return b.With(func(e *model.PlayEvent) { e.Subtype = "technical" })
}

// Rebound adds a rebound by player of team.
func (b *Builder) Rebound(team string, player int, offensive bool) *Builder {
	b.Tick(2 * time.Second)
	sub := "defensive"
	if offensive {
		sub = "offensive"
	}
	return b.add(model.PlayEvent{EventType: model.EventRebound, TeamID: team, PlayerID: PlayerID(team, player), Subtype: sub})
}

// Turnover adds a turnover committed by player of team.
func (b *Builder) Turnover(team string, player int) *Builder {
	b.Tick(defaultTick)
	return b.add(model.PlayEvent{EventType: model.EventTurnover, TeamID: team, PlayerID: PlayerID(team, player)})
}

// Foul adds a foul committed by player of team with the given subtype.
func (b *Builder) Foul(team string, player int, subtype string) *Builder {
	return b.add(model.PlayEvent{EventType: model.EventFoul, TeamID: team, PlayerID: PlayerID(team, player), Subtype: subtype})
}

// Sub adds a substitution of player in for player out, both of team.
func (b *Builder) Sub(team string, in, out int) *Builder {
	return b.add(model.PlayEvent{
		EventType:         model.EventSubstitution,
		TeamID:            team,
		PlayerID:          PlayerID(team, in),
		SecondaryPlayerID: PlayerID(team, out),
		Description:       fmt.Sprintf("SUB: %s FOR %s", Name(team, in), Name(team, out)),
	})
}

// Other adds an event of an arbitrary type with the clock stopped.
func (b *Builder) Other(typ model.EventType, description string) *Builder {
	return b.add(model.PlayEvent{EventType: typ, Description: description})
}

// With mutates the last added event.
func (b *Builder) With(fn func(e *model.PlayEvent)) *Builder {
	if n := len(b.game.Events); n > 0 {
		e := &b.game.Events[n-1]
		before := e.Points
		fn(e)
		if e.EventType == model.EventShotMade || e.EventType == model.EventFreeThrow {
			b.score[e.TeamID] += e.Points - before
		}
	}
	return b
}

// Orders returns the sequence orders added so far.
func (b *Builder) Orders() []int64 {
	out := make([]int64, len(b.game.Events))
	for i := range b.game.Events {
		out[i] = b.game.Events[i].SequenceOrder
	}
	return out
}

// LastOrder returns the order of the last added event.
func (b *Builder) LastOrder() int64 { return b.order }

// Build returns the game with its final score derived from the points added.
func (b *Builder) Build() model.Game {
	g := b.game
	g.Events = append([]model.PlayEvent(nil), b.game.Events...)
	g.Roster = append([]model.RosterPlayer(nil), b.game.Roster...)
	g.FinalScore = make(map[string]int, len(b.score))
	for team, pts := range b.score {
		g.FinalScore[team] = pts
	}
	return g
}

func (b *Builder) add(e model.PlayEvent) *Builder {
	b.order += b.step
	e.GameID = b.game.GameID
	e.SequenceOrder = b.order
	e.Period = b.period
	e.ClockRemaining = b.clock
	if e.Points > 0 {
		b.score[e.TeamID] += e.Points
	}
	b.game.Events = append(b.game.Events, e)
	return b
}
