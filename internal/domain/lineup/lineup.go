// Package lineup reconstructs which five players each team has on the court
// for every event of a game.
package lineup

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/roster"
	"github.com/okian/courtside/internal/domain/validate"
)

// ctxCheckEvery bounds how many events are replayed between cancellation checks.
const ctxCheckEvery = 512

var ejectPattern = regexp.MustCompile(`(?i)\beject(ed|ion)\b`)

// Timeline is the lineup reconstruction of one game.
type Timeline struct {
	// Lineups are grouped by team (in the order teams were given) and
	// ordered by start within a team.
	Lineups       []model.LineupState
	Substitutions []model.SubstitutionEvent
	Warnings      []model.Violation
}

type tracker struct {
	gameID string
	index  *roster.Index
	teams  []string
	states map[string]teamState
	out    map[string][]model.LineupState
	subs   []model.SubstitutionEvent
	warns  []model.Violation
}

// Track replays log and returns the lineup timeline. Initial lineups are the
// roster starters of each team. Bad substitutions never abort the replay;
// they are reported as warnings and the team is flagged degraded until the
// next period. The only error is context cancellation.
func Track(ctx context.Context, log *validate.ValidatedLog, index *roster.Index, teams []string) (Timeline, error) {
	t := &tracker{
		gameID: log.GameID(),
		index:  index,
		teams:  teams,
		states: make(map[string]teamState, len(teams)),
		out:    make(map[string][]model.LineupState, len(teams)),
	}

	first := log.At(0)
	for _, team := range teams {
		starters := index.Starters(team)
		if len(starters) != LineupSize {
			t.warn(model.SeverityWarning, team, first.SequenceOrder, first.SequenceOrder,
				"team %s has %d starters, want %d", team, len(starters), LineupSize)
		}
		t.states[team] = teamState{team: team, period: first.Period, start: first.SequenceOrder, players: starters}
	}

	period := first.Period
	for i := 0; i < log.Len(); {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Timeline{}, fmt.Errorf("lineup replay: %w", err)
			}
		}
		e := log.At(i)
		if e.Period != period {
			period = e.Period
			t.rollPeriod(e.SequenceOrder, period)
		}

		switch {
		case e.EventType == model.EventSubstitution:
			end := clusterEnd(log, i)
			t.applyCluster(log, i, end)
			i = end
			continue
		case isEjection(&e):
			t.eject(&e)
		}
		i++
	}

	last := log.LastOrder()
	var tl Timeline
	for _, team := range teams {
		t.out[team] = append(t.out[team], t.states[team].record(t.gameID, last))
		tl.Lineups = append(tl.Lineups, t.out[team]...)
	}
	tl.Substitutions = t.subs
	tl.Warnings = t.warns
	return tl, nil
}

// At returns the lineup of team on the court at order.
func At(states []model.LineupState, team string, order int64) (model.LineupState, bool) {
	lo := -1
	hi := 0
	for i := range states {
		if states[i].TeamID != team {
			continue
		}
		if lo < 0 {
			lo = i
		}
		hi = i + 1
	}
	if lo < 0 {
		return model.LineupState{}, false
	}
	run := states[lo:hi]
	i := sort.Search(len(run), func(i int) bool { return run[i].EndOrder > order })
	if i == len(run) {
		// The final state of a team includes its end order.
		if lastState := run[len(run)-1]; lastState.EndOrder == order {
			return lastState, true
		}
		return model.LineupState{}, false
	}
	if run[i].StartOrder > order {
		return model.LineupState{}, false
	}
	return run[i], true
}

func (t *tracker) transition(team string, order int64, next teamState) {
	cur := t.states[team]
	if order > cur.start {
		t.out[team] = append(t.out[team], cur.record(t.gameID, order))
	}
	next.start = order
	t.states[team] = next
}

func (t *tracker) rollPeriod(order int64, period int) {
	for _, team := range t.teams {
		next := t.states[team].at(order, period)
		next.degraded = false
		t.transition(team, order, next)
	}
}

// clusterEnd returns the index after the run of substitutions starting at i
// that share its period and clock.
func clusterEnd(log *validate.ValidatedLog, i int) int {
	head := log.At(i)
	j := i + 1
	for j < log.Len() {
		e := log.At(j)
		if e.EventType != model.EventSubstitution || e.Period != head.Period || e.ClockRemaining != head.ClockRemaining {
			break
		}
		j++
	}
	return j
}

func (t *tracker) applyCluster(log *validate.ValidatedLog, from, to int) {
	order := log.At(from).SequenceOrder
	byTeam := make(map[string][]swap)
	unresolved := make(map[string]bool)

	for i := from; i < to; i++ {
		e := log.At(i)
		team, sw, ok := t.resolve(&e)
		if !ok {
			if team != "" {
				unresolved[team] = true
			}
			continue
		}
		byTeam[team] = append(byTeam[team], sw)
	}

	for _, team := range t.teams {
		swaps := byTeam[team]
		if len(swaps) == 0 && !unresolved[team] {
			continue
		}
		cur := t.states[team]
		next, err := cur.apply(order, swaps)
		if err != nil {
			t.warn(model.SeverityWarning, team, order, order,
				"substitutions for team %s at order %d rejected: %v; keeping previous lineup", team, order, err)
			next = cur.at(order, cur.period)
			next.degraded = true
			t.transition(team, order, next)
			continue
		}
		if unresolved[team] {
			next.degraded = true
		}
		for _, sw := range swaps {
			t.subs = append(t.subs, model.SubstitutionEvent{
				GameID:    t.gameID,
				TeamID:    team,
				Order:     order,
				PlayerIn:  sw.in,
				PlayerOut: sw.out,
			})
		}
		t.transition(team, order, next)
	}
}

// resolve identifies the team and players of a substitution: structured ids
// first, then the description resolved against the roster.
func (t *tracker) resolve(e *model.PlayEvent) (string, swap, bool) {
	team := e.TeamID
	if team != "" && !t.known(team) {
		t.warn(model.SeverityWarning, team, e.SequenceOrder, e.SequenceOrder,
			"substitution at order %d names unknown team %s", e.SequenceOrder, team)
		return "", swap{}, false
	}

	in, inOK := t.byID(team, e.PlayerID)
	out, outOK := t.byID(team, e.SecondaryPlayerID)
	if !inOK || !outOK {
		inName, outName, parsed := roster.ParseSubstitution(e.Description)
		if !parsed {
			t.warn(model.SeverityWarning, team, e.SequenceOrder, e.SequenceOrder,
				"substitution at order %d has no usable player ids or description", e.SequenceOrder)
			return t.teamHint(team, in, out), swap{}, false
		}
		if !inOK {
			if in, inOK = t.byName(team, inName, e.SequenceOrder); !inOK {
				return t.teamHint(team, in, out), swap{}, false
			}
		}
		if !outOK {
			if out, outOK = t.byName(team, outName, e.SequenceOrder); !outOK {
				return t.teamHint(team, in, out), swap{}, false
			}
		}
	}

	inTeam, outTeam := t.index.TeamOf(in), t.index.TeamOf(out)
	if inTeam != outTeam || (team != "" && inTeam != team) {
		t.warn(model.SeverityWarning, team, e.SequenceOrder, e.SequenceOrder,
			"substitution at order %d swaps players of different teams (%s, %s)", e.SequenceOrder, in, out)
		return t.teamHint(team, "", ""), swap{}, false
	}
	if !t.known(inTeam) {
		return "", swap{}, false
	}
	return inTeam, swap{in: in, out: out}, true
}

func (t *tracker) byID(team, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	p, ok := t.index.Player(id)
	if !ok || (team != "" && p.TeamID != team) {
		return "", false
	}
	return p.PlayerID, true
}

func (t *tracker) byName(team, name string, order int64) (string, bool) {
	r, err := t.index.Resolve(team, name)
	if err != nil {
		t.warn(model.SeverityWarning, team, order, order, "substitution at order %d: %v", order, err)
		return "", false
	}
	t.warn(model.SeverityInfo, r.TeamID, order, order,
		"substitution at order %d resolved %q to %s by %s (%.2f)", order, name, r.PlayerID, r.Method, r.Score)
	return r.PlayerID, true
}

func (t *tracker) teamHint(team, in, out string) string {
	if team != "" {
		return team
	}
	if tm := t.index.TeamOf(in); tm != "" {
		return tm
	}
	return t.index.TeamOf(out)
}

func (t *tracker) known(team string) bool {
	for _, tm := range t.teams {
		if tm == team {
			return true
		}
	}
	return false
}

func isEjection(e *model.PlayEvent) bool {
	return strings.Contains(strings.ToLower(e.Subtype), "eject") || ejectPattern.MatchString(e.Description)
}

// eject removes an ejected player from the court. The team plays short
// until a substitution names the player as leaving.
func (t *tracker) eject(e *model.PlayEvent) {
	team := e.TeamID
	if team == "" {
		team = t.index.TeamOf(e.PlayerID)
	}
	if e.PlayerID == "" || !t.known(team) {
		t.warn(model.SeverityWarning, team, e.SequenceOrder, e.SequenceOrder,
			"ejection at order %d does not identify a player", e.SequenceOrder)
		return
	}
	cur := t.states[team]
	if !cur.has(e.PlayerID) {
		t.warn(model.SeverityInfo, team, e.SequenceOrder, e.SequenceOrder,
			"player %s ejected from the bench at order %d", e.PlayerID, e.SequenceOrder)
		return
	}
	t.transition(team, e.SequenceOrder, cur.eject(e.SequenceOrder, e.PlayerID))
}

func (t *tracker) warn(sev model.Severity, team string, start, end int64, format string, args ...any) {
	t.warns = append(t.warns, model.Violation{
		Check:      model.CheckResolution,
		Severity:   sev,
		Message:    fmt.Sprintf(format, args...),
		TeamID:     team,
		StartOrder: start,
		EndOrder:   end,
	})
}
