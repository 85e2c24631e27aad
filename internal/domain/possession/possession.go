// Package possession splits a game into possessions, each owned by one team
// with an outcome and the points it produced.
package possession

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/roster"
	"github.com/okian/courtside/internal/domain/validate"
)

const ctxCheckEvery = 512

// Timeline is the possession reconstruction of one game.
type Timeline struct {
	Possessions []model.PossessionEvent
	Warnings    []model.Violation
}

// state is the tracker state between two events. step consumes a state and
// returns the next one; a state is never modified after it is returned.
type state struct {
	open      bool
	team      string // owner of the open (or last closed) possession, "" while unknown
	period    int
	start     int64
	last      int64 // order of the last event inside the open possession
	points    int
	pending   string // owner of the next possession, "" when unknown
	missed    bool   // a shot or final free throw missed and awaits a rebound
	andOne    bool   // a made field goal waits for its and-1 free throws
	technical bool   // the open possession is a technical free throw possession
	resume    string // owner to give the ball back to after a technical possession
}

type machine struct {
	gameID   string
	teams    []string
	index    *roster.Index
	log      *validate.ValidatedLog
	finalEnd int
	out      []model.PossessionEvent
	warns    []model.Violation
}

// Track replays log and returns the possession timeline. index may be nil;
// when set it resolves the team of events that carry only a player id.
// Unclassifiable events end the open possession as ambiguous and never abort
// the replay. The only error is context cancellation.
func Track(ctx context.Context, log *validate.ValidatedLog, index *roster.Index, teams []string) (Timeline, error) {
	m := &machine{
		gameID:   log.GameID(),
		teams:    teams,
		index:    index,
		log:      log,
		finalEnd: -1,
	}
	if last := log.Len() - 1; log.At(last).EventType == model.EventPeriodEnd {
		m.finalEnd = last
	}

	var s state
	for i := 0; i < log.Len(); i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Timeline{}, fmt.Errorf("possession replay: %w", err)
			}
		}
		s = m.step(s, i)
	}
	if s.open {
		m.close(s, s.last, model.OutcomeEndOfGame)
	}
	return Timeline{Possessions: m.out, Warnings: m.warns}, nil
}

func (m *machine) step(s state, i int) state {
	e := m.log.At(i)

	if s.open && e.Period != s.period {
		s = m.close(s, s.last, model.OutcomeEndOfPeriod)
		s.pending = ""
	}
	team := m.teamOf(&e)
	if s.open && s.andOne && !continuesAndOne(&e, team, s.team) {
		s = m.close(s, s.last, model.OutcomeMadeShot)
		s.pending = model.Opponent(m.teams, s.team)
	}
	if s.open && s.technical && !continuesTechnical(&e, team, s.team) {
		s = m.close(s, s.last, model.OutcomeTechnicalFreeThrow)
		s.pending = s.resume
	}

	if !e.EventType.Known() {
		s = m.ensureOpen(s, &e)
		owner := s.team
		if owner == "" {
			owner = s.pending
		}
		m.warn(model.SeverityWarning, owner, e.SequenceOrder,
			"unclassifiable event type %q at order %d ends possession as ambiguous", e.EventType, e.SequenceOrder)
		s = m.close(s, e.SequenceOrder, model.OutcomeAmbiguous)
		s.pending = owner
		return s
	}

	switch e.EventType {
	case model.EventPeriodEnd:
		s = m.ensureOpen(s, &e)
		outcome := model.OutcomeEndOfPeriod
		if i == m.finalEnd {
			outcome = model.OutcomeEndOfGame
		}
		s = m.close(s, e.SequenceOrder, outcome)
		s.pending = ""

	case model.EventShotMade:
		s = m.claim(s, &e, team)
		s.points += e.Points
		s.missed = false
		if m.andOneFollows(i, s.team) {
			s.andOne = true
			return s
		}
		s = m.close(s, e.SequenceOrder, model.OutcomeMadeShot)
		s.pending = model.Opponent(m.teams, s.team)

	case model.EventShotMissed:
		s = m.claim(s, &e, team)
		s.missed = true
		s.andOne = false

	case model.EventFreeThrow:
		if isTechnical(&e) {
			return m.technicalFreeThrow(s, &e, team)
		}
		s = m.claim(s, &e, team)
		s.andOne = false
		if made(&e) {
			s.points += e.Points
		}
		if isFlagrant(&e) || !m.lastFreeThrow(i, team) {
			return s
		}
		if !made(&e) {
			s.missed = true
			return s
		}
		s = m.close(s, e.SequenceOrder, model.OutcomeMadeShot)
		s.pending = model.Opponent(m.teams, s.team)

	case model.EventRebound:
		return m.rebound(s, &e, team)

	case model.EventTurnover:
		s = m.claim(s, &e, team)
		s = m.close(s, e.SequenceOrder, model.OutcomeTurnover)
		s.pending = model.Opponent(m.teams, s.team)

	default:
		s = m.ensureOpen(s, &e)
	}
	return s
}

func (m *machine) rebound(s state, e *model.PlayEvent, team string) state {
	if team == "" {
		switch sub := strings.ToLower(e.Subtype); {
		case strings.Contains(sub, "offensive") && s.open:
			team = s.team
		case strings.Contains(sub, "defensive") && s.open:
			team = model.Opponent(m.teams, s.team)
		}
	}
	if team == "" {
		m.warn(model.SeverityWarning, "", e.SequenceOrder, "rebound at order %d has no team", e.SequenceOrder)
		return m.ensureOpen(s, e)
	}
	if !s.open {
		return m.open(s, e, team)
	}

	s.last = e.SequenceOrder
	s.missed = false
	switch s.team {
	case "":
		s.team = team
		return s
	case team:
		return s
	}
	s = m.close(s, e.SequenceOrder, model.OutcomeMissedShotRebounded)
	s.pending = team
	return s
}

func (m *machine) technicalFreeThrow(s state, e *model.PlayEvent, team string) state {
	pts := 0
	if made(e) {
		pts = e.Points
	}
	switch {
	case team == "":
		m.warn(model.SeverityWarning, "", e.SequenceOrder, "technical free throw at order %d has no team", e.SequenceOrder)
		s = m.ensureOpen(s, e)
		return s
	case s.open && s.team == team:
		s.last = e.SequenceOrder
		s.points += pts
		return s
	case !s.open && s.pending == team:
		s = m.open(s, e, team)
		s.points += pts
		return s
	}

	resume := s.pending
	if s.open {
		resume = s.team
		if resume == "" {
			resume = s.pending
		}
		s = m.close(s, s.last, model.OutcomeInterrupted)
	}
	s = m.open(s, e, team)
	s.technical = true
	s.resume = resume
	s.points += pts
	return s
}

// claim makes sure the open possession belongs to team before an offensive
// action. An action by the other team ends the open possession as ambiguous.
// With no possession open, the actor takes the ball even when the other team
// was due it.
func (m *machine) claim(s state, e *model.PlayEvent, team string) state {
	if s.open && s.team != "" && team != "" && team != s.team {
		m.warn(model.SeverityWarning, s.team, e.SequenceOrder,
			"%s by %s at order %d during possession of %s", e.EventType, team, e.SequenceOrder, s.team)
		s = m.close(s, s.last, model.OutcomeAmbiguous)
		return m.open(s, e, team)
	}
	if !s.open && s.pending != "" && team != "" && team != s.pending {
		m.warn(model.SeverityWarning, team, e.SequenceOrder,
			"%s by %s at order %d while %s was due the ball", e.EventType, team, e.SequenceOrder, s.pending)
		return m.open(s, e, team)
	}
	s = m.ensureOpen(s, e)
	if s.team == "" {
		s.team = team
	}
	return s
}

func (m *machine) ensureOpen(s state, e *model.PlayEvent) state {
	if !s.open {
		return m.open(s, e, s.pending)
	}
	s.last = e.SequenceOrder
	return s
}

func (m *machine) open(s state, e *model.PlayEvent, team string) state {
	return state{
		open:    true,
		team:    team,
		period:  e.Period,
		start:   e.SequenceOrder,
		last:    e.SequenceOrder,
		pending: s.pending,
	}
}

func (m *machine) close(s state, end int64, outcome model.Outcome) state {
	if s.team == "" {
		m.warn(model.SeverityWarning, "", s.start,
			"possession %d (orders %d-%d) has no identifiable owner", len(m.out)+1, s.start, end)
	}
	m.out = append(m.out, model.PossessionEvent{
		GameID:           m.gameID,
		PossessionNumber: len(m.out) + 1,
		TeamID:           s.team,
		StartOrder:       s.start,
		EndOrder:         end,
		Outcome:          outcome,
		PointsScored:     s.points,
	})
	return state{team: s.team, pending: s.pending, resume: s.resume, period: s.period}
}

func (m *machine) teamOf(e *model.PlayEvent) string {
	if e.TeamID != "" || m.index == nil {
		return e.TeamID
	}
	return m.index.TeamOf(e.PlayerID)
}

// nextSignificant returns the index of the next event after i that is not a
// substitution or an unclassified "other" event, or -1.
func (m *machine) nextSignificant(i int) int {
	for j := i + 1; j < m.log.Len(); j++ {
		switch m.log.At(j).EventType {
		case model.EventSubstitution, model.EventOther:
			continue
		}
		return j
	}
	return -1
}

// andOneFollows reports whether the made shot at i is followed by a shooting
// foul by the other team.
func (m *machine) andOneFollows(i int, team string) bool {
	j := m.nextSignificant(i)
	if j < 0 {
		return false
	}
	next := m.log.At(j)
	if !isShootingFoul(&next) {
		return false
	}
	fouler := m.teamOf(&next)
	return fouler == "" || fouler != team
}

// lastFreeThrow reports whether the free throw at i ends its sequence.
func (m *machine) lastFreeThrow(i int, team string) bool {
	e := m.log.At(i)
	if n, total, ok := freeThrowNumber(&e); ok {
		return n >= total
	}
	j := m.nextSignificant(i)
	if j < 0 {
		return true
	}
	next := m.log.At(j)
	return next.EventType != model.EventFreeThrow || isTechnical(&next) || m.teamOf(&next) != team
}

func (m *machine) warn(sev model.Severity, team string, order int64, format string, args ...any) {
	m.warns = append(m.warns, model.Violation{
		Check:      model.CheckResolution,
		Severity:   sev,
		Message:    fmt.Sprintf(format, args...),
		TeamID:     team,
		StartOrder: order,
		EndOrder:   order,
	})
}
