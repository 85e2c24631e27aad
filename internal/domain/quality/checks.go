package quality

import (
	"fmt"
	"sort"

	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/model"
)

func violation(check model.Check, sev model.Severity, team string, start, end int64, format string, args ...any) model.Violation {
	return model.Violation{
		Check:      check,
		Severity:   sev,
		Message:    fmt.Sprintf(format, args...),
		TeamID:     team,
		StartOrder: start,
		EndOrder:   end,
	}
}

func resolution(in *Input) []model.Violation {
	out := make([]model.Violation, 0, len(in.Warnings))
	for _, w := range in.Warnings {
		w.Check = model.CheckResolution
		out = append(out, w)
	}
	return out
}

func lineupCardinality(in *Input) []model.Violation {
	var out []model.Violation
	for _, s := range in.Lineups {
		distinct := make(map[string]struct{}, len(s.Players))
		for _, p := range s.Players {
			distinct[p] = struct{}{}
		}
		n := len(distinct)
		switch {
		case n != len(s.Players):
			out = append(out, violation(model.CheckLineupCardinality, model.SeverityError, s.TeamID, s.StartOrder, s.EndOrder,
				"team %s lists a player twice in %v", s.TeamID, s.Players))
		case n == lineup.LineupSize:
		case s.Exception == model.ExceptionEjection && n > 0 && n < lineup.LineupSize:
			out = append(out, violation(model.CheckLineupCardinality, model.SeverityInfo, s.TeamID, s.StartOrder, s.EndOrder,
				"team %s plays %d after an ejection", s.TeamID, n))
		default:
			out = append(out, violation(model.CheckLineupCardinality, model.SeverityError, s.TeamID, s.StartOrder, s.EndOrder,
				"team %s has %d players on court, want %d", s.TeamID, n, lineup.LineupSize))
		}
	}
	return out
}

func lineupContiguity(in *Input) []model.Violation {
	var out []model.Violation
	first, last := in.Log.FirstOrder(), in.Log.LastOrder()
	for _, team := range in.Teams {
		var states []model.LineupState
		for _, s := range in.Lineups {
			if s.TeamID == team {
				states = append(states, s)
			}
		}
		if len(states) == 0 {
			out = append(out, violation(model.CheckLineupContiguity, model.SeverityError, team, first, last,
				"team %s has no lineup", team))
			continue
		}
		if states[0].StartOrder != first {
			out = append(out, violation(model.CheckLineupContiguity, model.SeverityError, team, first, states[0].StartOrder,
				"team %s first lineup starts at %d, game starts at %d", team, states[0].StartOrder, first))
		}
		if end := states[len(states)-1].EndOrder; end != last {
			out = append(out, violation(model.CheckLineupContiguity, model.SeverityError, team, end, last,
				"team %s last lineup ends at %d, game ends at %d", team, end, last))
		}
		for i := range states {
			s := &states[i]
			if s.StartOrder > s.EndOrder || (s.StartOrder == s.EndOrder && len(states) > 1) {
				out = append(out, violation(model.CheckLineupContiguity, model.SeverityError, team, s.StartOrder, s.EndOrder,
					"team %s lineup has empty range [%d, %d)", team, s.StartOrder, s.EndOrder))
			}
			if i == 0 {
				continue
			}
			prev := &states[i-1]
			switch {
			case s.StartOrder > prev.EndOrder:
				out = append(out, violation(model.CheckLineupContiguity, model.SeverityError, team, prev.EndOrder, s.StartOrder,
					"team %s has no lineup between %d and %d", team, prev.EndOrder, s.StartOrder))
			case s.StartOrder < prev.EndOrder:
				out = append(out, violation(model.CheckLineupContiguity, model.SeverityError, team, s.StartOrder, prev.EndOrder,
					"team %s lineups overlap between %d and %d", team, s.StartOrder, prev.EndOrder))
			}
		}
	}
	return out
}

func possessionPartition(in *Input) []model.Violation {
	ps := in.Possessions
	first, last := in.Log.FirstOrder(), in.Log.LastOrder()
	if len(ps) == 0 {
		return []model.Violation{violation(model.CheckPossessionPartition, model.SeverityError, "", first, last, "no possessions")}
	}

	var out []model.Violation
	if ps[0].StartOrder != first {
		out = append(out, violation(model.CheckPossessionPartition, model.SeverityError, "", first, ps[0].StartOrder,
			"first possession starts at %d, game starts at %d", ps[0].StartOrder, first))
	}
	if end := ps[len(ps)-1].EndOrder; end != last {
		out = append(out, violation(model.CheckPossessionPartition, model.SeverityError, "", end, last,
			"last possession ends at %d, game ends at %d", end, last))
	}
	for i := range ps {
		p := &ps[i]
		if p.PossessionNumber != i+1 {
			out = append(out, violation(model.CheckPossessionPartition, model.SeverityError, p.TeamID, p.StartOrder, p.EndOrder,
				"possession %d found at position %d", p.PossessionNumber, i+1))
		}
		if p.StartOrder > p.EndOrder || in.Log.IndexOf(p.StartOrder) < 0 || in.Log.IndexOf(p.EndOrder) < 0 {
			out = append(out, violation(model.CheckPossessionPartition, model.SeverityError, p.TeamID, p.StartOrder, p.EndOrder,
				"possession %d has invalid range [%d, %d]", p.PossessionNumber, p.StartOrder, p.EndOrder))
		}
		if p.TeamID == "" {
			out = append(out, violation(model.CheckPossessionPartition, model.SeverityWarning, "", p.StartOrder, p.EndOrder,
				"possession %d has no owner", p.PossessionNumber))
		}
		if i == 0 {
			continue
		}
		prev := &ps[i-1]
		want, ok := in.Log.Next(prev.EndOrder)
		switch {
		case !ok || p.StartOrder < want:
			out = append(out, violation(model.CheckPossessionPartition, model.SeverityError, p.TeamID, p.StartOrder, prev.EndOrder,
				"possessions %d and %d overlap", prev.PossessionNumber, p.PossessionNumber))
		case p.StartOrder > want:
			out = append(out, violation(model.CheckPossessionPartition, model.SeverityError, "", want, p.StartOrder,
				"events between possessions %d and %d belong to no possession", prev.PossessionNumber, p.PossessionNumber))
		}
	}
	return out
}

func scoreReconciliation(in *Input) []model.Violation {
	var out []model.Violation
	log := in.Log

	attributed := make(map[string]int, len(in.Teams))
	for i := range in.Possessions {
		p := &in.Possessions[i]
		attributed[p.TeamID] += p.PointsScored

		lo, hi := log.IndexOf(p.StartOrder), log.IndexOf(p.EndOrder)
		if lo < 0 || hi < 0 {
			continue
		}
		scored := 0
		foreign := 0
		for j := lo; j <= hi; j++ {
			e := log.At(j)
			if !scoring(&e) {
				continue
			}
			if e.TeamID != "" && e.TeamID != p.TeamID {
				foreign += e.Points
				continue
			}
			scored += e.Points
		}
		if scored != p.PointsScored || foreign != 0 {
			out = append(out, violation(model.CheckScoreReconciliation, model.SeverityError, p.TeamID, p.StartOrder, p.EndOrder,
				"possession %d records %d points, events show %d for %s and %d for the opponent",
				p.PossessionNumber, p.PointsScored, scored, p.TeamID, foreign))
		}
	}

	if in.FinalScore == nil {
		return append(out, violation(model.CheckScoreReconciliation, model.SeverityInfo, "", 0, 0,
			"no final score supplied"))
	}

	logged := make(map[string]int, len(in.Teams))
	for i := 0; i < log.Len(); i++ {
		if e := log.At(i); scoring(&e) {
			logged[e.TeamID] += e.Points
		}
	}
	teams := append([]string(nil), in.Teams...)
	sort.Strings(teams)
	for _, team := range teams {
		final, ok := in.FinalScore[team]
		if !ok {
			out = append(out, violation(model.CheckScoreReconciliation, model.SeverityWarning, team, 0, 0,
				"no final score for team %s", team))
			continue
		}
		if attributed[team] != final {
			out = append(out, violation(model.CheckScoreReconciliation, model.SeverityError, team, 0, 0,
				"team %s possessions total %d, final score %d (scoring events total %d)", team, attributed[team], final, logged[team]))
		}
	}
	return out
}

func scoring(e *model.PlayEvent) bool {
	return e.Points > 0 && (e.EventType == model.EventShotMade || e.EventType == model.EventFreeThrow)
}

func linkCoverage(in *Input) []model.Violation {
	var out []model.Violation
	numbers := make(map[int]struct{}, len(in.Possessions))
	for _, p := range in.Possessions {
		numbers[p.PossessionNumber] = struct{}{}
	}

	seen := make(map[int64]int, len(in.Links))
	for _, l := range in.Links {
		seen[l.PlaySequenceOrder]++
		if _, ok := numbers[l.PossessionNumber]; !ok {
			out = append(out, violation(model.CheckLinkCoverage, model.SeverityError, "", l.PlaySequenceOrder, l.PlaySequenceOrder,
				"event %d links to unknown possession %d", l.PlaySequenceOrder, l.PossessionNumber))
		}
	}
	unlinked := make(map[int64]struct{}, len(in.Unlinked))
	for _, order := range in.Unlinked {
		unlinked[order] = struct{}{}
		out = append(out, violation(model.CheckLinkCoverage, model.SeverityError, "", order, order,
			"event %d belongs to no possession", order))
	}
	for i := 0; i < in.Log.Len(); i++ {
		order := in.Log.At(i).SequenceOrder
		switch n := seen[order]; {
		case n == 0:
			if _, ok := unlinked[order]; !ok {
				out = append(out, violation(model.CheckLinkCoverage, model.SeverityError, "", order, order,
					"event %d has no link and was not reported unlinked", order))
			}
		case n > 1:
			out = append(out, violation(model.CheckLinkCoverage, model.SeverityError, "", order, order,
				"event %d belongs to %d possessions", order, n))
		}
	}
	return out
}

// eventSequence flags a rebound right after a made field goal. A made shot
// ends the possession, so such a rebound means the log misses an event.
func eventSequence(in *Input) []model.Violation {
	var out []model.Violation
	for i := 1; i < in.Log.Len(); i++ {
		e := in.Log.At(i)
		if e.EventType != model.EventRebound {
			continue
		}
		prev := in.Log.At(i - 1)
		if prev.EventType != model.EventShotMade {
			continue
		}
		out = append(out, violation(model.CheckEventSequence, model.SeverityWarning, e.TeamID, prev.SequenceOrder, e.SequenceOrder,
			"rebound at order %d follows made shot at order %d", e.SequenceOrder, prev.SequenceOrder))
	}
	return out
}
