package lineup

import (
	"errors"
	"fmt"
	"slices"

	"github.com/okian/courtside/internal/domain/model"
)

// LineupSize is the number of players a team has on the court.
const LineupSize = 5

var (
	errNotOnCourt     = errors.New("is not on the court")
	errAlreadyOnCourt = errors.New("is already on the court")
)

// teamState is the lineup of one team at one point of the replay. It is a
// value: transitions build a new state and never touch the previous one.
type teamState struct {
	team     string
	period   int
	start    int64
	players  []string // sorted, distinct
	ejected  []string // sorted; ejected players not yet replaced
	degraded bool
}

func (s teamState) expected() int { return LineupSize - len(s.ejected) }

func (s teamState) has(player string) bool {
	_, ok := slices.BinarySearch(s.players, player)
	return ok
}

// at returns a copy of s starting at order in period.
func (s teamState) at(order int64, period int) teamState {
	return teamState{
		team:     s.team,
		period:   period,
		start:    order,
		players:  slices.Clone(s.players),
		ejected:  slices.Clone(s.ejected),
		degraded: s.degraded,
	}
}

// swap is one resolved substitution.
type swap struct {
	in, out string
}

// apply runs swaps sequentially on a copy of s and fails when a swap or the
// resulting lineup is illegal. An out player who was ejected is a
// replacement and only clears the ejection.
func (s teamState) apply(order int64, swaps []swap) (teamState, error) {
	next := s.at(order, s.period)
	for _, sw := range swaps {
		if i, ok := slices.BinarySearch(next.ejected, sw.out); ok {
			next.ejected = slices.Delete(next.ejected, i, i+1)
		} else if !next.has(sw.out) {
			return next, fmt.Errorf("player %s %w", sw.out, errNotOnCourt)
		}
		if next.has(sw.in) {
			return next, fmt.Errorf("player %s %w", sw.in, errAlreadyOnCourt)
		}
		next.players = remove(next.players, sw.out)
		next.players = insert(next.players, sw.in)
	}
	if len(next.players) != next.expected() {
		return next, fmt.Errorf("%d players on court, want %d", len(next.players), next.expected())
	}
	return next, nil
}

// eject removes player from the court and remembers the missing slot.
func (s teamState) eject(order int64, player string) teamState {
	next := s.at(order, s.period)
	next.players = remove(next.players, player)
	next.ejected = insert(next.ejected, player)
	return next
}

func (s teamState) record(gameID string, end int64) model.LineupState {
	st := model.LineupState{
		GameID:     gameID,
		TeamID:     s.team,
		Period:     s.period,
		StartOrder: s.start,
		EndOrder:   end,
		Players:    slices.Clone(s.players),
		Degraded:   s.degraded,
	}
	if len(s.ejected) > 0 {
		st.Exception = model.ExceptionEjection
	}
	return st
}

func insert(sorted []string, v string) []string {
	i, ok := slices.BinarySearch(sorted, v)
	if ok {
		return sorted
	}
	return slices.Insert(sorted, i, v)
}

func remove(sorted []string, v string) []string {
	i, ok := slices.BinarySearch(sorted, v)
	if !ok {
		return sorted
	}
	return slices.Delete(sorted, i, i+1)
}
