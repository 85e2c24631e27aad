// Package roster resolves player references against a game's roster in two
// stages: exact id match first, then a deterministic name match. Ties are
// reported as ambiguous and never guessed.
package roster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/courtside/internal/domain/model"
)

// DefaultFuzzyThreshold is the fuzzy stage threshold used when none is configured.
const DefaultFuzzyThreshold = 0.85

// Method names the stage that resolved a reference.
type Method string

// Resolution methods, strongest first.
const (
	MethodID          Method = "id"
	MethodNameExact   Method = "name_exact"
	MethodNameLast    Method = "name_last"
	MethodNameInitial Method = "name_initial"
	MethodNameFuzzy   Method = "name_fuzzy"
)

// Resolution is a resolved player reference.
type Resolution struct {
	PlayerID string
	TeamID   string
	Method   Method
	Score    float64
}

// Option applies a configuration option to the Index.
type Option func(*Index)

// WithFuzzyThreshold sets the minimum similarity for fuzzy name matches.
func WithFuzzyThreshold(threshold float64) Option {
	return func(x *Index) {
		if threshold > 0 && threshold <= 1 {
			x.threshold = threshold
		}
	}
}

type entry struct {
	player model.RosterPlayer
	name   string // normalized full name
	first  string
	last   string
}

// Index is an immutable, per-game view of the roster. It is safe for
// concurrent reads.
type Index struct {
	entries   []entry // sorted by player id
	byID      map[string]int
	threshold float64
}

// NewIndex builds an index over players. Duplicate ids keep the first entry.
func NewIndex(players []model.RosterPlayer, opts ...Option) *Index {
	x := &Index{
		byID:      make(map[string]int, len(players)),
		threshold: DefaultFuzzyThreshold,
	}
	for _, opt := range opts {
		opt(x)
	}

	sorted := make([]model.RosterPlayer, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PlayerID < sorted[j].PlayerID })

	for _, p := range sorted {
		if p.PlayerID == "" {
			continue
		}
		if _, dup := x.byID[p.PlayerID]; dup {
			continue
		}
		n := Normalize(p.Name)
		e := entry{player: p, name: n}
		if fields := strings.Fields(n); len(fields) > 0 {
			e.first = fields[0]
			e.last = fields[len(fields)-1]
		}
		x.byID[p.PlayerID] = len(x.entries)
		x.entries = append(x.entries, e)
	}
	return x
}

// Player returns the roster entry for id.
func (x *Index) Player(id string) (model.RosterPlayer, bool) {
	i, ok := x.byID[id]
	if !ok {
		return model.RosterPlayer{}, false
	}
	return x.entries[i].player, true
}

// TeamOf returns the team of player id, or "" if unknown.
func (x *Index) TeamOf(id string) string {
	p, ok := x.Player(id)
	if !ok {
		return ""
	}
	return p.TeamID
}

// Starters returns the sorted starter ids of team.
func (x *Index) Starters(team string) []string {
	var out []string
	for _, e := range x.entries {
		if e.player.TeamID == team && e.player.Starter {
			out = append(out, e.player.PlayerID)
		}
	}
	return out
}

// Resolve maps ref (a player id or a name) to a roster player. When team is
// not empty, only that team's players are considered.
func (x *Index) Resolve(team, ref string) (Resolution, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Resolution{}, fmt.Errorf("%w: empty reference", ErrUnresolved)
	}

	if p, ok := x.Player(ref); ok && (team == "" || p.TeamID == team) {
		return Resolution{PlayerID: p.PlayerID, TeamID: p.TeamID, Method: MethodID, Score: 1}, nil
	}

	name := Normalize(ref)
	if name == "" {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnresolved, ref)
	}
	candidates := x.candidates(team)

	if r, done, err := pick(candidates, MethodNameExact, ref, func(e *entry) bool { return e.name == name }); done {
		return r, err
	}

	fields := strings.Fields(name)
	if len(fields) == 1 {
		if r, done, err := pick(candidates, MethodNameLast, ref, func(e *entry) bool { return e.last == name }); done {
			return r, err
		}
	}

	if len(fields) >= 2 && len([]rune(fields[0])) == 1 {
		initial := fields[0]
		last := strings.Join(fields[1:], " ")
		match := func(e *entry) bool {
			return strings.HasPrefix(e.first, initial) && strings.HasSuffix(e.name, " "+last)
		}
		if r, done, err := pick(candidates, MethodNameInitial, ref, match); done {
			return r, err
		}
	}

	return x.fuzzy(candidates, name, ref)
}

func (x *Index) candidates(team string) []*entry {
	out := make([]*entry, 0, len(x.entries))
	for i := range x.entries {
		if team == "" || x.entries[i].player.TeamID == team {
			out = append(out, &x.entries[i])
		}
	}
	return out
}

// pick returns done=true when exactly one candidate matches (resolved) or
// more than one does (ambiguous).
func pick(candidates []*entry, method Method, ref string, match func(*entry) bool) (Resolution, bool, error) {
	var found *entry
	for _, e := range candidates {
		if !match(e) {
			continue
		}
		if found != nil {
			return Resolution{}, true, fmt.Errorf("%w: %q matches %s and %s", ErrAmbiguous, ref, found.player.PlayerID, e.player.PlayerID)
		}
		found = e
	}
	if found == nil {
		return Resolution{}, false, nil
	}
	return Resolution{PlayerID: found.player.PlayerID, TeamID: found.player.TeamID, Method: method, Score: 1}, true, nil
}

func (x *Index) fuzzy(candidates []*entry, name, ref string) (Resolution, error) {
	var best *entry
	bestScore := 0.0
	tied := false
	for _, e := range candidates {
		score := similarity(name, e.name)
		switch {
		case score > bestScore:
			best, bestScore, tied = e, score, false
		case score == bestScore && best != nil:
			tied = true
		}
	}
	if best == nil || bestScore < x.threshold {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnresolved, ref)
	}
	if tied {
		return Resolution{}, fmt.Errorf("%w: %q", ErrAmbiguous, ref)
	}
	return Resolution{PlayerID: best.player.PlayerID, TeamID: best.player.TeamID, Method: MethodNameFuzzy, Score: bestScore}, nil
}
