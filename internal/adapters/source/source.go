// Package source loads game bundles (event log, roster and final score)
// from JSON and YAML files.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/courtside/internal/domain/model"
)

// gameDoc is the on-disk layout of one game. Clocks are strings such as
// "11:42" or "4.7", or plain numbers of seconds.
type gameDoc struct {
	GameID     string               `yaml:"game_id,omitempty"`
	HomeTeamID string               `yaml:"home_team_id,omitempty"`
	AwayTeamID string               `yaml:"away_team_id,omitempty"`
	FinalScore map[string]int       `yaml:"final_score,omitempty"`
	Roster     []model.RosterPlayer `yaml:"roster,omitempty"`
	Events     []eventDoc           `yaml:"events,omitempty"`
}

type eventDoc struct {
	GameID            string          `yaml:"game_id,omitempty"`
	SequenceOrder     int64           `yaml:"sequence_order"`
	Period            int             `yaml:"period"`
	Clock             clock           `yaml:"clock"`
	EventType         model.EventType `yaml:"event_type"`
	Subtype           string          `yaml:"subtype,omitempty"`
	TeamID            string          `yaml:"team_id,omitempty"`
	PlayerID          string          `yaml:"player_id,omitempty"`
	SecondaryPlayerID string          `yaml:"secondary_player_id,omitempty"`
	Points            int             `yaml:"points,omitempty"`
	Description       string          `yaml:"description,omitempty"`
}

type clock time.Duration

// UnmarshalYAML accepts any scalar ParseClock understands.
func (c *clock) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: clock must be a scalar", node.Line)
	}
	d, err := model.ParseClock(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = clock(d)
	return nil
}

// Supported reports whether path has a game file extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads every game under path. A directory is read non-recursively in
// file name order, skipping files with other extensions.
func Load(path string) ([]model.Game, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	if !info.IsDir() {
		return LoadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var games []model.Game
	for _, name := range names {
		g, err := LoadFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		games = append(games, g...)
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoGames)
	}
	return games, nil
}

// LoadFile reads the games of one file. JSON files hold a single game; YAML
// files may hold several documents.
func LoadFile(path string) ([]model.Game, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game file: %w", err)
	}
	games, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return games, nil
}

// Decode parses a stream of game documents. JSON is read by the same
// decoder, being a subset of YAML.
func Decode(r io.Reader) ([]model.Game, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var games []model.Game
	for {
		var doc gameDoc
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse game: %w", err)
		}
		g, err := doc.game()
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if len(games) == 0 {
		return nil, ErrNoGames
	}
	return games, nil
}

func (d *gameDoc) game() (model.Game, error) {
	if d.GameID == "" {
		return model.Game{}, ErrMissingGameID
	}
	g := model.Game{
		GameID:     d.GameID,
		HomeTeamID: d.HomeTeamID,
		AwayTeamID: d.AwayTeamID,
		Roster:     d.Roster,
		FinalScore: d.FinalScore,
		Events:     make([]model.PlayEvent, len(d.Events)),
	}
	for i := range d.Events {
		e := &d.Events[i]
		gameID := e.GameID
		if gameID == "" {
			gameID = d.GameID
		}
		g.Events[i] = model.PlayEvent{
			GameID:            gameID,
			SequenceOrder:     e.SequenceOrder,
			Period:            e.Period,
			ClockRemaining:    time.Duration(e.Clock),
			EventType:         e.EventType,
			Subtype:           e.Subtype,
			TeamID:            e.TeamID,
			PlayerID:          e.PlayerID,
			SecondaryPlayerID: e.SecondaryPlayerID,
			Points:            e.Points,
			Description:       e.Description,
		}
	}
	return g, nil
}
