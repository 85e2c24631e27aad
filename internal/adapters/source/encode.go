package source

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/courtside/internal/domain/model"
)

// MarshalYAML renders the clock as "MM:SS", keeping fractional seconds.
func (c clock) MarshalYAML() (any, error) {
	d := time.Duration(c)
	mins := int(d / time.Minute)
	secs := (d % time.Minute).Seconds()
	s := strconv.FormatFloat(secs, 'f', -1, 64)
	if secs < 10 {
		s = "0" + s
	}
	return fmt.Sprintf("%02d:%s", mins, s), nil
}

// Encode writes games to w as a YAML stream that Decode reads back.
func Encode(w io.Writer, games ...model.Game) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for i := range games {
		if err := enc.Encode(toDoc(&games[i])); err != nil {
			return fmt.Errorf("encode game %s: %w", games[i].GameID, err)
		}
	}
	return enc.Close()
}

// WriteFile writes games to a new YAML file at path.
func WriteFile(path string, games ...model.Game) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create game file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(f, games...)
}

func toDoc(g *model.Game) gameDoc {
	d := gameDoc{
		GameID:     g.GameID,
		HomeTeamID: g.HomeTeamID,
		AwayTeamID: g.AwayTeamID,
		FinalScore: g.FinalScore,
		Roster:     g.Roster,
		Events:     make([]eventDoc, len(g.Events)),
	}
	for i := range g.Events {
		e := &g.Events[i]
		gameID := e.GameID
		if gameID == g.GameID {
			gameID = ""
		}
		d.Events[i] = eventDoc{
			GameID:            gameID,
			SequenceOrder:     e.SequenceOrder,
			Period:            e.Period,
			Clock:             clock(e.ClockRemaining),
			EventType:         e.EventType,
			Subtype:           e.Subtype,
			TeamID:            e.TeamID,
			PlayerID:          e.PlayerID,
			SecondaryPlayerID: e.SecondaryPlayerID,
			Points:            e.Points,
			Description:       e.Description,
		}
	}
	return d
}
