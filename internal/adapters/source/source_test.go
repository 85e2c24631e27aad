package source

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/testgames"
)

func TestLoad_Directory(t *testing.T) {
	games, err := Load("testdata")
	require.NoError(t, err)
	require.Len(t, games, 3)

	assert.Equal(t, "game-a", games[0].GameID)
	assert.Equal(t, "game-b", games[1].GameID)
	assert.Equal(t, "game-c", games[2].GameID)
}

func TestLoadFile_JSON(t *testing.T) {
	games, err := LoadFile(filepath.Join("testdata", "game-a.json"))
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, []string{"HOM", "AWY"}, g.Teams())
	assert.Equal(t, map[string]int{"HOM": 2, "AWY": 0}, g.FinalScore)
	require.Len(t, g.Roster, 2)
	assert.True(t, g.Roster[0].Starter)
	assert.Equal(t, "Nikola Jokic", g.Roster[0].Name)

	require.Len(t, g.Events, 3)
	assert.Equal(t, 12*time.Minute, g.Events[0].ClockRemaining)
	assert.Equal(t, 11*time.Minute+42500*time.Millisecond, g.Events[1].ClockRemaining)
	assert.Equal(t, time.Duration(0), g.Events[2].ClockRemaining)
	assert.Equal(t, model.EventShotMade, g.Events[1].EventType)
	assert.Equal(t, "jump_shot", g.Events[1].Subtype)
	assert.Equal(t, 2, g.Events[1].Points)
	assert.Equal(t, "game-a", g.Events[1].GameID)
}

func TestLoadFile_YAMLStream(t *testing.T) {
	games, err := LoadFile(filepath.Join("testdata", "games-b.yaml"))
	require.NoError(t, err)
	require.Len(t, games, 2)

	sub := games[0].Events[1]
	assert.Equal(t, int64(20), sub.SequenceOrder)
	assert.Equal(t, 4700*time.Millisecond, sub.ClockRemaining)
	assert.Equal(t, model.EventSubstitution, sub.EventType)
	assert.Equal(t, "HOM6", sub.PlayerID)
	assert.Equal(t, "HOM1", sub.SecondaryPlayerID)
	assert.Equal(t, "SUB: Brown FOR Jokic", sub.Description)

	// An explicit event game id is kept so the validator can reject it.
	assert.Equal(t, "other", games[1].Events[0].GameID)
	assert.Empty(t, games[1].Roster)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want error
		msg  string
	}{
		{name: "unsupported extension", path: "testdata/notes.txt", want: ErrUnsupportedFormat},
		{name: "bad clock", path: "testdata/bad/clock.yml", want: model.ErrInvalidClock},
		{name: "unknown field", path: "testdata/bad/unknown.yaml", msg: "venue"},
		{name: "missing game id", path: "testdata/bad/noid.yaml", want: ErrMissingGameID},
		{name: "missing path", path: "testdata/none.json", msg: "load games"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	require.ErrorIs(t, err, ErrNoGames)

	_, err = Load(t.TempDir())
	require.ErrorIs(t, err, ErrNoGames)
}

func TestEncode_RoundTrip(t *testing.T) {
	games := []model.Game{
		testgames.Generate("sim-1", 1),
		testgames.Generate("sim-2", 2, testgames.WithPeriods(5)),
	}
	path := filepath.Join(t.TempDir(), "season.yaml")
	require.NoError(t, WriteFile(path, games...))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, games, got)
}

func TestClock_MarshalYAML(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{12 * time.Minute, "12:00"},
		{11*time.Minute + 42500*time.Millisecond, "11:42.5"},
		{4700 * time.Millisecond, "00:04.7"},
		{0, "00:00"},
	}
	for _, tt := range tests {
		v, err := clock(tt.in).MarshalYAML()
		require.NoError(t, err)
		assert.Equal(t, tt.want, v)

		d, err := model.ParseClock(tt.want)
		require.NoError(t, err)
		assert.Equal(t, tt.in, d)
	}
}

func TestEncode_KeepsForeignEventGameID(t *testing.T) {
	game := testgames.NewBuilder("g1").StartPeriod(1).Build()
	game.Events[0].GameID = "other"

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, game))
	assert.Contains(t, buf.String(), "game_id: other")

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "other", got[0].Events[0].GameID)
}
