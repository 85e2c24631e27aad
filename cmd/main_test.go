package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/courtside/internal/adapters/repository"
	"github.com/okian/courtside/internal/adapters/source"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/testgames"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()
	assert.Equal(t, "courtside", cmd.Use)

	for _, name := range []string{"run", "report", "generate"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, formatText, format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "report", "--format", "xml", "x.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, exitCommandError, exitCode(err))
}

func TestGenerateAndRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "games")
	out, err := execute(t, "generate", dir, "--games", "3", "--seed", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 3 games")

	out, err = execute(t, "run", dir, "--format", "json", "--workers", "2", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)

	var got runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.RunID)
	require.Len(t, got.Games, 3)
	assert.Equal(t, "sim-000040", got.Games[0].GameID)
	for _, s := range got.Games {
		assert.Equal(t, model.StatusSuccess, s.Status)
		assert.Len(t, s.Digest, 64)
	}
}

func TestRunPersistsToSQLite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, source.WriteFile(filepath.Join(dir, "a.yaml"), testgames.Generate("a", 1), testgames.Generate("b", 2)))
	dbPath := filepath.Join(t.TempDir(), "games.db")

	out, err := execute(t, "run", dir, "--store", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "GAME")
	assert.Contains(t, out, "2 games")

	store, err := repository.OpenSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, 2, store.Count(context.Background()))
}

func TestRunReportsFailedGames(t *testing.T) {
	dir := t.TempDir()
	good := testgames.Generate("good", 3)
	bad := testgames.Generate("bad", 4)
	bad.Events[1].SequenceOrder = bad.Events[0].SequenceOrder
	require.NoError(t, source.WriteFile(filepath.Join(dir, "games.yaml"), good, bad))

	out, err := execute(t, "run", dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errGamesFailed))
	assert.Equal(t, exitFailure, exitCode(err))
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "success")
}

func TestReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	game := testgames.NewBuilder("r1").
		StartPeriod(1).
		Shot(testgames.Home, 1, 2, true).
		Shot(testgames.Away, 1, 3, true).
		EndPeriod().
		Build()
	game.FinalScore[testgames.Home] = 4
	require.NoError(t, source.WriteFile(path, game))

	out, err := execute(t, "report", path)
	require.NoError(t, err)
	assert.Contains(t, out, "r1: success_with_warnings (quality_flag=true)")
	assert.Contains(t, out, "PASS structure")
	assert.Contains(t, out, "FAIL score_reconciliation")

	out, err = execute(t, "report", path, "--format", "json")
	require.NoError(t, err)
	var reports []model.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.True(t, reports[0].QualityFlag)
}

func TestReportLineupsAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	b := testgames.NewBuilder("r2").StartPeriod(1)
	b.Shot(testgames.Home, 1, 2, true)
	b.Sub(testgames.Home, 6, 1)
	subOrder := b.LastOrder()
	b.Shot(testgames.Away, 1, 2, true).EndPeriod()
	require.NoError(t, source.WriteFile(path, b.Build()))

	out, err := execute(t, "report", path, "--at", strconv.FormatInt(subOrder, 10), "--format", "json")
	require.NoError(t, err)

	var states []model.LineupState
	require.NoError(t, json.Unmarshal([]byte(out), &states))
	require.Len(t, states, 2)
	assert.Equal(t, testgames.Home, states[0].TeamID)
	assert.Equal(t, subOrder, states[0].StartOrder)
	assert.Contains(t, states[0].Players, testgames.PlayerID(testgames.Home, 6))
	assert.NotContains(t, states[0].Players, testgames.PlayerID(testgames.Home, 1))
	assert.Equal(t, testgames.Away, states[1].TeamID)

	out, err = execute(t, "report", path, "--at", strconv.FormatInt(subOrder-1, 10))
	require.NoError(t, err)
	assert.Contains(t, out, "PLAYERS")
	assert.Contains(t, out, testgames.PlayerID(testgames.Home, 1))
	assert.NotContains(t, out, testgames.PlayerID(testgames.Home, 6))

	out, err = execute(t, "report", path, "--at", "9999", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestRunMissingPath(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "none"))
	require.Error(t, err)
	assert.Equal(t, exitCommandError, exitCode(err))
}

func TestConfigFileFlag(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "courtside.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("worker_count: 0\n"), 0o600))

	_, err := execute(t, "--config", cfgPath, "report", "x.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker_count")
}
