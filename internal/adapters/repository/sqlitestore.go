package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/metrics"
)

//go:embed schema.sql
var schemaSQL string

const defaultBusyTimeout = 5 * time.Second

// SQLiteStore is a Store backed by a SQLite database in WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	cfg := sqliteSettings{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// One writer at a time; pragmas are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	metrics.UpdateRepositoryGames(s.Count(ctx))
	return s, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Replace implements Store. The game's previous rows are deleted and the new
// set inserted in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, result *model.Result) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
		if err != nil {
			metrics.RecordRepositoryError()
		}
	}()

	if result.GameID == "" {
		return fmt.Errorf("replace: %w", ErrNoGameID)
	}
	report, err := json.Marshal(result.Report)
	if err != nil {
		return fmt.Errorf("replace %q: encode report: %w", result.GameID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace %q: begin: %w", result.GameID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = deleteGame(ctx, tx, result.GameID); err != nil {
		return fmt.Errorf("replace %q: %w", result.GameID, err)
	}
	if err = insertGame(ctx, tx, result, report); err != nil {
		return fmt.Errorf("replace %q: %w", result.GameID, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("replace %q: commit: %w", result.GameID, err)
	}
	metrics.UpdateRepositoryGames(s.Count(ctx))
	return nil
}

func deleteGame(ctx context.Context, tx *sql.Tx, gameID string) error {
	for _, table := range []string{
		"play_possession_links",
		"possession_events",
		"substitution_events",
		"lineup_states",
		"games",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE game_id = ?", gameID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

func insertGame(ctx context.Context, tx *sql.Tx, r *model.Result, report []byte) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO games (game_id, run_id, status, quality_flag, violations, digest, error, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GameID, r.RunID, string(r.Status), r.Report.QualityFlag,
		len(r.Report.Violations()), r.Digest, r.Err, string(report),
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	for i, l := range r.Lineups {
		players, err := json.Marshal(l.Players)
		if err != nil {
			return fmt.Errorf("encode lineup players: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lineup_states (game_id, seq, team_id, period, start_order, end_order, players, exception, degraded)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.GameID, i, l.TeamID, l.Period, l.StartOrder, l.EndOrder, string(players), l.Exception, l.Degraded,
		); err != nil {
			return fmt.Errorf("insert lineup state: %w", err)
		}
	}

	for i, sub := range r.Substitutions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO substitution_events (game_id, seq, team_id, seq_order, player_in, player_out)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.GameID, i, sub.TeamID, sub.Order, sub.PlayerIn, sub.PlayerOut,
		); err != nil {
			return fmt.Errorf("insert substitution: %w", err)
		}
	}

	for _, p := range r.Possessions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO possession_events (game_id, possession_number, team_id, start_order, end_order, outcome, points_scored)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.GameID, p.PossessionNumber, p.TeamID, p.StartOrder, p.EndOrder, string(p.Outcome), p.PointsScored,
		); err != nil {
			return fmt.Errorf("insert possession: %w", err)
		}
	}

	for _, link := range r.Links {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO play_possession_links (game_id, play_sequence_order, possession_number)
			VALUES (?, ?, ?)`,
			r.GameID, link.PlaySequenceOrder, link.PossessionNumber,
		); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, gameID string) (model.Result, error) {
	r := model.Result{GameID: gameID}
	var status, report string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, status, digest, error, report FROM games WHERE game_id = ?`, gameID,
	).Scan(&r.RunID, &status, &r.Digest, &r.Err, &report)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Result{}, fmt.Errorf("get %q: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return model.Result{}, fmt.Errorf("get %q: %w", gameID, err)
	}
	r.Status = model.Status(status)
	if err := json.Unmarshal([]byte(report), &r.Report); err != nil {
		return model.Result{}, fmt.Errorf("get %q: decode report: %w", gameID, err)
	}

	if r.Lineups, err = s.lineups(ctx, gameID); err != nil {
		return model.Result{}, fmt.Errorf("get %q: %w", gameID, err)
	}
	if r.Substitutions, err = s.substitutions(ctx, gameID); err != nil {
		return model.Result{}, fmt.Errorf("get %q: %w", gameID, err)
	}
	if r.Possessions, err = s.possessions(ctx, gameID); err != nil {
		return model.Result{}, fmt.Errorf("get %q: %w", gameID, err)
	}
	if r.Links, err = s.links(ctx, gameID); err != nil {
		return model.Result{}, fmt.Errorf("get %q: %w", gameID, err)
	}
	return r, nil
}

func (s *SQLiteStore) lineups(ctx context.Context, gameID string) ([]model.LineupState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, period, start_order, end_order, players, exception, degraded
		FROM lineup_states WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query lineup states: %w", err)
	}
	defer rows.Close()

	out := []model.LineupState{}
	for rows.Next() {
		l := model.LineupState{GameID: gameID}
		var players string
		if err := rows.Scan(&l.TeamID, &l.Period, &l.StartOrder, &l.EndOrder, &players, &l.Exception, &l.Degraded); err != nil {
			return nil, fmt.Errorf("scan lineup state: %w", err)
		}
		if err := json.Unmarshal([]byte(players), &l.Players); err != nil {
			return nil, fmt.Errorf("decode lineup players: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) substitutions(ctx context.Context, gameID string) ([]model.SubstitutionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, seq_order, player_in, player_out
		FROM substitution_events WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query substitutions: %w", err)
	}
	defer rows.Close()

	out := []model.SubstitutionEvent{}
	for rows.Next() {
		sub := model.SubstitutionEvent{GameID: gameID}
		if err := rows.Scan(&sub.TeamID, &sub.Order, &sub.PlayerIn, &sub.PlayerOut); err != nil {
			return nil, fmt.Errorf("scan substitution: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) possessions(ctx context.Context, gameID string) ([]model.PossessionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT possession_number, team_id, start_order, end_order, outcome, points_scored
		FROM possession_events WHERE game_id = ? ORDER BY possession_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query possessions: %w", err)
	}
	defer rows.Close()

	out := []model.PossessionEvent{}
	for rows.Next() {
		p := model.PossessionEvent{GameID: gameID}
		var outcome string
		if err := rows.Scan(&p.PossessionNumber, &p.TeamID, &p.StartOrder, &p.EndOrder, &outcome, &p.PointsScored); err != nil {
			return nil, fmt.Errorf("scan possession: %w", err)
		}
		p.Outcome = model.Outcome(outcome)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) links(ctx context.Context, gameID string) ([]model.PlayPossessionLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT play_sequence_order, possession_number
		FROM play_possession_links WHERE game_id = ? ORDER BY play_sequence_order`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	out := []model.PlayPossessionLink{}
	for rows.Next() {
		link := model.PlayPossessionLink{GameID: gameID}
		if err := rows.Scan(&link.PlaySequenceOrder, &link.PossessionNumber); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.game_id, g.status, g.violations, g.digest, g.error,
			(SELECT COUNT(*) FROM possession_events p WHERE p.game_id = g.game_id),
			(SELECT COUNT(*) FROM lineup_states l WHERE l.game_id = g.game_id)
		FROM games g ORDER BY g.game_id`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []model.Summary
	for rows.Next() {
		var sum model.Summary
		var status string
		if err := rows.Scan(&sum.GameID, &status, &sum.Violations, &sum.Digest, &sum.Err, &sum.Possessions, &sum.Lineups); err != nil {
			return nil, fmt.Errorf("scan game summary: %w", err)
		}
		sum.Status = model.Status(status)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Count implements Store. It returns 0 when the database cannot be read.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		metrics.RecordRepositoryError()
		return 0
	}
	return n
}
