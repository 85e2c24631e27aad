package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/linker"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/possession"
	"github.com/okian/courtside/internal/domain/quality"
	"github.com/okian/courtside/internal/domain/roster"
	"github.com/okian/courtside/internal/domain/validate"
	"github.com/okian/courtside/pkg/metrics"
)

// Digest domains. The version suffix changes when the hashed layout does.
const (
	domainGame   = "courtside/game/v1"
	domainResult = "courtside/result/v1"
)

// ErrTeams reports a game that does not name exactly two teams.
var ErrTeams = errors.New("game must have exactly two teams")

// Pipeline reconstructs the state of single games. It holds no per-game
// state and is safe for concurrent use.
type Pipeline struct {
	fuzzyThreshold float64
}

// PipelineOption applies a configuration option to the Pipeline.
type PipelineOption func(*Pipeline)

// WithResolverThreshold sets the minimum similarity the roster resolver's
// fuzzy stage accepts.
func WithResolverThreshold(t float64) PipelineOption {
	return func(p *Pipeline) {
		if t > 0 && t <= 1 {
			p.fuzzyThreshold = t
		}
	}
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{fuzzyThreshold: roster.DefaultFuzzyThreshold}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reconstruct runs a default Pipeline over game.
func Reconstruct(ctx context.Context, game model.Game, opts ...PipelineOption) model.Result {
	return NewPipeline(opts...).Reconstruct(ctx, game)
}

// Reconstruct validates the log of game and derives its lineups, possessions,
// links and quality report. A game that cannot be replayed yields a failed
// result carrying the structural error; no partial records are returned.
func (p *Pipeline) Reconstruct(ctx context.Context, game model.Game) model.Result {
	start := time.Now()
	result := p.reconstruct(ctx, &game)
	result.Digest = ResultDigest(&result)

	metrics.RecordReconstructionLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordGameProcessed(string(result.Status))
	metrics.RecordDerived(len(game.Events), len(result.Lineups), len(result.Possessions))
	for _, v := range result.Report.Violations() {
		metrics.RecordViolation(string(v.Check), string(v.Severity))
	}
	return result
}

func (p *Pipeline) reconstruct(ctx context.Context, game *model.Game) model.Result {
	teams := game.Teams()
	if len(teams) != 2 {
		return failedResult(game.GameID, fmt.Errorf("%w: found %d", ErrTeams, len(teams)))
	}

	log, err := validate.Validate(game.GameID, game.Events)
	if err != nil {
		return failedResult(game.GameID, err)
	}

	index := roster.NewIndex(game.Roster, roster.WithFuzzyThreshold(p.fuzzyThreshold))

	lineups, err := lineup.Track(ctx, log, index, teams)
	if err != nil {
		return failedResult(game.GameID, err)
	}
	possessions, err := possession.Track(ctx, log, index, teams)
	if err != nil {
		return failedResult(game.GameID, err)
	}
	links, unlinked := linker.Link(log, possessions.Possessions)

	warnings := make([]model.Violation, 0, len(lineups.Warnings)+len(possessions.Warnings))
	warnings = append(warnings, lineups.Warnings...)
	warnings = append(warnings, possessions.Warnings...)

	report := quality.Check(quality.Input{
		Log:         log,
		Teams:       teams,
		FinalScore:  game.FinalScore,
		Lineups:     lineups.Lineups,
		Possessions: possessions.Possessions,
		Links:       links,
		Unlinked:    unlinked,
		Warnings:    warnings,
	})

	return model.Result{
		GameID:        game.GameID,
		Status:        report.Status,
		Lineups:       lineups.Lineups,
		Substitutions: lineups.Substitutions,
		Possessions:   possessions.Possessions,
		Links:         links,
		Report:        report,
	}
}

func failedResult(gameID string, err error) model.Result {
	return model.Result{
		GameID: gameID,
		Status: model.StatusFailed,
		Report: quality.Unprocessable(gameID, err),
		Err:    err.Error(),
	}
}

// resultBody is the hashed part of a Result. Run metadata is excluded so
// re-runs over the same input hash identically.
type resultBody struct {
	GameID        string                     `json:"game_id"`
	Status        model.Status               `json:"status"`
	Lineups       []model.LineupState        `json:"lineups"`
	Substitutions []model.SubstitutionEvent  `json:"substitutions"`
	Possessions   []model.PossessionEvent    `json:"possessions"`
	Links         []model.PlayPossessionLink `json:"links"`
	Report        model.Report               `json:"report"`
}

// ResultDigest hashes the derived records and report of r.
func ResultDigest(r *model.Result) string {
	return digest(domainResult, resultBody{
		GameID:        r.GameID,
		Status:        r.Status,
		Lineups:       r.Lineups,
		Substitutions: r.Substitutions,
		Possessions:   r.Possessions,
		Links:         r.Links,
		Report:        r.Report,
	})
}

// InputDigest hashes the submitted game.
func InputDigest(g *model.Game) string {
	return digest(domainGame, g)
}

// digest is SHA256(domain || 0x00 || json(v)). encoding/json emits struct
// fields in declaration order and map keys sorted, so equal values hash equal.
func digest(domain string, v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Only unsupported types fail to marshal; model types have none.
		panic(fmt.Sprintf("digest %s: %v", domain, err))
	}
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
