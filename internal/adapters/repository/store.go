// Package repository persists reconstructed games.
package repository

import (
	"context"

	"github.com/okian/courtside/internal/domain/model"
)

// Store provides read/write access to reconstruction results.
type Store interface {
	// Replace stores result as the only derived record set of its game.
	// Records of an earlier run of the same game are removed.
	Replace(ctx context.Context, result *model.Result) error

	// Get returns the stored result of a game.
	// Returns ErrNotFound if the game is unknown.
	Get(ctx context.Context, gameID string) (model.Result, error)

	// List returns a summary per stored game ordered by game id.
	List(ctx context.Context) ([]model.Summary, error)

	// Count returns the number of games stored.
	Count(ctx context.Context) int

	// Close releases the store's resources.
	Close() error
}
