package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("game not found")
	ErrNoGameID = errors.New("result has no game id")
	ErrClosed   = errors.New("store closed")
)
