package source

import "errors"

var (
	// ErrUnsupportedFormat is returned for files that are not JSON or YAML.
	ErrUnsupportedFormat = errors.New("unsupported game file format")
	// ErrNoGames is returned when a path holds no game files.
	ErrNoGames = errors.New("no games found")
	// ErrMissingGameID is returned for a game document without a game id.
	ErrMissingGameID = errors.New("game document has no game_id")
)
