package roster

import "errors"

// Sentinel kinds for resolution failures.
var (
	ErrUnresolved = errors.New("player not resolved")
	ErrAmbiguous  = errors.New("player reference is ambiguous")
)
