package ogame

import "errors"

// Sentinel kinds for upstream failures. ErrAPI covers transport and parse
// failures that survived all retries and strategies; the NotFound kinds are
// recoverable by the caller (suggestions, config correction) and must stay
// structurally distinct from ErrAPI.
var (
	ErrAPI              = errors.New("ogame api error")
	ErrUniverseNotFound = errors.New("universe not found")
	ErrPlayerNotFound   = errors.New("player not found")
)
