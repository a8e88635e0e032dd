package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	// CSV validation failures, raised before any match state is written.
	// The parser wraps ErrMalformedInput with the offending header or row.
	ErrMalformedInput     = errors.New("malformed csv input")
	ErrTooManyPlayers     = errors.New("more than two players detected")
	ErrInvalidPlayerCount = errors.New("invalid number of players")

	// ErrIngestFailed is the generic failure surfaced to the caller after a
	// full rollback; the underlying cause is only logged.
	ErrIngestFailed = errors.New("failed to create match")

	// ErrLookupFailed marks a read that expected exactly one shape of result
	// and found another, e.g. a frame closing without two distinct players.
	// Fatal to the ingestion in flight, not to the process.
	ErrLookupFailed = errors.New("unexpected lookup result")

	ErrMatchNotFound  = errors.New("match not found")
	ErrFrameNotFound  = errors.New("frame not found")
	ErrBreakNotFound  = errors.New("break not found")
	ErrPlayerNotFound = errors.New("player not found")
)
