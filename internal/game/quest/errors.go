package quest

import (
	"errors"
	"fmt"
)

var (
	// ErrQuestNotFound is returned when a quest id is not in the catalog.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrQuestLocked is returned when prerequisites are not satisfied.
	ErrQuestLocked = errors.New("quest locked")
	// ErrMissingReference marks a prerequisite id absent from the catalog.
	// The referencing quest stays locked.
	ErrMissingReference = errors.New("missing quest reference")
	// ErrPlayerNotLoaded is returned when the player has no attached state
	// in the world (offline or still loading).
	ErrPlayerNotLoaded = errors.New("player not loaded")
	// ErrStorageUnavailable wraps persistence failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ParseError describes a definition record that could not be loaded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing quest record %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
