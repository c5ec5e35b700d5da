package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Construction-time errors
	ErrCompilation    = errors.New("rule set compilation failed")
	ErrInvalidBlock   = errors.New("invalid block")
	ErrDuplicateBlock = fmt.Errorf("%w: duplicate id", ErrInvalidBlock)

	// Judge errors
	ErrUnparseableJudgeResponse = errors.New("unparseable judge response")
)

// NewNotFoundError creates a not-found error with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewInvalidBlockError reports a malformed block
func NewInvalidBlockError(id string, reason string) error {
	if id == "" {
		return fmt.Errorf("%w: %s", ErrInvalidBlock, reason)
	}
	return fmt.Errorf("%w %q: %s", ErrInvalidBlock, id, reason)
}

// IsNotFoundError reports whether err is a not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConstructionError reports whether err is a static input error that
// should abort a run before any evaluation happens
func IsConstructionError(err error) bool {
	return errors.Is(err, ErrCompilation) ||
		errors.Is(err, ErrInvalidBlock)
}
