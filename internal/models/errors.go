package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrClaimNotReady    = errors.New("claim not ready")
	ErrAlreadyClaimed   = errors.New("task already claimed")
	ErrNoTasksAvailable = errors.New("no tasks available")
	ErrUserNotFound     = errors.New("user not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskClosed       = errors.New("task is closed")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrMalformedRow     = errors.New("malformed row")
	ErrSchemaMismatch   = errors.New("schema mismatch")
)

// ClaimNotReadyError carries the remaining cooldown.
type ClaimNotReadyError struct {
	Remaining time.Duration
}

func (e *ClaimNotReadyError) Error() string {
	return fmt.Sprintf("claim not ready: %s remaining", e.Remaining.Round(time.Second))
}

func (e *ClaimNotReadyError) Unwrap() error {
	return ErrClaimNotReady
}
