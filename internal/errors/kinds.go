package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrPermissionUnavailable means the location-fix source cannot be reached.
	// The tracker idles and does not retry.
	ErrPermissionUnavailable = stderrors.New("location permission unavailable")

	// ErrStore wraps every failed repository call.
	ErrStore = stderrors.New("store failure")

	// ErrInvariant marks defensive no-ops such as closing a session that was never opened.
	ErrInvariant = stderrors.New("invariant violation")

	// ErrRollover wraps any failure inside a week transition check.
	ErrRollover = stderrors.New("rollover failure")

	ErrNotTracking = stderrors.New("tracking not started")
)

// Store tags err as a store failure while keeping the original cause.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, ErrStore) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

func Invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

func Rollover(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRollover, err)
}
