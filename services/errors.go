package services

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable means the store could not answer. Fatal for the request.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidInput is returned before any computation for malformed arguments
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the addressed book does not exist or is not discoverable
	ErrNotFound = errors.New("not found")
)

// storageError marks err as ErrStorageUnavailable. Context errors and
// errors already carrying a service sentinel are returned unchanged.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateUserID(userID int64) error {
	if userID <= 0 {
		return invalidInput("user id must be positive, got %d", userID)
	}
	return nil
}
