package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrOverlap = errors.New("booking overlaps an active booking for the same car")

	ErrLockHeld = errors.New("car is locked by a concurrent booking")

	ErrLockLost = errors.New("booking lock expired and was taken over")
)
