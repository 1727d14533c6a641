package domain

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrCarNotFound     = errors.New("car not found")
)

var (
	// ErrVersionConflict is returned by storage when a booking was changed
	// by someone else between read and write.
	ErrVersionConflict  = errors.New("booking was modified concurrently")
	ErrDuplicateRequest = errors.New("request already processed")
)
