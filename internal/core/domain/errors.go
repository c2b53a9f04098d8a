package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSubmission is returned when submitted documents cannot be used.
	ErrInvalidSubmission = errors.New("invalid submission")
)
