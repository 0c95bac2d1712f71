// Package services defines the application logic for recording and listing
// game scores. This file centralizes service-level error values so callers can
// compare them with errors.Is.
package services

import "errors"

var (
	// ErrNoStorage is returned when a ScoreService has no database handle.
	ErrNoStorage = errors.New("score storage is not configured")
)
