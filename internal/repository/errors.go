package repository

import "errors"

var (
	// ErrVersionConflict means the evaluation changed since it was loaded.
	ErrVersionConflict = errors.New("evaluation was modified concurrently")
	ErrUnknownRisk     = errors.New("unknown risk code")
	ErrUnknownSeverity = errors.New("unknown severity tier")
)
