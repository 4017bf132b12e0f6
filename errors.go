package main

import "errors"

var (
	// Setup errors. Any of these aborts the run.
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingAPIKey      = errors.New("missing API key")
	ErrMissingCredentials = errors.New("missing WordPress credentials")
	ErrListMedia          = errors.New("failed to list media")

	// Per-item errors. These are logged and recorded in the report.
	ErrGeneration = errors.New("alt text generation failed")
	ErrUpdate     = errors.New("alt text update failed")
)
