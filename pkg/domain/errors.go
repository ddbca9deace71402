package domain

import "errors"

// ErrNotInitialized is returned when an engine operation runs before the
// initializer has resolved.
var ErrNotInitialized = errors.New("form not initialized")

// ErrNoSubmitHandler is returned by Submit when validation passed but no
// handler was configured.
var ErrNoSubmitHandler = errors.New("no submit handler configured")

// ErrSessionNotFound is returned when a session ID cannot be found in the
// session manager.
var ErrSessionNotFound = errors.New("session not found")

// ErrBadUpdate is returned when an update resolves to a value of an
// unusable type for the target (e.g. a non-FieldMeta meta update).
var ErrBadUpdate = errors.New("update resolved to incompatible type")

// ErrInvalidData marks a validation pass that found errors, for callers
// that need a failure exit (CLI checks) rather than the Errors value.
var ErrInvalidData = errors.New("data does not conform to schema")
