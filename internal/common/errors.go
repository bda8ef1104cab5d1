// Package common defines shared sentinel errors and small helpers used across
// the profilesync client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrUsernameTaken = errors.New("username is already taken")
	ErrRepository    = errors.New("repository error")

	// Pre-flight errors; never reach a transport.
	ErrValidation = errors.New("validation error")

	// Auth errors.
	ErrInvalidCode = errors.New("invalid one-time code")
	ErrNoSession   = errors.New("no active session")

	// State machine errors.
	ErrNotActive        = errors.New("profile is not active")
	ErrNotOnboarding    = errors.New("not awaiting profile creation")
	ErrNoEdit           = errors.New("no edit in progress")
	ErrEditInProgress   = errors.New("edit commit already in progress")
	ErrCreateInProgress = errors.New("profile creation already in progress")
	ErrUnknownField     = errors.New("unknown profile field")
	ErrStale            = errors.New("superseded by a newer session")
	ErrEngineStopped    = errors.New("engine stopped")
	ErrAlreadyStarted   = errors.New("engine already started")
)
