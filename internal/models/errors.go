package models

import "errors"

var (
	// ErrInvalidLink is returned when no canonical video ID can be
	// derived from user input. User-facing, non-fatal.
	ErrInvalidLink = errors.New("no video ID found in link")

	// ErrMalformedHistory is returned when an import or hydrate blob
	// cannot be parsed as a history collection. The prior collection
	// is left untouched.
	ErrMalformedHistory = errors.New("malformed history data")

	// ErrNoActiveSession is returned by operations that require an
	// active session when none is set.
	ErrNoActiveSession = errors.New("no active session")

	// ErrRecordNotFound is returned when a record ID does not exist
	// in the history collection.
	ErrRecordNotFound = errors.New("record not found")

	// ErrNoEnrichmentOutput is returned when promoting AI output to
	// notes and no ready output exists for the active session.
	ErrNoEnrichmentOutput = errors.New("no enrichment output to promote")
)
