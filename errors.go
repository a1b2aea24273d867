/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"log"
	"time"
)

// Domain error taxonomy. Callers classify with errors.Is; detail is added
// at the failure site with fmt.Errorf("%w: ...", Err...).
var (
	// ErrValidation covers malformed input: wrong restaurant count on a
	// selection, duplicate ids within one set, unknown roles or ids.
	ErrValidation = errors.New("invalid input")

	// ErrIncompleteSelection is returned when a participant submits with
	// fewer than the required three restaurants.
	ErrIncompleteSelection = errors.New("selection requires exactly three restaurants")

	// ErrIncompleteSession is returned when matching is attempted before
	// both participants have submitted.
	ErrIncompleteSession = errors.New("both selections must be submitted first")

	// ErrAmbiguousMatch is returned when exact-match resolution is
	// attempted with zero or multiple matches.
	ErrAmbiguousMatch = errors.New("match resolution requires exactly one common restaurant")

	// ErrSessionNotFound is returned on a store lookup miss.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDuplicateKey is returned when creating a session at a key that
	// already holds one.
	ErrDuplicateKey = errors.New("session already exists")

	// ErrStoreUnavailable wraps backend transport failures. The caller
	// decides whether to retry; nothing here retries automatically.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}
