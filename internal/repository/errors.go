// Package repository implements the flat-file data access layer.  Every
// table is a plain CSV file rewritten wholesale on mutation; movie metadata
// lives in one JSON file per movie folder.  The sentinel errors defined here
// are shared across repositories so handlers can translate failure modes
// into distinct HTTP status codes.
package repository

import "errors"

// ErrNotFound is returned when a row keyed by email or movie folder does
// not exist.  Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a signup collides with an existing
// account.  Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when an operation cannot proceed because of
// existing state, such as bookmarking the same movie twice or banning an
// already-banned user.  Handlers should translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrInsufficientTokens is returned when a debit exceeds the current token
// balance.  The balance is left unchanged.
var ErrInsufficientTokens = errors.New("insufficient tokens")
