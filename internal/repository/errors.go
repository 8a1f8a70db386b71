// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// depending on database/sql.
package repository

import "errors"

// ErrNotFound is returned when a row addressed by its key does not exist.
// Services translate it into a not-found error for the caller.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an update cannot be applied because of
// the current state of the row.
var ErrConflict = errors.New("conflict")
