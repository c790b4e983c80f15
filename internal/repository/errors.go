package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict means another writer updated the request first.
	ErrVersionConflict = errors.New("request was modified concurrently")
	// ErrActivityRewritten means an upsert would drop stored activity entries.
	ErrActivityRewritten = errors.New("activity log is append-only")
)
