package domain

import "errors"

var (
	// ErrNotFound is returned when the requested source has no data.
	ErrNotFound = errors.New("not found")
	// ErrUpstream wraps failures of the remote log service.
	ErrUpstream = errors.New("upstream log service error")
	// ErrCacheMiss is returned by caches when a key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrUnsupported is returned by backends that cannot serve a query.
	ErrUnsupported = errors.New("operation not supported by this backend")
)
