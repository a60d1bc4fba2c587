// Package service orchestrates C1 (blobstore), C2 (metastore), and C4
// (packager) behind an authorization-scoped API, per spec.md §4.7.
package service

import "errors"

var (
	// ErrProjectNotFound covers both "no such project" and "exists but
	// not owned by this caller" — spec.md §4.7 forbids distinguishing
	// the two (no enumeration oracle).
	ErrProjectNotFound = errors.New("service: project not found")

	// ErrHandlerNotFound is returned when the caller's project holds no
	// handler by that name. A handler in a project the caller does not own
	// yields ErrProjectNotFound instead, since ownership is checked on the
	// project first.
	ErrHandlerNotFound = errors.New("service: handler not found")

	// ErrProjectAlreadyExists is returned by CreateProject on a
	// (owner, name) collision.
	ErrProjectAlreadyExists = errors.New("service: project already exists")

	// ErrInvalidName is returned when a project or handler name fails
	// spec.md §3's naming rule: 1..=64 codepoints, [A-Za-z0-9_-]+.
	ErrInvalidName = errors.New("service: invalid name")

	// ErrExternalAuthFailed wraps any identity-provider failure during
	// login (network, non-2xx, malformed profile), per spec.md §4.6 step 2.
	ErrExternalAuthFailed = errors.New("service: external authentication failed")
)
