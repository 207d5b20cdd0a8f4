package apperr

import "errors"

var (
	// ErrNotFound is returned when a catalog entry (or other resource) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a non-privileged caller attempts a privileged mutation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument is returned for malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
)
