package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint would be violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized indicates the presented credential was rejected by the catalog API.
	ErrUnauthorized = errors.New("unauthorized")
)
