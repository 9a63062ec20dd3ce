package services

import "errors"

var (
	ErrAlbumNotFound = errors.New("album not found")
	ErrAssetNotFound = errors.New("asset not found")
	ErrUserNotFound  = errors.New("user not found")

	// ErrInvalidRequest marks a precondition failure detected before any
	// mutation happened (fail fast, no partial state).
	ErrInvalidRequest = errors.New("invalid request")
)
