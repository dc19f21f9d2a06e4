// Package services defines the gallery's business logic: reactions, artwork
// lookup and ordering, and the admin bulk load. This file centralizes
// service-level error values so handlers can map them to HTTP results.
package services

import "errors"

var (
	// ErrArtworkNotFound indicates that no saved artwork has the requested id.
	ErrArtworkNotFound = errors.New("artwork not found")

	// ErrInvalidReaction is returned for a reaction outside the canonical set.
	ErrInvalidReaction = errors.New("invalid reaction")

	// ErrMissingArtworkID is returned when an operation needs an artwork id
	// and got an empty one.
	ErrMissingArtworkID = errors.New("missing artwork id")

	// ErrUnauthenticated is returned when an operation requires a signed-in
	// user and none was supplied.
	ErrUnauthenticated = errors.New("not authenticated")
)
