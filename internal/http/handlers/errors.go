// Package handlers defines HTTP-layer error codes used across the JSON
// endpoints.
//
// Conventions:
//   - Codes are lowercase, snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - Domain-specific codes are reserved for failures that status alone
//     cannot convey.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_reaction",
//	  "message": "reaction must be one of 👍 ❤️ 🦕 🍕"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
	// The rate limiter answers with "rate_limited"; it lives in middleware.

	// Domain-specific:
	ErrCodeInvalidReaction = "invalid_reaction"
	ErrCodeAuthFailed      = "auth_failed"
	ErrCodeStoreFailed     = "store_failed"
)
