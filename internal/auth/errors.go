package auth

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists") // 409
	ErrInvalidCredentials = errors.New("invalid credentials")     // 401
	// ErrStoreUnavailable marks a login that failed while at least one
	// credential table could not be queried. Users still get a plain 401.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	ErrValidation       = errors.New("validation error") // 400

	ErrMissingSecret = errors.New("jwt secret is required")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
)
