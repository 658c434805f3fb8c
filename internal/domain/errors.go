package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrIncorrectOldPassword = errors.New("incorrect old password")
	ErrInvalidOrExpiredOTP  = errors.New("invalid or expired otp")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrBadRequest           = errors.New("bad request")

	// Token-level failures reported by signature verification.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	// Infrastructure availability. These propagate unchanged to the caller.
	ErrSessionStoreUnavailable = errors.New("session store unavailable")
	ErrStorageUnavailable      = errors.New("storage unavailable")
	ErrNotificationFailed      = errors.New("notification dispatch failed")

	ErrCorruptCredential = errors.New("corrupt credential")
)
