package core

import "errors"

// Parent errors. Every error returned across the service boundary matches
// exactly one of these via errors.Is; adapters map them to status codes.
var (
	ErrInvalidInput     = errors.New("invalid input")              // 400 Bad Request
	ErrSignatureInvalid = errors.New("signature does not match")   // 401 Unauthorized
	ErrNotAuthenticated = errors.New("not authenticated")          // 401 Unauthorized
	ErrBindingRejected  = errors.New("wallet binding rejected")    // 403 Forbidden
	ErrStoreUnavailable = errors.New("identity store unavailable") // 500
	ErrMisconfigured    = errors.New("service misconfigured")      // 500
)

// Validation errors (client input)
var (
	ErrEmailRequired     = wrap(ErrInvalidInput, "email is required")
	ErrInvalidEmail      = wrap(ErrInvalidInput, "invalid email format")
	ErrAddressRequired   = wrap(ErrInvalidInput, "wallet address is required")
	ErrSignatureRequired = wrap(ErrInvalidInput, "signature is required")
	ErrMessageRequired   = wrap(ErrInvalidInput, "message or nonce is required")
	ErrInvalidMessage    = wrap(ErrInvalidInput, "message does not match the expected template")
	ErrInvalidNonce      = wrap(ErrInvalidInput, "nonce must be a single line of at most 256 bytes")
)

// Binding rejections
var (
	ErrPasskeyProtected = wrap(ErrBindingRejected, "identity is protected by a passkey")
	ErrAccountExists    = wrap(ErrBindingRejected, "identity already exists without a wallet")
	ErrWalletConflict   = wrap(ErrBindingRejected, "a different wallet is already bound")
)

// Session errors
var (
	ErrMissingAuthHeader = wrap(ErrNotAuthenticated, "missing authorization header")
	ErrInvalidToken      = wrap(ErrNotAuthenticated, "invalid token")
	ErrSessionNotFound   = wrap(ErrNotAuthenticated, "session not found")
	ErrSessionExpired    = wrap(ErrNotAuthenticated, "session expired")
)

// Store errors. ErrIdentityExists is the distinguishable "already exists"
// condition reported by CreateIdentity when another request won the race.
var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrIdentityExists   = errors.New("identity already exists")
	ErrCacheNotFound    = errors.New("session not found in cache")
	ErrDuplicateEmail   = wrap(ErrMisconfigured, "more than one identity shares this email")
)

// Config errors (server-side configuration)
var (
	ErrIdentityStoreRequired  = wrap(ErrMisconfigured, "identity store is required")
	ErrSessionStorageRequired = wrap(ErrMisconfigured, "session storage is required")
	ErrHTTPAdapterRequired    = wrap(ErrMisconfigured, "http adapter is required")
)

// kindError is a sentinel that also matches its parent kind.
type kindError struct {
	parent error
	msg    string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.parent }

func wrap(parent error, msg string) error {
	return &kindError{parent: parent, msg: msg}
}
