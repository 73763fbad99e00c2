package goSession

import "errors"

var (
	// ErrTokenInvalid is returned when the backend authoritatively rejects
	// the stored bearer token (HTTP 401). It is the only error that forces
	// a full credential clear.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenMalformed is returned when the locally stored token fails the
	// cheap shape check before any network call is attempted.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrNetworkUnavailable is returned when a request could not reach the
	// backend (connectivity loss, DNS failure, timeout).
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrServerError is returned for backend 5xx responses.
	ErrServerError = errors.New("server error")
	// ErrInvalidCredentials is returned when the login endpoint rejects the
	// identifier/secret pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountUnverified is returned by Login when the backend accepts the
	// credentials but the account has not completed verification. No session
	// is established and nothing is persisted.
	ErrAccountUnverified = errors.New("account unverified")
	// ErrNotAuthenticated is returned by operations that require an active
	// session when none is present.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrManagerClosed is returned after Close has been called.
	ErrManagerClosed = errors.New("session manager closed")
	// ErrManagerNotReady is returned by methods that need a fully built
	// manager when the receiver is nil or was not built through Builder.
	ErrManagerNotReady = errors.New("session manager not ready")
	// ErrStoreUnavailable is returned when the credential store backend
	// cannot be reached. Store failures never tear down an in-memory session.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
