package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/credstore"
)

// Credentials is the flow-local token+profile pair returned by the backend.
type Credentials struct {
	Token string
	User  *credstore.UserRecord
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Login        func(ctx context.Context, identifier, secret string) (*Credentials, error)
	InspectToken func(token string) error
	SaveBundle   func(ctx context.Context, b *credstore.Bundle) error

	// Establish wholesale-replaces live state with the new session.
	Establish func(token string, user *credstore.UserRecord, at time.Time)

	// ErrUnverified is returned (unwrapped) for accounts pending
	// verification; callers route it to the verification flow instead of a
	// generic error surface.
	ErrUnverified error
	ErrMalformed  error

	Timeout time.Duration
	Now     func() time.Time
}

// RunLogin authenticates identifier/secret against the backend and, on
// success, establishes and persists the session. Nothing touches live state
// or storage until every check has passed, so a failed attempt — bad
// credentials, malformed token, unverified account — leaves any existing
// session exactly as it was.
func RunLogin(ctx context.Context, identifier, secret string, deps LoginDeps) (*credstore.UserRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, deps.Timeout)
	defer cancel()

	creds, err := deps.Login(callCtx, identifier, secret)
	if err != nil {
		return nil, err
	}

	if err := deps.InspectToken(creds.Token); err != nil {
		return nil, deps.ErrMalformed
	}

	// An unverified profile never authenticates, regardless of what the
	// backend issued alongside it.
	if creds.User == nil || !creds.User.Verified {
		return nil, deps.ErrUnverified
	}

	now := deps.Now()
	deps.Establish(creds.Token, creds.User, now)

	// Persistence is best-effort: a store failure leaves the live session
	// intact and surfaces through the returned bundle error only in audit.
	_ = deps.SaveBundle(ctx, &credstore.Bundle{
		Token:         creds.Token,
		User:          creds.User,
		LastValidated: now.Unix(),
	})

	return creds.User, nil
}
