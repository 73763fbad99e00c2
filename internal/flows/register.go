package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/credstore"
)

// RegisterRequest is the flow-local registration input.
type RegisterRequest struct {
	Identifier string
	Secret     string
	Name       string
	Sector     string
}

// RegisterResult reports either an established session or a pending
// verification handoff.
type RegisterResult struct {
	User                 *credstore.UserRecord
	RequiresVerification bool
}

// RegisterDeps captures registration flow dependencies.
type RegisterDeps struct {
	Register     func(ctx context.Context, req RegisterRequest) (*Credentials, error)
	InspectToken func(token string) error
	SaveBundle   func(ctx context.Context, b *credstore.Bundle) error
	Establish    func(token string, user *credstore.UserRecord, at time.Time)

	// ErrMalformed is returned when a verified registration response carries
	// a token that fails local inspection.
	ErrMalformed error

	Timeout time.Duration
	Now     func() time.Time
}

// RunRegister creates an account. When the backend withholds a token or
// returns an unverified profile, the result carries RequiresVerification
// and no session is established or persisted. Otherwise the session is
// established exactly like a login.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (*RegisterResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, deps.Timeout)
	defer cancel()

	creds, err := deps.Register(callCtx, req)
	if err != nil {
		return nil, err
	}

	pending := creds.Token == "" || creds.User == nil || !creds.User.Verified
	if pending {
		return &RegisterResult{User: creds.User, RequiresVerification: true}, nil
	}

	// A verified response with a broken token is a backend contract error,
	// not a verification handoff.
	if err := deps.InspectToken(creds.Token); err != nil {
		return nil, deps.ErrMalformed
	}

	now := deps.Now()
	deps.Establish(creds.Token, creds.User, now)
	_ = deps.SaveBundle(ctx, &credstore.Bundle{
		Token:         creds.Token,
		User:          creds.User,
		LastValidated: now.Unix(),
	})

	return &RegisterResult{User: creds.User}, nil
}
