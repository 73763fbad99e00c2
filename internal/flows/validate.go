package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/credstore"
)

// Outcome reports which exit path a validation run took. The root package
// re-exports these values one-to-one.
type Outcome int

const (
	OutcomeDebounced Outcome = iota
	OutcomeAnonymous
	OutcomeMalformed
	OutcomeOfflineCached
	OutcomeAuthenticated
	OutcomeFailOpen
	OutcomeFailClosed
)

// ValidateResult is the validation run report.
type ValidateResult struct {
	Outcome Outcome
	Err     error
	User    *credstore.UserRecord
}

// ValidateDeps captures validator dependencies. State mutators are
// conditional on the token the run was started for, so a run that outlives
// a logout or a fresh login cannot clobber the newer session.
type ValidateDeps struct {
	// Allow is the debounce admission check (see internal/rate.Guard).
	Allow func() bool
	// MarkReady latches the readiness flag. Called on every exit path.
	MarkReady func()

	LoadBundle  func(ctx context.Context) (*credstore.Bundle, error)
	SaveBundle  func(ctx context.Context, b *credstore.Bundle) error
	ClearBundle func(ctx context.Context) error

	// InspectToken is the cheap local shape check; no network.
	InspectToken func(token string) error

	// InstallProvisional places the cached token+profile into live state so
	// dependent code may treat the user as provisionally authenticated.
	InstallProvisional func(token string, user *credstore.UserRecord)
	// CommitProfile replaces the profile if token is still the live token.
	CommitProfile func(token string, user *credstore.UserRecord, at time.Time) bool
	// ClearSessionIf clears live state if token is still the live token.
	ClearSessionIf func(token string)
	// SetAnonymous clears live state unconditionally.
	SetAnonymous func()
	SetOffline   func(offline bool)

	IsConnected  func(ctx context.Context) bool
	FetchProfile func(ctx context.Context, token string) (*credstore.UserRecord, error)
	FetchTimeout time.Duration

	Classify func(err error) Failure
	Now      func() time.Time
}

// RunValidate executes one validation pass: debounce, bundle load, local
// token inspection, provisional install, connectivity gate, profile fetch,
// and fail-open/fail-closed reconciliation. Readiness is latched on every
// return.
func RunValidate(ctx context.Context, force bool, deps ValidateDeps) ValidateResult {
	defer deps.MarkReady()

	if !force && !deps.Allow() {
		return ValidateResult{Outcome: OutcomeDebounced}
	}

	bundle, err := deps.LoadBundle(ctx)
	if err != nil {
		// Unreadable store: nothing to validate against, but a live session
		// (if any) is not torn down over a storage hiccup.
		return ValidateResult{Outcome: OutcomeFailOpen, Err: err}
	}
	if bundle == nil || bundle.Token == "" {
		deps.SetAnonymous()
		return ValidateResult{Outcome: OutcomeAnonymous}
	}

	if err := deps.InspectToken(bundle.Token); err != nil {
		_ = deps.ClearBundle(ctx)
		deps.ClearSessionIf(bundle.Token)
		return ValidateResult{Outcome: OutcomeMalformed, Err: err}
	}

	deps.InstallProvisional(bundle.Token, bundle.User)

	if !deps.IsConnected(ctx) {
		deps.SetOffline(true)
		return ValidateResult{Outcome: OutcomeOfflineCached, User: bundle.User}
	}
	deps.SetOffline(false)

	fetchCtx, cancel := context.WithTimeout(ctx, deps.FetchTimeout)
	defer cancel()

	user, err := deps.FetchProfile(fetchCtx, bundle.Token)
	if err == nil {
		now := deps.Now()
		// Persist only when the commit won: a response landing after a
		// logout must not re-save the bundle the logout just cleared.
		if deps.CommitProfile(bundle.Token, user, now) {
			_ = deps.SaveBundle(ctx, &credstore.Bundle{
				Token:         bundle.Token,
				User:          user,
				LastValidated: now.Unix(),
			})
		}
		return ValidateResult{Outcome: OutcomeAuthenticated, User: user}
	}

	if deps.Classify(err) == FailureTokenInvalid {
		_ = deps.ClearBundle(ctx)
		deps.ClearSessionIf(bundle.Token)
		return ValidateResult{Outcome: OutcomeFailClosed, Err: err}
	}

	// Network, server, and unclassified failures keep the cached session.
	return ValidateResult{Outcome: OutcomeFailOpen, Err: err, User: bundle.User}
}
