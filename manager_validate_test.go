package goSession

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/credstore"
)

func TestStartColdCacheOnline(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := makeJWT(t, "u1", env.clock.Now().Add(time.Hour))
	env.seedBundle(t, &credstore.Bundle{
		Token:         tok,
		User:          env.seededUser(),
		LastValidated: env.clock.Now().Add(-time.Hour).Unix(),
	})

	env.backend.fetchFn = func(ctx context.Context, gotTok string) (*User, error) {
		if gotTok != tok {
			t.Errorf("fetch got token %q", gotTok)
		}
		return &User{ID: "u1", Identifier: "alice", Name: "Alice Fresh", Verified: true}, nil
	}

	outcome, err := env.manager.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if outcome != OutcomeAuthenticated {
		t.Fatalf("outcome = %v", outcome)
	}

	snap := env.manager.Snapshot()
	if !snap.Ready || !snap.Authenticated() {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.User == nil || snap.User.Name != "Alice Fresh" {
		t.Fatalf("profile not replaced by backend copy: %+v", snap.User)
	}
	if !snap.LastValidatedAt.Equal(env.clock.Now()) {
		t.Fatalf("LastValidatedAt = %v", snap.LastValidatedAt)
	}

	// The persisted bundle carries the fresh profile and validation stamp.
	bundle, err := env.store.Load(context.Background())
	if err != nil || bundle == nil {
		t.Fatalf("load bundle: %v %v", bundle, err)
	}
	if bundle.User.Name != "Alice Fresh" || bundle.LastValidated != env.clock.Now().Unix() {
		t.Fatalf("persisted bundle = %+v", bundle)
	}
}

func TestStartColdCacheOffline(t *testing.T) {
	env := newTestEnv(t, nil)
	env.probe.set(false)
	tok := makeJWT(t, "u1", env.clock.Now().Add(time.Hour))
	env.seedBundle(t, &credstore.Bundle{Token: tok, User: env.seededUser()})

	outcome, err := env.manager.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if outcome != OutcomeOfflineCached {
		t.Fatalf("outcome = %v", outcome)
	}
	if env.backend.FetchCalls() != 0 {
		t.Fatal("offline run must not touch the backend")
	}

	snap := env.manager.Snapshot()
	if !snap.Ready || !snap.Offline || !snap.Authenticated() {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.User == nil || snap.User.Identifier != "alice" {
		t.Fatalf("cached profile missing: %+v", snap.User)
	}
}

func TestValidateRevokedTokenFailsClosed(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := makeJWT(t, "u1", env.clock.Now().Add(time.Hour))
	env.seedBundle(t, &credstore.Bundle{Token: tok, User: env.seededUser()})
	env.backend.fetchFn = func(context.Context, string) (*User, error) {
		return nil, &StatusError{Code: 401, Message: "revoked"}
	}

	outcome, err := env.manager.Start(context.Background())
	if outcome != OutcomeFailClosed {
		t.Fatalf("outcome = %v", outcome)
	}
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v", err)
	}

	snap := env.manager.Snapshot()
	if snap.Authenticated() || snap.User != nil {
		t.Fatalf("session survived a 401: %+v", snap)
	}
	if !snap.Ready {
		t.Fatal("readiness must latch even on fail-closed")
	}

	bundle, err := env.store.Load(context.Background())
	if err != nil || bundle != nil {
		t.Fatalf("bundle should be cleared, got %+v (%v)", bundle, err)
	}
}

func TestValidateNetworkFailureFailsOpen(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := makeJWT(t, "u1", env.clock.Now().Add(time.Hour))
	env.seedBundle(t, &credstore.Bundle{Token: tok, User: env.seededUser()})
	env.backend.fetchFn = func(context.Context, string) (*User, error) {
		return nil, &fakeNetError{msg: "dial tcp: refused"}
	}

	outcome, err := env.manager.Start(context.Background())
	if outcome != OutcomeFailOpen {
		t.Fatalf("outcome = %v", outcome)
	}
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("err = %v", err)
	}

	snap := env.manager.Snapshot()
	if !snap.Authenticated() || snap.User == nil || snap.User.Identifier != "alice" {
		t.Fatalf("cached session should survive a network failure: %+v", snap)
	}

	// And the bundle stays persisted for the next cold start.
	if bundle, _ := env.store.Load(context.Background()); bundle == nil {
		t.Fatal("bundle should survive a network failure")
	}
}

func TestValidateServerErrorFailsOpen(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := makeJWT(t, "u1", env.clock.Now().Add(time.Hour))
	env.seedBundle(t, &credstore.Bundle{Token: tok, User: env.seededUser()})
	env.backend.fetchFn = func(context.Context, string) (*User, error) {
		return nil, &StatusError{Code: 503}
	}

	outcome, err := env.manager.Start(context.Background())
	if outcome != OutcomeFailOpen {
		t.Fatalf("outcome = %v", outcome)
	}
	if !errors.Is(err, ErrServerError) {
		t.Fatalf("err = %v", err)
	}
	if !env.manager.Snapshot().Authenticated() {
		t.Fatal("cached session should survive a 5xx")
	}
}

func TestValidateNoBundleAnonymous(t *testing.T) {
	env := newTestEnv(t, nil)

	outcome, err := env.manager.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if outcome != OutcomeAnonymous {
		t.Fatalf("outcome = %v", outcome)
	}

	snap := env.manager.Snapshot()
	if snap.Authenticated() || !snap.Ready {
		t.Fatalf("snapshot = %+v", snap)
	}
	if env.backend.FetchCalls() != 0 {
		t.Fatal("anonymous path must not touch the backend")
	}
}

func TestValidateMalformedTokenClears(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedBundle(t, &credstore.Bundle{Token: "not-a-jwt", User: env.seededUser()})

	outcome, err := env.manager.Start(context.Background())
	if outcome != OutcomeMalformed {
		t.Fatalf("outcome = %v", outcome)
	}
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("err = %v", err)
	}
	if env.backend.FetchCalls() != 0 {
		t.Fatal("malformed token must not reach the backend")
	}
	if bundle, _ := env.store.Load(context.Background()); bundle != nil {
		t.Fatal("malformed bundle should be purged")
	}
	if env.manager.Snapshot().Authenticated() {
		t.Fatal("session should stay anonymous")
	}
}

func TestValidateLocallyExpiredTokenTreatedMalformed(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := makeJWT(t, "u1", env.clock.Now().Add(-time.Minute))
	env.seedBundle(t, &credstore.Bundle{Token: tok, User: env.seededUser()})

	outcome, err := env.manager.Start(context.Background())
	if outcome != OutcomeMalformed {
		t.Fatalf("outcome = %v", outcome)
	}
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("err = %v", err)
	}
	if env.backend.FetchCalls() != 0 {
		t.Fatal("expired token must not reach the backend")
	}
}

func TestOpaqueTokensSkipJWTChecks(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Validation.AcceptOpaqueTokens = true
	})
	env.seedBundle(t, &credstore.Bundle{Token: "opaque-session-id", User: env.seededUser()})
	env.backend.fetchFn = func(context.Context, string) (*User, error) {
		return &User{ID: "u1", Identifier: "alice", Verified: true}, nil
	}

	outcome, err := env.manager.Start(context.Background())
	if err != nil || outcome != OutcomeAuthenticated {
		t.Fatalf("outcome = %v err = %v", outcome, err)
	}
}

func TestReadinessLatchesExactlyOnce(t *testing.T) {
	env := newTestEnv(t, nil)

	var readyFires atomic.Int32
	unsubscribe, err := env.manager.SubscribeReady(func(Snapshot) {
		readyFires.Add(1)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	if env.manager.Ready() {
		t.Fatal("ready before first validation")
	}

	if _, err := env.manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.clock.Advance(2 * time.Second)
	if _, err := env.manager.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	env.clock.Advance(2 * time.Second)
	if _, err := env.manager.Refresh(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("refresh err = %v", err)
	}

	if !env.manager.Ready() {
		t.Fatal("not ready after validation")
	}
	if n := readyFires.Load(); n != 1 {
		t.Fatalf("ready fired %d times", n)
	}
}

func TestDebounceSuppressesSecondRun(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := makeJWT(t, "u1", env.clock.Now().Add(time.Hour))
	env.seedBundle(t, &credstore.Bundle{Token: tok, User: env.seededUser()})
	env.backend.fetchFn = func(context.Context, string) (*User, error) {
		return &User{ID: "u1", Identifier: "alice", Verified: true}, nil
	}

	if outcome, _ := env.manager.Start(context.Background()); outcome != OutcomeAuthenticated {
		t.Fatalf("first outcome = %v", outcome)
	}

	// Within the window the run short-circuits before touching anything.
	outcome, err := env.manager.Validate(context.Background())
	if err != nil || outcome != OutcomeDebounced {
		t.Fatalf("second outcome = %v err = %v", outcome, err)
	}
	if env.backend.FetchCalls() != 1 {
		t.Fatalf("fetch calls = %d", env.backend.FetchCalls())
	}

	// Past the window the validator runs again.
	env.clock.Advance(1100 * time.Millisecond)
	outcome, err = env.manager.Validate(context.Background())
	if err != nil || outcome != OutcomeAuthenticated {
		t.Fatalf("third outcome = %v err = %v", outcome, err)
	}
	if env.backend.FetchCalls() != 2 {
		t.Fatalf("fetch calls = %d", env.backend.FetchCalls())
	}
}

func TestRefreshBypassesDebounce(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := makeJWT(t, "u1", env.clock.Now().Add(time.Hour))
	env.seedBundle(t, &credstore.Bundle{Token: tok, User: env.seededUser()})
	env.backend.fetchFn = func(context.Context, string) (*User, error) {
		return &User{ID: "u1", Identifier: "alice", Name: "Fresh", Verified: true}, nil
	}

	if _, err := env.manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Immediately after: a plain Validate debounces, Refresh does not.
	if outcome, _ := env.manager.Validate(context.Background()); outcome != OutcomeDebounced {
		t.Fatalf("validate outcome = %v", outcome)
	}
	user, err := env.manager.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if user.Name != "Fresh" {
		t.Fatalf("refresh user = %+v", user)
	}
	if env.backend.FetchCalls() != 2 {
		t.Fatalf("fetch calls = %d", env.backend.FetchCalls())
	}
}

func TestRefreshOfflineReturnsNetworkError(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := makeJWT(t, "u1", env.clock.Now().Add(time.Hour))
	env.seedBundle(t, &credstore.Bundle{Token: tok, User: env.seededUser()})
	env.probe.set(false)

	if _, err := env.manager.Refresh(context.Background()); !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("err = %v", err)
	}
	// The cached session stays usable.
	if !env.manager.Snapshot().Authenticated() {
		t.Fatal("cached session should survive an offline refresh")
	}
}

func TestRefreshRevokedTearsDown(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := makeJWT(t, "u1", env.clock.Now().Add(time.Hour))
	env.seedBundle(t, &credstore.Bundle{Token: tok, User: env.seededUser()})
	env.backend.fetchFn = func(context.Context, string) (*User, error) {
		return nil, &StatusError{Code: 401}
	}

	if _, err := env.manager.Refresh(context.Background()); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v", err)
	}
	if env.manager.Snapshot().Authenticated() {
		t.Fatal("session should be torn down")
	}
}

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingKV) Set(context.Context, string, []byte) error         { return f.err }
func (f failingKV) Delete(context.Context, string) error              { return f.err }

func TestValidateStoreFailureFailsOpen(t *testing.T) {
	manager, err := New().
		WithKV(failingKV{err: errors.New("disk on fire")}).
		WithBackend(&fakeBackend{}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer manager.Close()

	outcome, err := manager.Validate(context.Background())
	if outcome != OutcomeFailOpen {
		t.Fatalf("outcome = %v", outcome)
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v", err)
	}
	// A storage hiccup still latches readiness.
	if !manager.Ready() {
		t.Fatal("not ready after store failure")
	}
}

func TestValidateAfterClose(t *testing.T) {
	env := newTestEnv(t, nil)
	env.manager.Close()

	if _, err := env.manager.Validate(context.Background()); !errors.Is(err, ErrManagerClosed) {
		t.Fatalf("err = %v", err)
	}
	if _, err := env.manager.Login(context.Background(), "a", "b"); !errors.Is(err, ErrManagerClosed) {
		t.Fatalf("err = %v", err)
	}
}
