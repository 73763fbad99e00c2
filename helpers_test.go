package goSession

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goSession/credstore"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeBackend struct {
	mu         sync.Mutex
	fetchCalls int
	fetchFn    func(ctx context.Context, token string) (*User, error)
	loginFn    func(ctx context.Context, identifier, secret string) (*Credentials, error)
	registerFn func(ctx context.Context, req RegisterRequest) (*Credentials, error)
}

func (b *fakeBackend) FetchProfile(ctx context.Context, token string) (*User, error) {
	b.mu.Lock()
	b.fetchCalls++
	fn := b.fetchFn
	b.mu.Unlock()
	if fn == nil {
		return nil, &StatusError{Code: 500, Message: "fetch not configured"}
	}
	return fn(ctx, token)
}

func (b *fakeBackend) Login(ctx context.Context, identifier, secret string) (*Credentials, error) {
	b.mu.Lock()
	fn := b.loginFn
	b.mu.Unlock()
	if fn == nil {
		return nil, &StatusError{Code: 500, Message: "login not configured"}
	}
	return fn(ctx, identifier, secret)
}

func (b *fakeBackend) Register(ctx context.Context, req RegisterRequest) (*Credentials, error) {
	b.mu.Lock()
	fn := b.registerFn
	b.mu.Unlock()
	if fn == nil {
		return nil, &StatusError{Code: 500, Message: "register not configured"}
	}
	return fn(ctx, req)
}

func (b *fakeBackend) FetchCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetchCalls
}

type fakeProbe struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(bool)
}

func newFakeProbe(online bool) *fakeProbe {
	return &fakeProbe{online: online, subs: map[int]func(bool){}}
}

func (p *fakeProbe) IsConnected(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *fakeProbe) Subscribe(fn func(bool)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *fakeProbe) set(online bool) {
	p.mu.Lock()
	p.online = online
	fns := make([]func(bool), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(online)
	}
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeInvalidator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testEnv struct {
	manager     *Manager
	backend     *fakeBackend
	probe       *fakeProbe
	kv          *credstore.MemKV
	store       *credstore.Store
	clock       *testClock
	invalidator *fakeInvalidator
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	cfg := defaultConfig()
	cfg.Validation.DebounceWindow = time.Second
	cfg.Validation.FetchTimeout = 2 * time.Second
	cfg.Trigger.PeriodicInterval = 0
	if mutate != nil {
		mutate(&cfg)
	}

	env := &testEnv{
		backend:     &fakeBackend{},
		probe:       newFakeProbe(true),
		kv:          credstore.NewMemKV(),
		clock:       newTestClock(),
		invalidator: &fakeInvalidator{},
	}
	env.store = credstore.NewStore(env.kv, cfg.Store.KeyPrefix)

	manager, err := New().
		WithConfig(cfg).
		WithKV(env.kv).
		WithBackend(env.backend).
		WithProbe(env.probe).
		WithCacheInvalidator(env.invalidator).
		WithClock(env.clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	env.manager = manager
	t.Cleanup(manager.Close)

	return env
}

// makeJWT issues a signed token the local inspector accepts. The signature
// key is irrelevant: the client never verifies it.
func makeJWT(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{Subject: subject}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func (e *testEnv) seedBundle(t *testing.T, b *credstore.Bundle) {
	t.Helper()
	if err := e.store.Save(context.Background(), b); err != nil {
		t.Fatalf("seed bundle: %v", err)
	}
}

func (e *testEnv) seededUser() *credstore.UserRecord {
	return &credstore.UserRecord{
		ID:         "u1",
		Identifier: "alice",
		Name:       "Alice",
		Verified:   true,
		Sector:     "inventory",
		Privileges: []string{"orders.read"},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
