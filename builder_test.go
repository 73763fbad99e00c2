package goSession

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/credstore"
)

func TestBuildRequiresBackend(t *testing.T) {
	_, err := New().WithKV(credstore.NewMemKV()).Build()
	if err == nil {
		t.Fatal("expected error without backend")
	}
}

func TestBuildRequiresStorage(t *testing.T) {
	_, err := New().WithBackend(&fakeBackend{}).Build()
	if err == nil {
		t.Fatal("expected error without storage")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Validation.FetchTimeout = 0

	_, err := New().
		WithConfig(cfg).
		WithKV(credstore.NewMemKV()).
		WithBackend(&fakeBackend{}).
		Build()
	if err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithKV(credstore.NewMemKV()).WithBackend(&fakeBackend{})

	manager, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer manager.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuildWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	manager, err := New().
		WithRedis(client).
		WithBackend(&fakeBackend{}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer manager.Close()

	if manager.Ready() {
		t.Fatal("ready before first validation")
	}
}

func TestWithAuditSinkEnablesAudit(t *testing.T) {
	manager, err := New().
		WithKV(credstore.NewMemKV()).
		WithBackend(&fakeBackend{}).
		WithAuditSink(NoOpSink{}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer manager.Close()

	if manager.audit == nil {
		t.Fatal("audit dispatcher not armed")
	}
}

func TestWithClockInjected(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	manager, err := New().
		WithKV(credstore.NewMemKV()).
		WithBackend(&fakeBackend{}).
		WithClock(func() time.Time { return fixed }).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer manager.Close()

	if got := manager.clock(); !got.Equal(fixed) {
		t.Fatalf("clock = %v", got)
	}
}
