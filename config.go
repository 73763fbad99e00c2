package goSession

import (
	"errors"
	"time"
)

// Config defines tuning for the session manager. Configure before Build;
// treat as immutable afterwards.
type Config struct {
	Validation ValidationConfig
	Store      StoreConfig
	Trigger    TriggerConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
VALIDATION CONFIG
====================================
*/

// ValidationConfig tunes the validator flow.
type ValidationConfig struct {
	// DebounceWindow suppresses validator runs arriving within this window
	// of the previous run. The suppressed run still latches readiness.
	DebounceWindow time.Duration
	// FetchTimeout bounds the profile fetch. Expiry is classified as a
	// network failure (fail open).
	FetchTimeout time.Duration
	// AcceptOpaqueTokens skips JWT structure checks and only requires a
	// well-formed opaque string. For backends that do not issue JWTs.
	AcceptOpaqueTokens bool
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig tunes the persisted credential bundle.
type StoreConfig struct {
	// KeyPrefix namespaces the bundle key in the underlying KV.
	KeyPrefix string
	// WriteTimeout bounds background persistence writes (logout cleanup,
	// post-validation save).
	WriteTimeout time.Duration
}

/*
====================================
TRIGGER CONFIG
====================================
*/

// TriggerConfig tunes the opportunistic revalidation producers.
type TriggerConfig struct {
	// PeriodicInterval is the background revalidation cadence while a
	// session is active and the app is foregrounded. Zero disables the
	// timer.
	PeriodicInterval time.Duration
	// ValidateOnForeground revalidates on background→active transitions.
	ValidateOnForeground bool
	// ValidateOnReconnect revalidates on the offline→online edge only,
	// never on repeated online notifications.
	ValidateOnReconnect bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig tunes the background audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking producers when the
	// buffer is full. Dropped events are counted.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig tunes in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Validation: ValidationConfig{
			DebounceWindow: time.Second,
			FetchTimeout:   20 * time.Second,
		},
		Store: StoreConfig{
			KeyPrefix:    "gosession",
			WriteTimeout: 5 * time.Second,
		},
		Trigger: TriggerConfig{
			PeriodicInterval:     0,
			ValidateOnForeground: true,
			ValidateOnReconnect:  true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// MobileDefaults returns the preset used by mobile hosts: periodic
// revalidation every five minutes, foreground and reconnect triggers on,
// audit enabled with a drop-if-full buffer.
func MobileDefaults() Config {
	cfg := defaultConfig()
	cfg.Trigger.PeriodicInterval = 5 * time.Minute
	cfg.Audit.Enabled = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a full copy.
	return cfg
}

// Validate rejects configurations the manager cannot honor.
func (c Config) Validate() error {
	if c.Validation.DebounceWindow < 0 {
		return errors.New("DebounceWindow must not be negative")
	}
	if c.Validation.FetchTimeout <= 0 {
		return errors.New("FetchTimeout must be positive")
	}
	if c.Store.KeyPrefix == "" {
		return errors.New("Store KeyPrefix required")
	}
	if c.Store.WriteTimeout <= 0 {
		return errors.New("Store WriteTimeout must be positive")
	}
	if c.Trigger.PeriodicInterval < 0 {
		return errors.New("PeriodicInterval must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be positive when audit is enabled")
	}
	return nil
}
