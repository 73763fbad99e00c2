package goSession

import (
	"errors"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/credstore"
)

// Builder assembles a [Manager]. Construction is allocation-only; no I/O
// happens until the manager's Start or first operation.
type Builder struct {
	config Config

	kv          credstore.KV
	backend     Backend
	probe       Probe
	invalidator CacheInvalidator
	auditSink   AuditSink
	bus         evbus.Bus
	clock       func() time.Time

	built bool
}

// New returns a builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis persists the credential bundle through a go-redis client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.kv = credstore.NewRedisKV(client)
	return b
}

// WithKV persists the credential bundle through an arbitrary async KV.
func (b *Builder) WithKV(kv credstore.KV) *Builder {
	b.kv = kv
	return b
}

// WithBackend sets the REST collaborator. Required.
func (b *Builder) WithBackend(backend Backend) *Builder {
	b.backend = backend
	return b
}

// WithProbe sets the connectivity probe. Without one the manager assumes
// the device is always online.
func (b *Builder) WithProbe(probe Probe) *Builder {
	b.probe = probe
	return b
}

// WithCacheInvalidator registers the derived-cache cleanup hook run during
// logout.
func (b *Builder) WithCacheInvalidator(inv CacheInvalidator) *Builder {
	b.invalidator = inv
	return b
}

// WithAuditSink sets the audit destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithEventBus publishes session changes on the given bus instead of a
// manager-private one. Useful when the host already routes events centrally.
func (b *Builder) WithEventBus(bus evbus.Bus) *Builder {
	b.bus = bus
	return b
}

// WithClock injects the time source. Tests use this to make the debounce
// window and LastValidatedAt deterministic.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the wiring and returns an immutable manager.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.backend == nil {
		return nil, errors.New("backend required")
	}
	if b.kv == nil {
		return nil, errors.New("credential storage required (WithRedis or WithKV)")
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	bus := b.bus
	if bus == nil {
		bus = evbus.New()
	}

	m := &Manager{
		config:      cfg,
		instanceID:  uuid.NewString(),
		store:       credstore.NewStore(b.kv, cfg.Store.KeyPrefix),
		backend:     b.backend,
		probe:       b.probe,
		invalidator: b.invalidator,
		bus:         bus,
		clock:       clock,
		metrics:     NewMetrics(cfg.Metrics),
		audit:       newAuditDispatcher(cfg.Audit, b.auditSink),
	}
	m.state = newSessionState(bus)
	m.initFlightScope()
	m.flows = m.buildFlows()

	b.built = true
	return m, nil
}
