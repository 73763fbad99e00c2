package goSession

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricValidateAuthenticated counts validation runs that confirmed the
	// session against the backend.
	MetricValidateAuthenticated MetricID = iota
	// MetricValidateAnonymous counts runs that found no persisted token.
	MetricValidateAnonymous
	// MetricValidateMalformed counts runs that rejected the stored token
	// locally.
	MetricValidateMalformed
	// MetricValidateOfflineCached counts runs accepted from cache while
	// offline.
	MetricValidateOfflineCached
	// MetricValidateFailOpen counts runs that kept cached state after a
	// recoverable failure.
	MetricValidateFailOpen
	// MetricValidateFailClosed counts forced logouts from a 401.
	MetricValidateFailClosed
	// MetricValidateDebounced counts runs suppressed by the debounce guard.
	MetricValidateDebounced
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts failed logins, unverified accounts included.
	MetricLoginFailure
	// MetricRegisterSuccess counts registrations that established a session.
	MetricRegisterSuccess
	// MetricRegisterPending counts registrations left pending verification.
	MetricRegisterPending
	// MetricRegisterFailure counts failed registrations.
	MetricRegisterFailure
	// MetricLogout counts logouts.
	MetricLogout
	// MetricRefreshSuccess counts successful forced refreshes.
	MetricRefreshSuccess
	// MetricRefreshFailure counts failed forced refreshes.
	MetricRefreshFailure
	// MetricTriggerForeground counts foreground-transition triggers.
	MetricTriggerForeground
	// MetricTriggerReconnect counts offline→online edge triggers.
	MetricTriggerReconnect
	// MetricTriggerPeriodic counts periodic timer triggers.
	MetricTriggerPeriodic
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free in-process counters. Counters are cache-line
// padded so hot increments from triggers and flows do not false-share.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// NewMetrics builds a counter set; disabled metrics make Inc a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are recording.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies the counters. Safe to call concurrently with increments.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
