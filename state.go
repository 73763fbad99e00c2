package goSession

import (
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// Event bus topics. Subscribers receive a [Snapshot] value.
const (
	// TopicSessionChanged fires on every committed session mutation.
	TopicSessionChanged = "session.changed"
	// TopicSessionReady fires exactly once, when readiness latches.
	TopicSessionReady = "session.ready"
)

// sessionState is the single mutable session record. All mutation goes
// through these methods; profile-bearing writes are conditional on the
// token they were started for, so a slow validation run that outlives a
// logout or a fresh login cannot clobber the newer session.
type sessionState struct {
	mu              sync.Mutex
	user            *User
	token           string
	ready           bool
	offline         bool
	lastValidatedAt time.Time

	bus evbus.Bus
}

func newSessionState(bus evbus.Bus) *sessionState {
	return &sessionState{bus: bus}
}

func (s *sessionState) snapshotLocked() Snapshot {
	return Snapshot{
		User:            s.user.Clone(),
		Token:           s.token,
		Ready:           s.ready,
		Offline:         s.offline,
		LastValidatedAt: s.lastValidatedAt,
	}
}

func (s *sessionState) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// publish runs outside the state lock; subscribers may read the snapshot
// synchronously without deadlocking.
func (s *sessionState) publish(topic string, snap Snapshot) {
	if s.bus != nil {
		s.bus.Publish(topic, snap)
	}
}

// markReady latches readiness. The first call publishes TopicSessionReady;
// later calls are no-ops. Readiness never reverts.
func (s *sessionState) markReady() {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return
	}
	s.ready = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(TopicSessionReady, snap)
	s.publish(TopicSessionChanged, snap)
}

func (s *sessionState) setOffline(offline bool) {
	s.mu.Lock()
	if s.offline == offline {
		s.mu.Unlock()
		return
	}
	s.offline = offline
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(TopicSessionChanged, snap)
}

// installProvisional places a cached token+profile into live state ahead of
// backend confirmation.
func (s *sessionState) installProvisional(token string, user *User) {
	s.mu.Lock()
	s.token = token
	if user != nil {
		s.user = user
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(TopicSessionChanged, snap)
}

// commitProfile replaces the profile wholesale if token is still the live
// token. Returns false when the write lost to a logout or a newer login.
func (s *sessionState) commitProfile(token string, user *User, at time.Time) bool {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return false
	}
	s.user = user
	if at.After(s.lastValidatedAt) {
		s.lastValidatedAt = at
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(TopicSessionChanged, snap)
	return true
}

// establish wholesale-replaces the session after login or registration.
func (s *sessionState) establish(token string, user *User, at time.Time) {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.lastValidatedAt = at
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(TopicSessionChanged, snap)
}

// clearAll clears user, token, and lastValidated in one locked batch.
// Readers never observe token-without-user teardown. Readiness and the
// offline flag are untouched.
func (s *sessionState) clearAll() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.lastValidatedAt = time.Time{}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(TopicSessionChanged, snap)
}

// clearIf clears the session only when token is still the live token, so a
// stale fail-closed verdict cannot tear down a newer session.
func (s *sessionState) clearIf(token string) {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return
	}
	s.user = nil
	s.token = ""
	s.lastValidatedAt = time.Time{}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(TopicSessionChanged, snap)
}
