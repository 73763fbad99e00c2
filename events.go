package goSession

// Event bus subscription helpers. Snapshots are delivered synchronously on
// the publishing goroutine; handlers must not block.

// SubscribeChanges registers fn for every committed session mutation and
// returns an unsubscribe function.
func (m *Manager) SubscribeChanges(fn func(Snapshot)) (func(), error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	if err := m.bus.Subscribe(TopicSessionChanged, fn); err != nil {
		return nil, err
	}
	return func() {
		_ = m.bus.Unsubscribe(TopicSessionChanged, fn)
	}, nil
}

// SubscribeReady registers fn for the one-time readiness latch. Handlers
// registered after readiness fired are never called; check Ready first.
func (m *Manager) SubscribeReady(fn func(Snapshot)) (func(), error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	if err := m.bus.Subscribe(TopicSessionReady, fn); err != nil {
		return nil, err
	}
	return func() {
		_ = m.bus.Unsubscribe(TopicSessionReady, fn)
	}, nil
}
