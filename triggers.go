package goSession

import (
	"context"
	"sync"
	"time"
)

// Lifecycle triggers: three independent producers — foreground transition,
// connectivity restore, periodic timer — all funnel into Validate. None of
// them assumes exclusive access; overlap collapses in the debounce guard.

func (m *Manager) startTriggers() {
	m.triggersOnce.Do(func() {
		if m.probe != nil {
			m.unsubscribe = m.probe.Subscribe(m.onConnectivity())
		}
		if m.config.Trigger.PeriodicInterval > 0 {
			m.wg.Add(1)
			go m.runPeriodic()
		}
	})
}

func (m *Manager) stopTriggers() {
	close(m.triggerStop)
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// onConnectivity returns the probe callback. Every event updates the
// offline flag; only the offline→online EDGE revalidates, so repeated
// online notifications stay quiet.
func (m *Manager) onConnectivity() func(online bool) {
	var mu sync.Mutex
	wasOnline := true

	return func(online bool) {
		if m.closed.Load() {
			return
		}

		mu.Lock()
		edge := online && !wasOnline
		wasOnline = online
		mu.Unlock()

		m.state.setOffline(!online)

		if !edge || !m.config.Trigger.ValidateOnReconnect {
			return
		}
		m.metrics.Inc(MetricTriggerReconnect)
		m.triggeredValidate(TriggerReconnect)
	}
}

func (m *Manager) runPeriodic() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.Trigger.PeriodicInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Only while a session is active and the app is foregrounded.
			if !m.foregrounded.Load() || !m.Snapshot().Authenticated() {
				continue
			}
			m.metrics.Inc(MetricTriggerPeriodic)
			m.triggeredValidate(TriggerPeriodic)
		case <-m.triggerStop:
			return
		}
	}
}

// NotifyForeground signals a background→active transition. Hosts call this
// from their app lifecycle hook.
func (m *Manager) NotifyForeground() {
	if m == nil || m.closed.Load() {
		return
	}
	m.foregrounded.Store(true)
	if !m.config.Trigger.ValidateOnForeground {
		return
	}
	m.metrics.Inc(MetricTriggerForeground)
	m.triggeredValidate(TriggerForeground)
}

// NotifyBackground signals the app left the foreground; the periodic timer
// pauses until the next NotifyForeground.
func (m *Manager) NotifyBackground() {
	if m == nil {
		return
	}
	m.foregrounded.Store(false)
}

func (m *Manager) triggeredValidate(source string) {
	m.emit(context.Background(), AuditEvent{
		EventType: auditEventTriggerFired,
		Trigger:   source,
		Success:   true,
	})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_, _ = m.Validate(WithTriggerSource(context.Background(), source))
	}()
}
