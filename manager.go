package goSession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/MrEthical07/goSession/credstore"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/token"
)

// Manager owns the process-wide session record and funnels every mutation
// through the validator and mutator flows. Build one through [Builder];
// methods are safe for concurrent use afterwards.
//
// The manager deliberately does not serialize overlapping validation runs:
// two runs admitted outside the debounce window may race, and the last
// completing write wins. The fail-open/fail-closed invariants hold per run,
// and state writes are conditional on the token a run started for, so the
// race cannot resurrect a logged-out session.
type Manager struct {
	config      Config
	instanceID  string
	state       *sessionState
	store       *credstore.Store
	backend     Backend
	probe       Probe
	invalidator CacheInvalidator
	bus         evbus.Bus
	clock       func() time.Time
	guard       *rate.Guard
	flows       flows.Service
	audit       *auditDispatcher
	metrics     *Metrics

	// flight scope: cancelled wholesale on logout so a stale profile
	// response cannot land after the session is gone.
	flightMu     sync.Mutex
	flightCtx    context.Context
	flightCancel context.CancelFunc

	triggersOnce sync.Once
	triggerStop  chan struct{}
	unsubscribe  func()
	foregrounded atomic.Bool

	wg     sync.WaitGroup
	closed atomic.Bool
}

func (m *Manager) initFlightScope() {
	m.guard = rate.NewGuard(m.config.Validation.DebounceWindow, m.clock)
	m.triggerStop = make(chan struct{})
	m.flightCtx, m.flightCancel = context.WithCancel(context.Background())
	m.foregrounded.Store(true)
}

// sessionScoped derives a context cancelled by either the caller or a
// logout.
func (m *Manager) sessionScoped(ctx context.Context) (context.Context, context.CancelFunc) {
	m.flightMu.Lock()
	flight := m.flightCtx
	m.flightMu.Unlock()

	child, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(flight, cancel)
	return child, func() {
		stop()
		cancel()
	}
}

func (m *Manager) cancelFlight() {
	m.flightMu.Lock()
	m.flightCancel()
	m.flightCtx, m.flightCancel = context.WithCancel(context.Background())
	m.flightMu.Unlock()
}

func userFromRecord(r *credstore.UserRecord) *User {
	if r == nil {
		return nil
	}
	return &User{
		ID:         r.ID,
		Identifier: r.Identifier,
		Name:       r.Name,
		Verified:   r.Verified,
		Sector:     r.Sector,
		Privileges: append([]string(nil), r.Privileges...),
	}
}

func recordFromUser(u *User) *credstore.UserRecord {
	if u == nil {
		return nil
	}
	return &credstore.UserRecord{
		ID:         u.ID,
		Identifier: u.Identifier,
		Name:       u.Name,
		Verified:   u.Verified,
		Sector:     u.Sector,
		Privileges: append([]string(nil), u.Privileges...),
	}
}

func (m *Manager) inspectToken(tokenStr string) error {
	if m.config.Validation.AcceptOpaqueTokens {
		return token.InspectLoose(tokenStr)
	}
	info, err := token.Inspect(tokenStr)
	if err != nil {
		return err
	}
	// A locally expired token cannot authenticate anything; treat it like
	// a malformed one so startup lands on anonymous instead of a doomed
	// fetch.
	if token.Expired(info, m.clock()) {
		return token.ErrMalformed
	}
	return nil
}

func (m *Manager) classifyFlow(err error) flows.Failure {
	switch Classify(err) {
	case KindNetwork:
		return flows.FailureNetwork
	case KindTokenInvalid:
		return flows.FailureTokenInvalid
	case KindServer:
		return flows.FailureServer
	default:
		return flows.FailureUnknown
	}
}

func (m *Manager) buildFlows() flows.Service {
	validate := flows.ValidateDeps{
		Allow:     m.guard.Allow,
		MarkReady: m.state.markReady,

		LoadBundle: func(ctx context.Context) (*credstore.Bundle, error) {
			b, err := m.store.Load(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			return b, nil
		},
		SaveBundle:  m.store.Save,
		ClearBundle: m.store.Clear,

		InspectToken: m.inspectToken,

		InstallProvisional: func(tok string, user *credstore.UserRecord) {
			m.state.installProvisional(tok, userFromRecord(user))
		},
		CommitProfile: func(tok string, user *credstore.UserRecord, at time.Time) bool {
			return m.state.commitProfile(tok, userFromRecord(user), at)
		},
		ClearSessionIf: m.state.clearIf,
		SetAnonymous:   m.state.clearAll,
		SetOffline:     m.state.setOffline,

		IsConnected: func(ctx context.Context) bool {
			if m.probe == nil {
				return true
			}
			return m.probe.IsConnected(ctx)
		},
		FetchProfile: func(ctx context.Context, tok string) (*credstore.UserRecord, error) {
			scoped, cancel := m.sessionScoped(ctx)
			defer cancel()
			user, err := m.backend.FetchProfile(scoped, tok)
			if err != nil {
				return nil, err
			}
			return recordFromUser(user), nil
		},
		FetchTimeout: m.config.Validation.FetchTimeout,

		Classify: m.classifyFlow,
		Now:      m.clock,
	}

	login := flows.LoginDeps{
		Login: func(ctx context.Context, identifier, secret string) (*flows.Credentials, error) {
			creds, err := m.backend.Login(ctx, identifier, secret)
			if err != nil {
				return nil, err
			}
			return &flows.Credentials{Token: creds.Token, User: recordFromUser(creds.User)}, nil
		},
		InspectToken: m.inspectToken,
		SaveBundle:   m.store.Save,
		Establish: func(tok string, user *credstore.UserRecord, at time.Time) {
			m.state.establish(tok, userFromRecord(user), at)
		},
		ErrUnverified: ErrAccountUnverified,
		ErrMalformed:  ErrTokenMalformed,
		Timeout:       m.config.Validation.FetchTimeout,
		Now:           m.clock,
	}

	register := flows.RegisterDeps{
		Register: func(ctx context.Context, req flows.RegisterRequest) (*flows.Credentials, error) {
			creds, err := m.backend.Register(ctx, RegisterRequest{
				Identifier: req.Identifier,
				Secret:     req.Secret,
				Name:       req.Name,
				Sector:     req.Sector,
			})
			if err != nil {
				return nil, err
			}
			return &flows.Credentials{Token: creds.Token, User: recordFromUser(creds.User)}, nil
		},
		InspectToken: m.inspectToken,
		SaveBundle:   m.store.Save,
		Establish: func(tok string, user *credstore.UserRecord, at time.Time) {
			m.state.establish(tok, userFromRecord(user), at)
		},
		ErrMalformed: ErrTokenMalformed,
		Timeout:      m.config.Validation.FetchTimeout,
		Now:          m.clock,
	}

	logout := flows.LogoutDeps{
		ClearSession:   m.state.clearAll,
		CancelInFlight: m.cancelFlight,
		ResetDebounce:  m.guard.Reset,
		ClearBundle: func(context.Context) error {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), m.config.Store.WriteTimeout)
			defer cancel()
			return m.store.Clear(cleanupCtx)
		},
		InvalidateCaches: func(context.Context) error {
			if m.invalidator == nil {
				return nil
			}
			cleanupCtx, cancel := context.WithTimeout(context.Background(), m.config.Store.WriteTimeout)
			defer cancel()
			return m.invalidator.Invalidate(cleanupCtx)
		},
		Background: func(fn func()) {
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				fn()
			}()
		},
		Report: func(stage string, err error) {
			m.emit(context.Background(), AuditEvent{
				EventType: auditEventLogoutCleanup,
				Outcome:   stage,
				Error:     err.Error(),
			})
		},
	}

	return flows.New(flows.Deps{
		Validate: validate,
		Login:    login,
		Register: register,
		Logout:   logout,
	})
}

func (m *Manager) emit(ctx context.Context, event AuditEvent) {
	if m.audit == nil {
		return
	}
	event.Timestamp = m.clock()
	event.InstanceID = m.instanceID
	m.audit.Emit(ctx, event)
}

func outcomeFromFlow(o flows.Outcome) ValidateOutcome {
	switch o {
	case flows.OutcomeAnonymous:
		return OutcomeAnonymous
	case flows.OutcomeMalformed:
		return OutcomeMalformed
	case flows.OutcomeOfflineCached:
		return OutcomeOfflineCached
	case flows.OutcomeAuthenticated:
		return OutcomeAuthenticated
	case flows.OutcomeFailOpen:
		return OutcomeFailOpen
	case flows.OutcomeFailClosed:
		return OutcomeFailClosed
	default:
		return OutcomeDebounced
	}
}

func (m *Manager) validateMetric(outcome ValidateOutcome) MetricID {
	switch outcome {
	case OutcomeAnonymous:
		return MetricValidateAnonymous
	case OutcomeMalformed:
		return MetricValidateMalformed
	case OutcomeOfflineCached:
		return MetricValidateOfflineCached
	case OutcomeAuthenticated:
		return MetricValidateAuthenticated
	case OutcomeFailOpen:
		return MetricValidateFailOpen
	case OutcomeFailClosed:
		return MetricValidateFailClosed
	default:
		return MetricValidateDebounced
	}
}

// Start runs the initial validation (the cold-start path) and arms the
// lifecycle triggers. Call once; later calls only revalidate.
func (m *Manager) Start(ctx context.Context) (ValidateOutcome, error) {
	if m == nil {
		return OutcomeDebounced, ErrManagerNotReady
	}
	if m.closed.Load() {
		return OutcomeDebounced, ErrManagerClosed
	}

	m.startTriggers()
	return m.Validate(WithTriggerSource(ctx, TriggerStartup))
}

// Validate runs one validation pass (debounced). The returned error is the
// classified fetch failure when the run ended fail-open or fail-closed;
// successful, offline, anonymous, and debounced runs return nil.
func (m *Manager) Validate(ctx context.Context) (ValidateOutcome, error) {
	if m == nil {
		return OutcomeDebounced, ErrManagerNotReady
	}
	if m.closed.Load() {
		return OutcomeDebounced, ErrManagerClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res := m.flows.Validate(ctx, false)
	return m.finishValidate(ctx, res)
}

func (m *Manager) finishValidate(ctx context.Context, res flows.ValidateResult) (ValidateOutcome, error) {
	outcome := outcomeFromFlow(res.Outcome)
	m.metrics.Inc(m.validateMetric(outcome))

	event := AuditEvent{
		EventType: auditEventValidate,
		Trigger:   triggerSourceFromContext(ctx),
		Outcome:   outcome.String(),
		Success:   res.Err == nil,
	}
	if res.Err != nil {
		event.Error = res.Err.Error()
	}
	if res.User != nil {
		event.UserID = res.User.ID
	}
	m.emit(ctx, event)

	var err error
	switch outcome {
	case OutcomeFailClosed:
		err = kindError(KindTokenInvalid, res.Err)
	case OutcomeFailOpen:
		err = kindError(Classify(res.Err), res.Err)
	case OutcomeMalformed:
		err = ErrTokenMalformed
	}
	return outcome, err
}

// Login authenticates against the backend and establishes the session.
// Unverified accounts always reject with [ErrAccountUnverified]. A failed
// attempt writes nothing, so an existing session survives it untouched.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (*User, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	record, err := m.flows.Login(ctx, identifier, secret)
	if err != nil {
		m.metrics.Inc(MetricLoginFailure)
		m.emit(ctx, AuditEvent{
			EventType: auditEventLoginFailure,
			Error:     err.Error(),
		})
		return nil, m.mapLoginError(err)
	}

	user := userFromRecord(record)
	m.metrics.Inc(MetricLoginSuccess)
	m.emit(ctx, AuditEvent{
		EventType: auditEventLoginSuccess,
		UserID:    user.ID,
		Success:   true,
	})
	return user, nil
}

func (m *Manager) mapLoginError(err error) error {
	if errors.Is(err, ErrAccountUnverified) || errors.Is(err, ErrTokenMalformed) {
		return err
	}
	// A 401 from the login endpoint means bad credentials, not a bad
	// stored token.
	var status *StatusError
	if errors.As(err, &status) && status.Code == 401 {
		return errors.Join(ErrInvalidCredentials, err)
	}
	return kindError(Classify(err), err)
}

// Register creates an account. When the backend leaves it pending
// verification the result says so and no session is established.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	res, err := m.flows.Register(ctx, flows.RegisterRequest{
		Identifier: req.Identifier,
		Secret:     req.Secret,
		Name:       req.Name,
		Sector:     req.Sector,
	})
	if err != nil {
		m.metrics.Inc(MetricRegisterFailure)
		m.emit(ctx, AuditEvent{
			EventType: auditEventRegisterFailure,
			Error:     err.Error(),
		})
		return nil, kindError(Classify(err), err)
	}

	out := &RegisterResult{
		User:                 userFromRecord(res.User),
		RequiresVerification: res.RequiresVerification,
	}
	if res.RequiresVerification {
		m.metrics.Inc(MetricRegisterPending)
		m.emit(ctx, AuditEvent{EventType: auditEventRegisterPending, Success: true})
	} else {
		m.metrics.Inc(MetricRegisterSuccess)
		m.emit(ctx, AuditEvent{
			EventType: auditEventRegisterSuccess,
			UserID:    out.User.ID,
			Success:   true,
		})
	}
	return out, nil
}

// Logout clears the in-memory session synchronously — a Snapshot taken
// immediately after returns anonymous — cancels session-scoped requests,
// and schedules best-effort storage and cache cleanup in the background.
func (m *Manager) Logout(ctx context.Context) {
	if m == nil || m.closed.Load() {
		return
	}

	m.flows.Logout(ctx)
	m.metrics.Inc(MetricLogout)
	m.emit(ctx, AuditEvent{EventType: auditEventLogout, Success: true})
}

// Refresh re-runs the profile fetch unconditionally, bypassing the
// debounce. On success it returns the fresh profile; on any failure it
// returns the classified error and — except for a confirmed 401 — leaves
// the existing session untouched.
func (m *Manager) Refresh(ctx context.Context) (*User, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = WithTriggerSource(ctx, TriggerRefresh)

	res := m.flows.Refresh(ctx)
	outcome, err := m.finishValidate(ctx, res)

	switch outcome {
	case OutcomeAuthenticated:
		m.metrics.Inc(MetricRefreshSuccess)
		m.emit(ctx, AuditEvent{EventType: auditEventRefreshSuccess, Success: true})
		return userFromRecord(res.User), nil
	case OutcomeAnonymous:
		err = ErrNotAuthenticated
	case OutcomeOfflineCached:
		err = ErrNetworkUnavailable
	}

	m.metrics.Inc(MetricRefreshFailure)
	event := AuditEvent{EventType: auditEventRefreshFailure, Outcome: outcome.String()}
	if err != nil {
		event.Error = err.Error()
	}
	m.emit(ctx, event)
	return nil, err
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return m.state.snapshot()
}

// Ready reports whether the first validation attempt has completed.
func (m *Manager) Ready() bool {
	return m.Snapshot().Ready
}

// MetricsSnapshot copies the in-process counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return m.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// Close stops the triggers, waits for background cleanup, and drains the
// audit dispatcher. The manager is unusable afterwards.
func (m *Manager) Close() {
	if m == nil || !m.closed.CompareAndSwap(false, true) {
		return
	}

	m.stopTriggers()
	m.flightMu.Lock()
	m.flightCancel()
	m.flightMu.Unlock()
	m.wg.Wait()
	if m.audit != nil {
		m.audit.Close()
	}
}
