package goSession

import (
	"context"
	"time"
)

// User is the profile snapshot returned by the backend. It is replaced
// wholesale on every successful fetch and never partially mutated.
type User struct {
	ID         string
	Identifier string
	Name       string
	Verified   bool
	Sector     string
	Privileges []string
}

// Clone returns a deep copy so callers can hand snapshots to observers
// without aliasing the manager-owned record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Privileges != nil {
		c.Privileges = append([]string(nil), u.Privileges...)
	}
	return &c
}

// Credentials is the token+profile pair returned by the login and
// registration endpoints.
type Credentials struct {
	Token string
	User  *User
}

// Snapshot is a point-in-time, read-only view of the session. Snapshots are
// values; mutating one has no effect on the manager.
type Snapshot struct {
	User            *User
	Token           string
	Ready           bool
	Offline         bool
	LastValidatedAt time.Time
}

// Authenticated reports whether the session holds a bearer token. An absent
// token always means anonymous, even when a stale profile is still cached
// for display purposes.
func (s Snapshot) Authenticated() bool {
	return s.Token != ""
}

// ErrorKind is the closed classification set produced by [Classify].
type ErrorKind uint8

const (
	// KindUnknown is any failure the classifier has no evidence for.
	KindUnknown ErrorKind = iota
	// KindNetwork covers connectivity loss, DNS failures, and timeouts.
	KindNetwork
	// KindTokenInvalid is a server-confirmed credential rejection (401).
	KindTokenInvalid
	// KindServer covers backend 5xx responses.
	KindServer
)

// String implements fmt.Stringer for audit and metrics labels.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindTokenInvalid:
		return "token_invalid"
	case KindServer:
		return "server_error"
	default:
		return "unknown"
	}
}

// ValidateOutcome reports which exit path a validation run took.
type ValidateOutcome uint8

const (
	// OutcomeDebounced: the run was suppressed by the debounce guard.
	OutcomeDebounced ValidateOutcome = iota
	// OutcomeAnonymous: no token was persisted; the session is anonymous.
	OutcomeAnonymous
	// OutcomeMalformed: the stored token failed the local shape check and
	// the credential bundle was cleared.
	OutcomeMalformed
	// OutcomeOfflineCached: the device is offline; the cached session was
	// accepted without a network call.
	OutcomeOfflineCached
	// OutcomeAuthenticated: the profile fetch succeeded and the bundle was
	// re-persisted.
	OutcomeAuthenticated
	// OutcomeFailOpen: the fetch failed with a recoverable kind; cached
	// state was preserved.
	OutcomeFailOpen
	// OutcomeFailClosed: the backend rejected the token; credentials were
	// cleared everywhere.
	OutcomeFailClosed
)

// String implements fmt.Stringer for audit and metrics labels.
func (o ValidateOutcome) String() string {
	switch o {
	case OutcomeDebounced:
		return "debounced"
	case OutcomeAnonymous:
		return "anonymous"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeOfflineCached:
		return "offline_cached"
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeFailOpen:
		return "fail_open"
	case OutcomeFailClosed:
		return "fail_closed"
	default:
		return "unknown"
	}
}

// RegisterRequest is the input for [Manager.Register].
type RegisterRequest struct {
	Identifier string
	Secret     string
	Name       string
	Sector     string
}

// RegisterResult is returned by [Manager.Register]. When the backend leaves
// the new account pending verification, RequiresVerification is true and no
// session is established.
type RegisterResult struct {
	User                 *User
	RequiresVerification bool
}

// Backend is the REST collaborator the manager validates and mutates
// sessions against. restapi.Client is the stock implementation; tests
// substitute fakes.
type Backend interface {
	FetchProfile(ctx context.Context, token string) (*User, error)
	Login(ctx context.Context, identifier, secret string) (*Credentials, error)
	Register(ctx context.Context, req RegisterRequest) (*Credentials, error)
}

// Probe reports device connectivity. IsConnected must be cheap; Subscribe
// delivers every connectivity transition to fn and returns an unsubscribe
// function. netprobe.Poller is the stock implementation.
type Probe interface {
	IsConnected(ctx context.Context) bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// CacheInvalidator drops privilege-dependent derived caches during logout.
// Invalidation is best-effort: a returned error is audited, never fatal,
// and never re-populates the session.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}
