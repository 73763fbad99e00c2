package flows

// Deps groups flow dependency sets. The root engine builds this once and
// delegates public methods to the matching flow implementation.
type Deps struct {
	Validate ValidateDeps
	Login    LoginDeps
	Register RegisterDeps
	Logout   LogoutDeps
}

// Failure classifies a fetch error for flow-level branching. The root
// package maps its public ErrorKind onto this local set to avoid an import
// cycle.
type Failure int

const (
	// FailureUnknown is an unclassified error.
	FailureUnknown Failure = iota
	// FailureNetwork is a connectivity-level failure.
	FailureNetwork
	// FailureTokenInvalid is a server-confirmed credential rejection. It is
	// the only failure that clears credentials.
	FailureTokenInvalid
	// FailureServer is a backend 5xx.
	FailureServer
)
