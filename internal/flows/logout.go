package flows

import "context"

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	// ClearSession clears all in-memory session fields in one synchronous
	// batch. Runs before anything else so observers react immediately.
	ClearSession func()
	// CancelInFlight aborts session-scoped requests so a stale response
	// cannot re-populate the cleared session.
	CancelInFlight func()
	// ResetDebounce forgets the validator window; the next login validates
	// immediately.
	ResetDebounce func()

	ClearBundle      func(ctx context.Context) error
	InvalidateCaches func(ctx context.Context) error

	// Background schedules the asynchronous cleanup phase. The root engine
	// tracks these on its waitgroup so Close can drain them.
	Background func(fn func())
	// Report receives cleanup errors for auditing. Never fatal.
	Report func(stage string, err error)
}

// RunLogout tears the session down: synchronous in-memory clear and request
// cancellation first, then best-effort background cleanup of the persisted
// bundle and derived caches. Cleanup failures are reported, never surfaced,
// and can never re-populate the session.
func RunLogout(ctx context.Context, deps LogoutDeps) {
	deps.ClearSession()
	deps.CancelInFlight()
	deps.ResetDebounce()

	deps.Background(func() {
		if err := deps.ClearBundle(ctx); err != nil {
			deps.Report("clear_bundle", err)
		}
		if deps.InvalidateCaches != nil {
			if err := deps.InvalidateCaches(ctx); err != nil {
				deps.Report("invalidate_caches", err)
			}
		}
	})
}
