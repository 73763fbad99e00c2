package flows

import "context"

// RunRefresh re-runs validation bypassing the debounce guard. Used after
// privilege-affecting operations where a stale profile is worse than an
// extra round-trip. The result mapping (fresh profile vs "update failed")
// is the root engine's concern.
func RunRefresh(ctx context.Context, deps ValidateDeps) ValidateResult {
	return RunValidate(ctx, true, deps)
}
