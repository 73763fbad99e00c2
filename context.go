package goSession

import "context"

type triggerSourceContextKey struct{}

// Trigger source labels attached to validator runs for audit attribution.
const (
	TriggerStartup    = "startup"
	TriggerForeground = "foreground"
	TriggerReconnect  = "reconnect"
	TriggerPeriodic   = "periodic"
	TriggerManual     = "manual"
	TriggerRefresh    = "refresh"
)

// WithTriggerSource attaches the trigger label that initiated a validation
// run to ctx. The manager records it on audit events; absent labels default
// to [TriggerManual].
func WithTriggerSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, triggerSourceContextKey{}, source)
}

func triggerSourceFromContext(ctx context.Context) string {
	if ctx == nil {
		return TriggerManual
	}
	source, _ := ctx.Value(triggerSourceContextKey{}).(string)
	if source == "" {
		return TriggerManual
	}
	return source
}
