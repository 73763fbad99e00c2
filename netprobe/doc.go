// Package netprobe provides the stock connectivity probe: a poller over a
// pluggable reachability check that caches the last verdict and fans out
// transition notifications to subscribers. It satisfies goSession.Probe
// structurally without importing it.
package netprobe
