// Package rate provides the in-process debounce guard that collapses
// overlapping validator invocations. The clock is injected so the window is
// deterministic in tests.
package rate
