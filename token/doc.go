// Package token performs the local, no-network shape check on stored bearer
// credentials. The client holds no verification keys — the backend is the
// only authority on token validity — so inspection here is strictly a cheap
// filter that stops obviously broken tokens from triggering doomed network
// calls.
package token
