// Package goSession is a client-side session lifecycle engine: it keeps a
// single authoritative record of "who is logged in right now" for an
// application talking to a REST backend, survives offline periods by falling
// back to a cached credential bundle, and never blocks dependent code on the
// network.
//
// The package is the public surface. It exposes [Manager], [Builder],
// [Config], and value types (Snapshot, AuditEvent, MetricsSnapshot). Flow
// orchestration lives under internal/ and is never exported; persistence,
// token inspection, transport, and connectivity probing live in the
// credstore, token, restapi, and netprobe subpackages.
//
// # Policy
//
// Validation is fail-open: transient failures (network, 5xx, unclassified)
// keep the cached session alive. Only a server-confirmed credential rejection
// (HTTP 401) tears the session down, clearing both memory and the persisted
// credential bundle. Logout clears in-memory state synchronously before any
// storage cleanup starts, so observers never see a half-cleared session.
//
// # Readiness contract
//
// Snapshot.Ready latches true after the first validation attempt completes,
// on every path — success, offline, malformed token, transport failure — and
// never reverts. Code gating on readiness is therefore never blocked
// indefinitely.
package goSession
