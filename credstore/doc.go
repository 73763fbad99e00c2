// Package credstore persists the credential bundle — bearer token, cached
// profile, last-validated timestamp — as a single atomic record under one
// key, so a partial write can never desynchronize token and profile.
//
// The codec is a versioned binary format; the storage backend is a minimal
// async KV interface with Redis and in-memory implementations. Missing keys
// are reported as absence, never as errors.
package credstore
