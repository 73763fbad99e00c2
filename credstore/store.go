package credstore

import (
	"context"
	"errors"
)

// Store persists the credential bundle through a [KV] backend. There is a
// single logical writer (the session manager), so writes are last-write-wins
// with no locking.
type Store struct {
	kv     KV
	prefix string
}

// NewStore builds a store over kv. prefix namespaces the bundle key.
func NewStore(kv KV, prefix string) *Store {
	if prefix == "" {
		prefix = "gosession"
	}
	return &Store{kv: kv, prefix: prefix}
}

func (s *Store) key() string {
	return s.prefix + ":bundle"
}

// Load reads the persisted bundle. A missing record returns (nil, nil).
// A corrupt record is cleared and reported as absence: the caller cannot
// do anything useful with it, and leaving it in place would poison every
// startup.
func (s *Store) Load(ctx context.Context) (*Bundle, error) {
	data, ok, err := s.kv.Get(ctx, s.key())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	b, err := Decode(data)
	if err != nil {
		if errors.Is(err, ErrCorruptBundle) {
			_ = s.kv.Delete(ctx, s.key())
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// Save writes the bundle as one record. Token and profile cannot be
// persisted independently.
func (s *Store) Save(ctx context.Context, b *Bundle) error {
	data, err := Encode(b)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key(), data)
}

// Clear removes the bundle. Deleting an absent record is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key())
}
