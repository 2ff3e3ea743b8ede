package config

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Source supplies live settings to the engine. Current is called on
// every decision and must be cheap and safe from any goroutine.
type Source interface {
	Current() *Settings
}

// Store is the runtime-refreshable Source. Readers load the current
// settings through an atomic pointer; writers (the HTTP config
// surface) are serialized by a mutex. The held *Settings is treated as
// immutable: updates swap in a fresh value, never mutate in place.
type Store struct {
	mu  sync.Mutex
	cur atomic.Pointer[Settings]
}

// NewStore returns a Store seeded with s. A nil s seeds empty settings,
// which read entirely as defaults.
func NewStore(s *Settings) *Store {
	if s == nil {
		s = EmptySettings()
	}
	st := &Store{}
	st.cur.Store(s)
	return st
}

// Current returns the live settings. The result must not be mutated.
func (st *Store) Current() *Settings {
	return st.cur.Load()
}

// Replace validates next and swaps it in wholesale.
func (st *Store) Replace(next *Settings) error {
	if next == nil {
		return errors.New("nil settings")
	}
	if err := next.Validate(); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.cur.Store(next)
	return nil
}

// Patch merges the non-nil fields of patch into the current settings,
// validates the result, and swaps it in. The merged settings are
// returned so callers can echo the new state.
func (st *Store) Patch(patch *Settings) (*Settings, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.cur.Load().Merge(patch)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	st.cur.Store(next)
	return next, nil
}
