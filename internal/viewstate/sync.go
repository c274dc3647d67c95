// Reconciles the in-memory view state with its two external representations.

package viewstate

import (
	"log/slog"
	"net/url"
	"sync"
)

// Navigator is the navigable half of the view state: something that can
// report the current query parameters and replace them in place, without a
// full page transition and without growing history.
type Navigator interface {
	Query() url.Values
	Replace(url.Values)
}

// MemoryNavigator is a Navigator holding its query in memory. Embedders that
// have no address bar (tests, TUIs) use it directly; a browser embedding
// implements Navigator over its location API instead.
type MemoryNavigator struct {
	mu sync.Mutex
	q  url.Values
}

// NewMemoryNavigator creates a MemoryNavigator seeded with initial values,
// as if the user arrived via a link carrying them.
func NewMemoryNavigator(initial url.Values) *MemoryNavigator {
	if initial == nil {
		initial = url.Values{}
	}
	return &MemoryNavigator{q: initial}
}

// Query returns a copy of the current query values.
func (n *MemoryNavigator) Query() url.Values {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := url.Values{}
	for k, vs := range n.q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Replace swaps the current query values. The values are copied so later
// caller-side mutation of the map does not alias the navigator's state.
func (n *MemoryNavigator) Replace(q url.Values) {
	copied := url.Values{}
	for k, vs := range q {
		copied[k] = append([]string(nil), vs...)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.q = copied
}

// Navigate simulates external navigation: the query changes underneath the
// synchronizer, as when the user follows a shared link.
func (n *MemoryNavigator) Navigate(q url.Values) {
	n.Replace(q)
}

// Synchronizer owns the in-memory ViewState for one collection and keeps the
// navigable and durable representations in step with it.
//
// It tracks the last serialization it wrote to the navigator so that
// re-reading the navigable representation is a no-op unless navigation
// happened externally. Without that guard, every read-modify-write cycle
// would feed back into itself.
type Synchronizer struct {
	mu           sync.Mutex
	collectionID string
	nav          Navigator
	durable      DurableStore
	state        *ViewState
	lastWritten  string
}

// NewSynchronizer resolves the initial state from the navigator (which wins
// per field), the durable store, and the defaults, in that order.
// A durable load failure degrades to the remaining sources.
func NewSynchronizer(collectionID string, nav Navigator, durable DurableStore) *Synchronizer {
	q := nav.Query()
	stored, err := durable.Load(collectionID)
	if err != nil {
		slog.Warn("Failed to load durable view state", "collection", collectionID, "err", err)
		stored = nil
	}
	s := &Synchronizer{
		collectionID: collectionID,
		nav:          nav,
		durable:      durable,
		state:        Merge(DecodeQuery(q), stored),
		lastWritten:  q.Encode(),
	}
	return s
}

// State returns a copy of the current view state.
func (s *Synchronizer) State() *ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies a mutation to the state, then writes the durable blob and
// replaces the navigable representation. Persistence failures are logged;
// the in-memory state keeps the change either way.
func (s *Synchronizer) Update(mutate func(*ViewState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(s.state)
	if err := s.durable.Save(s.collectionID, s.state); err != nil {
		slog.Warn("Failed to save durable view state", "collection", s.collectionID, "err", err)
	}
	q := EncodeQuery(s.state)
	s.nav.Replace(q)
	s.lastWritten = q.Encode()
}

// Absorb re-reads the navigable representation and, only if it changed
// externally since this synchronizer last wrote it, overwrites the in-memory
// state from it (falling back to the durable representation per field).
// It reports whether the state was replaced.
func (s *Synchronizer) Absorb() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.nav.Query()
	enc := q.Encode()
	if enc == s.lastWritten {
		return false
	}
	stored, err := s.durable.Load(s.collectionID)
	if err != nil {
		stored = nil
	}
	s.state = Merge(DecodeQuery(q), stored)
	s.lastWritten = enc
	return true
}
