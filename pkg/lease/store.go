/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package lease

import (
	"sync"
	"time"
)

// CachedSecret is the payload of a cached lease together with its metadata.
// Data is the secret itself; Lease carries everything else.
type CachedSecret struct {
	Data  map[string]interface{}
	Lease Lease
}

// Patch describes a partial update applied over a stored lease. Zero-valued
// fields leave the stored record untouched; Renewable uses a pointer so that
// "set to false" and "leave alone" stay distinguishable.
type Patch struct {
	// ID selects the lease to update.
	ID string

	// Duration replaces the granted lifetime when non-zero.
	Duration time.Duration

	// ExpiresAt replaces the expiry timestamp when non-zero.
	ExpiresAt time.Time

	// RenewAfter replaces the renewal backoff gate when non-zero.
	RenewAfter time.Time

	// Renewable replaces the renewable flag when non-nil.
	Renewable *bool
}

// entry pairs lease metadata with the secret payload. The payload is kept
// beside, not inside, the lease so metadata-only scans never touch it.
type entry struct {
	lease Lease
	data  map[string]interface{}
}

// Store is a thread-safe in-memory table of lease records, addressable by
// server-assigned lease ID and by caller-defined logical key. Expired leases
// are invisible to readers; removal is explicit and happens only through
// Put, Update, Delete, Invalidate or the maintenance sweep.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewStore creates an empty lease store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Get retrieves a copy of the lease with the given ID, or nil if it is
// missing or already expired. Reading never mutates the store.
func (s *Store) Get(id string) *Lease {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || e.lease.Expired(s.now()) {
		return nil
	}
	l := e.lease
	return &l
}

// FindByKey returns the data of the newest non-expired lease whose logical
// key matches, with the lease metadata attached. Returns nil if nothing
// matches or every match is expired. Callers must treat nil as a normal
// cache miss, not an error.
func (s *Store) FindByKey(key string) *CachedSecret {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var best *entry
	for _, e := range s.entries {
		if e.lease.Key != key || e.lease.Expired(now) {
			continue
		}
		if best == nil || e.lease.ExpiresAt.After(best.lease.ExpiresAt) {
			best = e
		}
	}
	if best == nil {
		return nil
	}
	return &CachedSecret{Data: best.data, Lease: best.lease}
}

// Put stores the lease and its data under the lease's ID, unless the lease
// is already expired. The data is always returned unchanged so callers can
// use it without depending on whether storage happened.
func (s *Store) Put(l Lease, data map[string]interface{}) map[string]interface{} {
	if l.Expired(s.now()) {
		return data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[l.ID] = &entry{lease: l, data: data}
	return data
}

// Update merges a patch over the stored lease and returns a copy of the
// merged record. A patch for an unknown ID is a no-op returning nil. The
// data payload is never touched by Update.
func (s *Store) Update(p Patch) *Lease {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[p.ID]
	if !ok {
		return nil
	}

	merged := e.lease
	if p.Duration != 0 {
		merged.Duration = p.Duration
	}
	if !p.ExpiresAt.IsZero() {
		merged.ExpiresAt = p.ExpiresAt
	}
	if !p.RenewAfter.IsZero() {
		merged.RenewAfter = p.RenewAfter
	}
	if p.Renewable != nil {
		merged.Renewable = *p.Renewable
	}

	// Swap the whole entry so concurrent readers never see a torn record.
	s.entries[p.ID] = &entry{lease: merged, data: e.data}

	out := merged
	return &out
}

// Delete removes a lease by identity. Idempotent.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Invalidate removes any lease currently stored under the given logical key,
// e.g. after a write-through overwrites the cached secret. Idempotent.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.lease.Key == key {
			delete(s.entries, id)
		}
	}
}

// List returns copies of all stored leases, including ones that have expired
// since insertion. The maintenance sweep uses this snapshot to classify and
// explicitly remove expired entries.
func (s *Store) List() []Lease {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leases := make([]Lease, 0, len(s.entries))
	for _, e := range s.entries {
		leases = append(leases, e.lease)
	}
	return leases
}

// Size returns the number of stored leases, expired entries included.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes all leases from the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
}
