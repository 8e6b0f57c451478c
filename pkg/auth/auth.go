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

// Package auth tracks the client's own authentication token: a single-slot
// analogue of the lease store. The slot is replaced wholesale on
// (re)authentication and mutated only by the maintenance tick's renewal
// logic; partial merges with untrusted input never happen.
package auth

import (
	"sync"
	"time"
)

// Info is the client's authentication state as issued by the service.
type Info struct {
	// ClientToken is the secret token used to authenticate requests.
	ClientToken string

	// Accessor identifies the token without revealing it; safe to log.
	Accessor string

	// DisplayName is the server-assigned human-readable token name.
	DisplayName string

	// LeaseDuration is the token lifetime as issued.
	LeaseDuration time.Duration

	// Policies attached to the token.
	Policies []string

	// Orphan indicates the token has no parent.
	Orphan bool

	// Renewable indicates if the token can be renewed.
	Renewable bool

	// CreatedAt is when the token was issued.
	CreatedAt time.Time

	// ExpiresAt is when the token expires. A zero value means the expiry is
	// unknown and the token is treated as already expired.
	ExpiresAt time.Time

	// RenewAfter is the earliest time another renewal may be attempted.
	RenewAfter time.Time
}

// State holds at most one live authentication record. All methods are safe
// for concurrent use by caller goroutines and the maintenance loop.
type State struct {
	mu   sync.RWMutex
	info *Info

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewState creates an empty, unauthenticated state.
func NewState() *State {
	return &State{now: time.Now}
}

// Current returns a copy of the live authentication record, or nil if the
// client has never authenticated or the state was cleared.
func (s *State) Current() *Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.info == nil {
		return nil
	}
	info := *s.info
	return &info
}

// Token returns the current client token, or "" when unauthenticated.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.info == nil {
		return ""
	}
	return s.info.ClientToken
}

// Set replaces the authentication record wholesale. Called on every
// successful authentication; the previous record is discarded entirely.
func (s *State) Set(info Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = &info
}

// Clear forgets the authentication record.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = nil
}

// Expired returns true when there is no record, the expiry is unknown, or
// the expiry has passed.
func (s *State) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.info == nil {
		return true
	}
	return s.info.ExpiresAt.IsZero() || !s.info.ExpiresAt.After(s.now())
}

// ExpiresWithin returns true when the token expires inside the window,
// following the same absence-is-expired rule.
func (s *State) ExpiresWithin(window time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.info == nil {
		return true
	}
	return s.info.ExpiresAt.IsZero() || !s.info.ExpiresAt.After(s.now().Add(window))
}

// Renewable returns true when the token is marked renewable, has a known
// expiry, and is not already expired. The renewal backoff gate is checked
// separately by the maintenance logic, not here.
func (s *State) Renewable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.info == nil || !s.info.Renewable || s.info.ExpiresAt.IsZero() {
		return false
	}
	return s.info.ExpiresAt.After(s.now())
}

// InBackoff returns true while the renewal backoff gate holds.
func (s *State) InBackoff() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.info == nil || s.info.RenewAfter.IsZero() {
		return false
	}
	return s.now().Before(s.info.RenewAfter)
}

// SetRenewAfter arms the renewal backoff gate without touching anything
// else. Used after a failed renewal attempt so the next tick doesn't retry
// immediately. A no-op when unauthenticated.
func (s *State) SetRenewAfter(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return
	}
	next := *s.info
	next.RenewAfter = t
	s.info = &next
}

// ApplyRenewal updates the slot after a successful token renewal: the new
// expiry and duration replace the old ones and the backoff gate is armed.
// A no-op when unauthenticated.
func (s *State) ApplyRenewal(info Info, renewAfter time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return
	}
	next := info
	next.RenewAfter = renewAfter
	s.info = &next
}
