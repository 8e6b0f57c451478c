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

// Package lease defines the lease record tracked for every time-bounded
// secret grant, and the in-memory store that caches outstanding leases for
// the maintenance loop and for read-through secret lookups.
package lease

import (
	"context"
	"time"
)

// Renewal is the metadata returned by a successful renew call: the new
// grant duration and whether further renewals remain possible.
type Renewal struct {
	// LeaseID echoes the renewed lease's identity.
	LeaseID string

	// Duration is the newly granted lifetime.
	Duration time.Duration

	// Renewable indicates if the lease can be renewed again.
	Renewable bool
}

// RenewFunc extends an existing lease. Supplied by the service adapter that
// issued the lease; increment is advisory.
type RenewFunc func(ctx context.Context, leaseID string, increment time.Duration) (*Renewal, error)

// RotateFunc replaces a secret wholesale when its lease cannot be renewed.
// The producing adapter is responsible for registering the replacement lease.
type RotateFunc func(ctx context.Context) (map[string]interface{}, error)

// Lease represents a time-bounded grant of access to secret data.
//
// ID is the server-assigned identity and the store's primary key. Key is the
// caller-defined logical identity grouping leases that back "the same secret"
// across reissuance.
type Lease struct {
	// ID is the server-assigned lease identity, unique per issuance.
	ID string

	// Key is the opaque caller-defined logical cache key.
	Key string

	// Duration is the granted lifetime as issued.
	Duration time.Duration

	// ExpiresAt is the absolute expiry timestamp. A zero value means the
	// expiry is unknown and the lease is treated as already expired.
	ExpiresAt time.Time

	// Renewable indicates if the server allows renewing this lease.
	Renewable bool

	// RenewWithin is how long before expiry renewal should be attempted.
	// Zero disables renewal.
	RenewWithin time.Duration

	// RenewIncrement is the requested renewal duration, advisory only.
	RenewIncrement time.Duration

	// RenewAfter is the earliest time another renewal attempt is allowed.
	// Set after each attempt to keep one lease from being renewed on every
	// tick of its remaining renewal window.
	RenewAfter time.Time

	// RotateWithin is how long before expiry rotation should be attempted
	// when the lease is not eligible for renewal. Zero disables rotation.
	RotateWithin time.Duration

	// Renew extends this lease. Required for renewal to happen.
	Renew RenewFunc

	// Rotate replaces the backing secret entirely. Required for rotation.
	Rotate RotateFunc

	// OnRenew is invoked with the updated lease after a successful renewal.
	// Panics are swallowed.
	OnRenew func(*Lease)

	// OnRotate is invoked with the rotation result after a successful
	// rotation. Panics are swallowed.
	OnRotate func(map[string]interface{})

	// OnError is invoked with the error that failed a renewal or rotation.
	// Panics are swallowed.
	OnError func(error)
}

// Expired returns true when the lease's expiry has passed, or when no expiry
// is known. Absence of expiry information is never interpreted as
// "never expires".
func (l *Lease) Expired(now time.Time) bool {
	return l.ExpiresAt.IsZero() || !l.ExpiresAt.After(now)
}

// ExpiresWithin returns true when the lease expires inside the given window
// (including leases already expired).
func (l *Lease) ExpiresWithin(now time.Time, window time.Duration) bool {
	return l.ExpiresAt.IsZero() || !l.ExpiresAt.After(now.Add(window))
}

// RenewDue returns true when a renewal attempt should be made now: the lease
// is renewable, has a renewal window, is inside it, and is not gated by the
// renewal backoff.
func (l *Lease) RenewDue(now time.Time) bool {
	if !l.Renewable || l.RenewWithin <= 0 || l.Renew == nil {
		return false
	}
	if !l.ExpiresWithin(now, l.RenewWithin) {
		return false
	}
	return l.RenewAfter.IsZero() || !now.Before(l.RenewAfter)
}

// RotateDue returns true when a rotation attempt should be made now: the
// lease has a rotate callback with a rotation window and expires inside it.
// Rotation is the fallback for leases that cannot be renewed; a lease that is
// eligible for renewal is never rotation-due, even while its renewal backoff
// holds attempts off.
func (l *Lease) RotateDue(now time.Time) bool {
	if l.Rotate == nil || l.RotateWithin <= 0 {
		return false
	}
	if l.Renewable && l.RenewWithin > 0 && l.Renew != nil && l.ExpiresWithin(now, l.RenewWithin) {
		return false
	}
	return l.ExpiresWithin(now, l.RotateWithin)
}
