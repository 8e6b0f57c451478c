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

package events

import "time"

// Lease event type constants.
const (
	LeaseRenewedType        = "lease.renewed"
	LeaseRotatedType        = "lease.rotated"
	LeaseExpiredType        = "lease.expired"
	LeaseRenewalFailedType  = "lease.renewal_failed"
	LeaseRotationFailedType = "lease.rotation_failed"
)

// LeaseRenewed is published when a lease is successfully renewed.
type LeaseRenewed struct {
	BaseEvent
	// LeaseID is the server-assigned lease identity
	LeaseID string
	// Key is the caller-defined logical cache key
	Key string
	// NewExpiration is when the renewed lease expires
	NewExpiration time.Time
}

// Type returns the event type identifier.
func (e LeaseRenewed) Type() string {
	return LeaseRenewedType
}

// NewLeaseRenewed creates a LeaseRenewed event.
func NewLeaseRenewed(leaseID, key string, newExpiration time.Time) LeaseRenewed {
	return LeaseRenewed{
		BaseEvent:     NewBaseEvent(LeaseRenewedType),
		LeaseID:       leaseID,
		Key:           key,
		NewExpiration: newExpiration,
	}
}

// LeaseRotated is published when a lease's secret is replaced wholesale.
// The rotated lease has been removed from the store; the collaborator that
// performed the rotation registers the replacement independently.
type LeaseRotated struct {
	BaseEvent
	// LeaseID is the identity of the lease that was rotated away
	LeaseID string
	// Key is the caller-defined logical cache key
	Key string
}

// Type returns the event type identifier.
func (e LeaseRotated) Type() string {
	return LeaseRotatedType
}

// NewLeaseRotated creates a LeaseRotated event.
func NewLeaseRotated(leaseID, key string) LeaseRotated {
	return LeaseRotated{
		BaseEvent: NewBaseEvent(LeaseRotatedType),
		LeaseID:   leaseID,
		Key:       key,
	}
}

// LeaseExpired is published when the maintenance sweep discovers an expired
// lease and removes it from the store.
type LeaseExpired struct {
	BaseEvent
	// LeaseID is the identity of the expired lease
	LeaseID string
	// Key is the caller-defined logical cache key
	Key string
}

// Type returns the event type identifier.
func (e LeaseExpired) Type() string {
	return LeaseExpiredType
}

// NewLeaseExpired creates a LeaseExpired event.
func NewLeaseExpired(leaseID, key string) LeaseExpired {
	return LeaseExpired{
		BaseEvent: NewBaseEvent(LeaseExpiredType),
		LeaseID:   leaseID,
		Key:       key,
	}
}

// LeaseRenewalFailed is published when a renewal attempt fails.
// The lease stays in the store and is retried on the next tick, so this is
// primarily a monitoring hook.
type LeaseRenewalFailed struct {
	BaseEvent
	// LeaseID is the identity of the lease that failed to renew
	LeaseID string
	// Key is the caller-defined logical cache key
	Key string
	// Error describes what went wrong
	Error string
}

// Type returns the event type identifier.
func (e LeaseRenewalFailed) Type() string {
	return LeaseRenewalFailedType
}

// NewLeaseRenewalFailed creates a LeaseRenewalFailed event.
func NewLeaseRenewalFailed(leaseID, key, errMsg string) LeaseRenewalFailed {
	return LeaseRenewalFailed{
		BaseEvent: NewBaseEvent(LeaseRenewalFailedType),
		LeaseID:   leaseID,
		Key:       key,
		Error:     errMsg,
	}
}

// LeaseRotationFailed is published when a rotation attempt fails. The lease
// stays in the store and rotation is retried on the next tick.
type LeaseRotationFailed struct {
	BaseEvent
	// LeaseID is the identity of the lease that failed to rotate
	LeaseID string
	// Key is the caller-defined logical cache key
	Key string
	// Error describes what went wrong
	Error string
}

// Type returns the event type identifier.
func (e LeaseRotationFailed) Type() string {
	return LeaseRotationFailedType
}

// NewLeaseRotationFailed creates a LeaseRotationFailed event.
func NewLeaseRotationFailed(leaseID, key, errMsg string) LeaseRotationFailed {
	return LeaseRotationFailed{
		BaseEvent: NewBaseEvent(LeaseRotationFailedType),
		LeaseID:   leaseID,
		Key:       key,
		Error:     errMsg,
	}
}
