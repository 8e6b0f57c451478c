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

// Token event type constants.
const (
	TokenRenewedType       = "token.renewed"
	TokenRenewalFailedType = "token.renewal_failed"
	TokenExpiredType       = "token.expired"
)

// TokenRenewed is published when the client's own token is successfully
// renewed by the maintenance tick.
type TokenRenewed struct {
	BaseEvent
	// Accessor identifies the token without revealing it
	Accessor string
	// NewExpiration is when the renewed token expires
	NewExpiration time.Time
}

// Type returns the event type identifier.
func (e TokenRenewed) Type() string {
	return TokenRenewedType
}

// NewTokenRenewed creates a TokenRenewed event.
func NewTokenRenewed(accessor string, newExpiration time.Time) TokenRenewed {
	return TokenRenewed{
		BaseEvent:     NewBaseEvent(TokenRenewedType),
		Accessor:      accessor,
		NewExpiration: newExpiration,
	}
}

// TokenRenewalFailed is published when token renewal fails.
// This allows for monitoring and alerting on token issues.
type TokenRenewalFailed struct {
	BaseEvent
	// Accessor identifies the token without revealing it
	Accessor string
	// Error describes what went wrong
	Error string
}

// Type returns the event type identifier.
func (e TokenRenewalFailed) Type() string {
	return TokenRenewalFailedType
}

// NewTokenRenewalFailed creates a TokenRenewalFailed event.
func NewTokenRenewalFailed(accessor, errMsg string) TokenRenewalFailed {
	return TokenRenewalFailed{
		BaseEvent: NewBaseEvent(TokenRenewalFailedType),
		Accessor:  accessor,
		Error:     errMsg,
	}
}

// TokenExpired is published when the maintenance tick finds the client's
// token expired. The client needs to re-authenticate before further calls.
type TokenExpired struct {
	BaseEvent
	// Accessor identifies the token without revealing it
	Accessor string
}

// Type returns the event type identifier.
func (e TokenExpired) Type() string {
	return TokenExpiredType
}

// NewTokenExpired creates a TokenExpired event.
func NewTokenExpired(accessor string) TokenExpired {
	return TokenExpired{
		BaseEvent: NewBaseEvent(TokenExpiredType),
		Accessor:  accessor,
	}
}
