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

// Package logger provides structured logging utilities for the lease runtime.
// It defines standard log fields and helper functions for consistent logging
// across the store, maintainer and service adapters.
package logger

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// Standard log field keys for consistent structured logging.
// Using consistent keys makes log aggregation and querying much easier.
const (
	// KeyLeaseID identifies the server-assigned lease being acted on
	KeyLeaseID = "leaseID"

	// KeyLeaseKey identifies the caller-defined logical cache key
	KeyLeaseKey = "leaseKey"

	// KeyOperation identifies the operation being performed (renew, rotate, expire)
	KeyOperation = "operation"

	// KeyDuration records the time taken for an operation
	KeyDuration = "duration"

	// KeyExpiresAt records a lease or token expiry timestamp
	KeyExpiresAt = "expiresAt"

	// KeyAuthStatus records the outcome of an auth maintenance tick
	KeyAuthStatus = "authStatus"

	// KeyAccessor identifies a token by accessor (never log the token itself)
	KeyAccessor = "accessor"

	// KeyError includes error details
	KeyError = "error"
)

// Operation types for logging
const (
	OpRenew      = "renew"
	OpRotate     = "rotate"
	OpExpire     = "expire"
	OpSweep      = "sweep"
	OpAuthRenew  = "auth-renew"
	OpInvalidate = "invalidate"
)

// New returns a production-ready logr.Logger backed by zap.
// Library packages accept a logr.Logger and never construct their own;
// this constructor is for test suites and embedding applications.
func New(development bool) (logr.Logger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if development {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

// FromContext extracts a logger from context with optional extra fields.
// Falls back to a discarding logger if none is found.
func FromContext(ctx context.Context, keysAndValues ...interface{}) logr.Logger {
	l := logr.FromContextOrDiscard(ctx)
	if len(keysAndValues) > 0 {
		l = l.WithValues(keysAndValues...)
	}
	return l
}

// IntoContext stores a logger in the context for later FromContext retrieval.
func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

// WithOperation adds operation context to an existing logger.
func WithOperation(l logr.Logger, op string) logr.Logger {
	return l.WithValues(KeyOperation, op)
}

// WithLease adds lease identity context to an existing logger.
func WithLease(l logr.Logger, id, key string) logr.Logger {
	return l.WithValues(KeyLeaseID, id, KeyLeaseKey, key)
}

// WithDuration adds duration context to an existing logger.
func WithDuration(l logr.Logger, d time.Duration) logr.Logger {
	return l.WithValues(KeyDuration, d.String())
}
