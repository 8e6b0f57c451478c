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

// Package handler provides the pluggable delivery abstraction used for every
// network call in the lease runtime. A Handler decides how the eventual
// outcome of an asynchronous operation reaches the caller: resolved in place
// (SyncHandler), as a deferred value read at leisure (DeferredHandler), or as
// a future with native timeout support (FutureHandler).
//
// The handler is chosen once at client construction time and passed by
// reference everywhere a call is made, so the same core logic serves blocking
// CLI-style consumers and event-loop-style consumers without duplication.
package handler

import (
	"sync"
	"time"

	apperrors "github.com/panteparak/vault-lease-manager/shared/infrastructure/errors"
)

// Worker performs the actual I/O for one call. It receives a fresh
// Completion and must eventually invoke exactly one of Success or Error on
// it, possibly from another goroutine.
type Worker func(c *Completion)

// Handler controls how an asynchronous result is delivered to a caller.
//
// Call invokes the worker with a fresh single-assignment Completion and
// returns a variant-specific result handle: the resolved value itself for
// SyncHandler, a *Deferred or *Future for the asynchronous variants.
//
// Await and AwaitTimeout resolve a handle produced by Call. Plain values
// pass through untouched, so call sites never need to know which variant
// they were constructed with.
type Handler interface {
	Call(info string, worker Worker) (interface{}, error)

	// Await blocks until the handle resolves and returns its value, or the
	// stored error if the call failed.
	Await(result interface{}) (interface{}, error)

	// AwaitTimeout is Await with a bound. If the handle does not resolve in
	// time, the fallback is returned; a nil fallback yields a TimeoutError.
	AwaitTimeout(result interface{}, timeout time.Duration, fallback interface{}) (interface{}, error)
}

// Completion is a single-assignment container for the outcome of one call.
// Exactly one of Success or Error must be invoked per container; later
// invocations are ignored (first write wins).
type Completion struct {
	once  sync.Once
	done  chan struct{}
	value interface{}
	err   error
}

// NewCompletion creates an unresolved Completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Success fulfills the completion with a value.
// Returns false if the completion was already resolved.
func (c *Completion) Success(value interface{}) bool {
	resolved := false
	c.once.Do(func() {
		c.value = value
		resolved = true
		close(c.done)
	})
	return resolved
}

// Error fulfills the completion with an error.
// Returns false if the completion was already resolved.
func (c *Completion) Error(err error) bool {
	resolved := false
	c.once.Do(func() {
		c.err = err
		resolved = true
		close(c.done)
	})
	return resolved
}

// Done returns a channel closed once the completion is resolved.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Resolved reports whether the completion has been fulfilled.
func (c *Completion) Resolved() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the completion resolves and returns the stored outcome.
func (c *Completion) Wait() (interface{}, error) {
	<-c.done
	return c.value, c.err
}

// waitTimeout blocks up to timeout. The second return is false if the
// completion did not resolve in time.
func (c *Completion) waitTimeout(timeout time.Duration) (interface{}, error, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-c.done:
		return c.value, c.err, true
	case <-timer.C:
		return nil, nil, false
	}
}

// resolve normalizes a result handle from any handler variant into a
// (value, error) pair, blocking if the handle is still pending. Values that
// are not handles pass through untouched.
func resolve(result interface{}) (interface{}, error) {
	switch r := result.(type) {
	case *Completion:
		return r.Wait()
	case *Deferred:
		return r.c.Wait()
	case *Future:
		return r.c.Wait()
	default:
		return result, nil
	}
}

// resolveTimeout is resolve with a bound. Expired waits yield the fallback,
// or a TimeoutError when no fallback is given.
func resolveTimeout(result interface{}, timeout time.Duration, fallback interface{}) (interface{}, error) {
	var c *Completion
	switch r := result.(type) {
	case *Completion:
		c = r
	case *Deferred:
		c = r.c
	case *Future:
		c = r.c
	default:
		return result, nil
	}

	value, err, ok := c.waitTimeout(timeout)
	if !ok {
		if fallback == nil {
			return nil, apperrors.NewTimeoutError("await", timeout)
		}
		return fallback, nil
	}
	return value, err
}
