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

package handler

import (
	"time"

	apperrors "github.com/panteparak/vault-lease-manager/shared/infrastructure/errors"
)

// Future is the future-style result handle. It is semantically equivalent to
// Deferred but exposes native timeout support and a Done channel, which makes
// it composable with select loops.
type Future struct {
	c *Completion
}

// Done returns a channel closed when the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.c.Done()
}

// Get blocks until the future resolves and returns its outcome.
func (f *Future) Get() (interface{}, error) {
	return f.c.Wait()
}

// GetTimeout blocks up to timeout. An expired wait returns a TimeoutError.
func (f *Future) GetTimeout(timeout time.Duration) (interface{}, error) {
	value, err, ok := f.c.waitTimeout(timeout)
	if !ok {
		return nil, apperrors.NewTimeoutError("future get", timeout)
	}
	return value, err
}

// Resolved reports whether the future has been fulfilled.
func (f *Future) Resolved() bool {
	return f.c.Resolved()
}

// FutureHandler returns *Future handles immediately. Await behaves exactly
// like the deferred variant; AwaitTimeout returns the fallback value instead
// of a timeout error when the bound elapses.
type FutureHandler struct{}

// NewFutureHandler creates a future-backed handler.
func NewFutureHandler() *FutureHandler {
	return &FutureHandler{}
}

// Call invokes the worker and returns the unresolved future without waiting.
func (h *FutureHandler) Call(info string, worker Worker) (interface{}, error) {
	c := NewCompletion()
	worker(c)
	return &Future{c: c}, nil
}

// Await blocks until the handle resolves, returning the value or surfacing
// the stored error.
func (h *FutureHandler) Await(result interface{}) (interface{}, error) {
	return resolve(result)
}

// AwaitTimeout blocks up to timeout; expired waits yield the fallback.
func (h *FutureHandler) AwaitTimeout(result interface{}, timeout time.Duration, fallback interface{}) (interface{}, error) {
	return resolveTimeout(result, timeout, fallback)
}

var _ Handler = (*FutureHandler)(nil)
