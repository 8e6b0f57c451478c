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

import "time"

// Deferred is the promise-style result handle: an unresolved value whose
// eventual content may be either data or an error. Reading it with Value
// never "throws" - errors stay ordinary values until the handle is passed
// back through Handler.Await.
type Deferred struct {
	c *Completion
}

// Value blocks until the deferred resolves and returns whatever it holds:
// the data on success, or the error itself as a value on failure.
func (d *Deferred) Value() interface{} {
	value, err := d.c.Wait()
	if err != nil {
		return err
	}
	return value
}

// ValueTimeout is Value with a bound; the fallback is returned if the
// deferred does not resolve in time.
func (d *Deferred) ValueTimeout(timeout time.Duration, fallback interface{}) interface{} {
	value, err, ok := d.c.waitTimeout(timeout)
	if !ok {
		return fallback
	}
	if err != nil {
		return err
	}
	return value
}

// Resolved reports whether the deferred has been fulfilled.
func (d *Deferred) Resolved() bool {
	return d.c.Resolved()
}

// DeferredHandler returns unresolved handles immediately: Call hands back a
// *Deferred while the worker completes it, typically from another goroutine.
type DeferredHandler struct{}

// NewDeferredHandler creates a promise-style handler.
func NewDeferredHandler() *DeferredHandler {
	return &DeferredHandler{}
}

// Call invokes the worker and returns the unresolved handle without waiting.
func (h *DeferredHandler) Call(info string, worker Worker) (interface{}, error) {
	c := NewCompletion()
	worker(c)
	return &Deferred{c: c}, nil
}

// Await blocks until the handle resolves, returning the value or surfacing
// the stored error.
func (h *DeferredHandler) Await(result interface{}) (interface{}, error) {
	return resolve(result)
}

// AwaitTimeout blocks up to timeout; expired waits yield the fallback.
func (h *DeferredHandler) AwaitTimeout(result interface{}, timeout time.Duration, fallback interface{}) (interface{}, error) {
	return resolveTimeout(result, timeout, fallback)
}

var _ Handler = (*DeferredHandler)(nil)
