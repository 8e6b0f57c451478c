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

// SyncHandler resolves every call before returning: Call blocks until the
// worker fulfills the completion and hands back the value or error directly.
// This is the variant for CLI-style consumers and for the maintenance loop,
// where the calling goroutine has nothing better to do than wait.
type SyncHandler struct{}

// NewSyncHandler creates a blocking handler.
func NewSyncHandler() *SyncHandler {
	return &SyncHandler{}
}

// Call runs the worker and blocks until the completion resolves.
// The returned handle is the resolved value itself.
func (h *SyncHandler) Call(info string, worker Worker) (interface{}, error) {
	c := NewCompletion()
	worker(c)
	return c.Wait()
}

// Await on an already-resolved value is a pass-through.
func (h *SyncHandler) Await(result interface{}) (interface{}, error) {
	return resolve(result)
}

// AwaitTimeout on an already-resolved value is a pass-through.
func (h *SyncHandler) AwaitTimeout(result interface{}, timeout time.Duration, fallback interface{}) (interface{}, error) {
	return resolveTimeout(result, timeout, fallback)
}

var _ Handler = (*SyncHandler)(nil)
