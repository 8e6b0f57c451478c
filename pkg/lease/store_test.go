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
	"reflect"
	"sync"
	"testing"
	"time"
)

// newTestStore returns a store pinned to testNow.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.now = func() time.Time { return testNow }
	return s
}

func TestStorePutAndGet(t *testing.T) {
	s := newTestStore(t)
	data := map[string]interface{}{"password": "hunter2"}

	returned := s.Put(Lease{
		ID:        "lease-1",
		Key:       "db/creds/app",
		ExpiresAt: testNow.Add(time.Hour),
	}, data)

	if !reflect.DeepEqual(returned, data) {
		t.Error("Put() should return the given data unchanged")
	}

	got := s.Get("lease-1")
	if got == nil {
		t.Fatal("Get() = nil for a live lease")
	}
	if got.Key != "db/creds/app" {
		t.Errorf("Get().Key = %q, want %q", got.Key, "db/creds/app")
	}
}

func TestStorePutExpiredLease(t *testing.T) {
	s := newTestStore(t)
	data := map[string]interface{}{"password": "hunter2"}

	// Already expired: storage is skipped, data still comes back.
	returned := s.Put(Lease{
		ID:        "lease-1",
		ExpiresAt: testNow.Add(-time.Minute),
	}, data)
	if !reflect.DeepEqual(returned, data) {
		t.Error("Put() should return the data even when storage is skipped")
	}
	if s.Get("lease-1") != nil {
		t.Error("Get() should not find an expired lease")
	}
	if s.Size() != 0 {
		t.Errorf("Size() = %d, want 0", s.Size())
	}

	// No expiry information is treated the same as expired.
	s.Put(Lease{ID: "lease-2"}, data)
	if s.Size() != 0 {
		t.Error("Put() stored a lease without expiry information")
	}
}

func TestStoreGetExpiryIsLazy(t *testing.T) {
	s := newTestStore(t)
	s.Put(Lease{ID: "lease-1", ExpiresAt: testNow.Add(time.Minute)}, nil)

	// Advance the clock past expiry: the lease becomes invisible to
	// readers but stays physically present until explicitly removed.
	s.now = func() time.Time { return testNow.Add(2 * time.Minute) }

	if s.Get("lease-1") != nil {
		t.Error("Get() should treat a newly-expired lease as absent")
	}
	if s.Size() != 1 {
		t.Error("reads must not remove expired leases")
	}
}

func TestStoreFindByKey(t *testing.T) {
	s := newTestStore(t)
	dataOld := map[string]interface{}{"password": "old"}
	dataNew := map[string]interface{}{"password": "new"}

	s.Put(Lease{ID: "lease-1", Key: "db/creds/app", ExpiresAt: testNow.Add(time.Hour)}, dataOld)
	s.Put(Lease{ID: "lease-2", Key: "db/creds/app", ExpiresAt: testNow.Add(2 * time.Hour)}, dataNew)
	s.Put(Lease{ID: "lease-3", Key: "db/creds/other", ExpiresAt: testNow.Add(3 * time.Hour)}, nil)

	got := s.FindByKey("db/creds/app")
	if got == nil {
		t.Fatal("FindByKey() = nil, want newest matching lease")
	}
	if !reflect.DeepEqual(got.Data, dataNew) {
		t.Errorf("FindByKey().Data = %v, want the newest lease's data", got.Data)
	}
	if got.Lease.ID != "lease-2" {
		t.Errorf("FindByKey().Lease.ID = %q, want %q", got.Lease.ID, "lease-2")
	}

	if s.FindByKey("missing") != nil {
		t.Error("FindByKey() should be nil for an unknown key")
	}
}

func TestStoreFindByKeySkipsExpired(t *testing.T) {
	s := newTestStore(t)
	s.Put(Lease{ID: "lease-1", Key: "db/creds/app", ExpiresAt: testNow.Add(time.Minute)}, nil)

	s.now = func() time.Time { return testNow.Add(time.Hour) }

	if s.FindByKey("db/creds/app") != nil {
		t.Error("FindByKey() should skip expired matches")
	}
}

func TestStoreUpdate(t *testing.T) {
	s := newTestStore(t)
	s.Put(Lease{
		ID:        "lease-1",
		Key:       "db/creds/app",
		Duration:  time.Hour,
		ExpiresAt: testNow.Add(time.Hour),
		Renewable: true,
	}, map[string]interface{}{"password": "hunter2"})

	newExpiry := testNow.Add(90 * time.Minute)
	backoff := testNow.Add(time.Minute)
	notRenewable := false
	merged := s.Update(Patch{
		ID:         "lease-1",
		Duration:   90 * time.Minute,
		ExpiresAt:  newExpiry,
		RenewAfter: backoff,
		Renewable:  &notRenewable,
	})

	if merged == nil {
		t.Fatal("Update() = nil for an existing lease")
	}
	if !merged.ExpiresAt.Equal(newExpiry) {
		t.Errorf("merged.ExpiresAt = %v, want %v", merged.ExpiresAt, newExpiry)
	}
	if !merged.RenewAfter.Equal(backoff) {
		t.Errorf("merged.RenewAfter = %v, want %v", merged.RenewAfter, backoff)
	}
	if merged.Renewable {
		t.Error("merged.Renewable = true, want patched to false")
	}
	if merged.Key != "db/creds/app" {
		t.Error("Update() must not clear fields absent from the patch")
	}

	// The stored record reflects exactly the merged fields.
	stored := s.Get("lease-1")
	if stored == nil || !stored.ExpiresAt.Equal(newExpiry) || stored.Duration != 90*time.Minute {
		t.Error("stored lease does not reflect the merge")
	}

	// Data payload is untouched by Update.
	cached := s.FindByKey("db/creds/app")
	if cached == nil || cached.Data["password"] != "hunter2" {
		t.Error("Update() must not modify the data payload")
	}
}

func TestStoreUpdateMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	if got := s.Update(Patch{ID: "missing", ExpiresAt: testNow.Add(time.Hour)}); got != nil {
		t.Errorf("Update() = %v for unknown ID, want nil", got)
	}
	if s.Size() != 0 {
		t.Error("Update() on unknown ID must not insert anything")
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	s.Put(Lease{ID: "lease-1", ExpiresAt: testNow.Add(time.Hour)}, nil)

	s.Delete("lease-1")
	if s.Get("lease-1") != nil {
		t.Error("Get() found a deleted lease")
	}
	s.Delete("lease-1") // second call: same state, no panic
	if s.Size() != 0 {
		t.Errorf("Size() = %d after double delete, want 0", s.Size())
	}
}

func TestStoreInvalidateIdempotent(t *testing.T) {
	s := newTestStore(t)
	s.Put(Lease{ID: "lease-1", Key: "db/creds/app", ExpiresAt: testNow.Add(time.Hour)}, nil)
	s.Put(Lease{ID: "lease-2", Key: "db/creds/other", ExpiresAt: testNow.Add(time.Hour)}, nil)

	s.Invalidate("db/creds/app")
	if s.FindByKey("db/creds/app") != nil {
		t.Error("FindByKey() found an invalidated key")
	}
	if s.FindByKey("db/creds/other") == nil {
		t.Error("Invalidate() removed an unrelated key")
	}

	s.Invalidate("db/creds/app") // idempotent
	if s.Size() != 1 {
		t.Errorf("Size() = %d, want 1", s.Size())
	}
}

func TestStoreListAndClear(t *testing.T) {
	s := newTestStore(t)
	s.Put(Lease{ID: "lease-1", ExpiresAt: testNow.Add(time.Hour)}, nil)
	s.Put(Lease{ID: "lease-2", ExpiresAt: testNow.Add(time.Hour)}, nil)

	if got := len(s.List()); got != 2 {
		t.Errorf("len(List()) = %d, want 2", got)
	}

	s.Clear()
	if s.Size() != 0 {
		t.Errorf("Size() = %d after Clear(), want 0", s.Size())
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			for j := 0; j < 100; j++ {
				s.Put(Lease{ID: id, Key: "shared", ExpiresAt: time.Now().Add(time.Hour)}, nil)
				s.Get(id)
				s.FindByKey("shared")
				s.Update(Patch{ID: id, ExpiresAt: time.Now().Add(2 * time.Hour)})
				s.List()
				s.Delete(id)
			}
		}(i)
	}
	wg.Wait()
}
