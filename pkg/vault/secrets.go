package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/panteparak/vault-lease-manager/pkg/handler"
	"github.com/panteparak/vault-lease-manager/pkg/lease"
	"github.com/panteparak/vault-lease-manager/pkg/logger"
	apperrors "github.com/panteparak/vault-lease-manager/shared/infrastructure/errors"
)

// Default lifecycle windows for cached secrets that opt into renewal or
// rotation without specifying their own.
const (
	DefaultRenewWithin  = 60 * time.Second
	DefaultRotateWithin = 60 * time.Second
)

// ReadOptions control caching and lifecycle management of a logical read.
// The zero value caches for the lease duration with no renewal or rotation.
type ReadOptions struct {
	// Key is the logical cache key; defaults to the read path.
	Key string

	// Renew asks the maintenance loop to renew the lease before expiry.
	Renew bool

	// RenewWithin overrides the renewal window.
	RenewWithin time.Duration

	// RenewIncrement is the advisory duration requested on renewal.
	RenewIncrement time.Duration

	// Rotate asks the maintenance loop to re-read the path when the lease
	// cannot be renewed, caching the replacement under the same key.
	Rotate bool

	// RotateWithin overrides the rotation window.
	RotateWithin time.Duration

	// OnRenew, OnRotate, and OnError observe lifecycle outcomes for this
	// secret. Panics are swallowed.
	OnRenew  func(*lease.Lease)
	OnRotate func(map[string]interface{})
	OnError  func(error)
}

func (o *ReadOptions) key(path string) string {
	if o != nil && o.Key != "" {
		return o.Key
	}
	return path
}

// CachedRead reads a secret through the lease store. A live cached lease for
// the logical key answers immediately with the cached data; otherwise the
// read goes to Vault via the configured handler and the result is cached for
// the lease duration.
//
// The return value follows the handler contract: cached hits and blocking
// handlers yield the data directly, asynchronous handlers yield a handle to
// pass through Await.
func (c *Client) CachedRead(ctx context.Context, path string, opts *ReadOptions) (interface{}, error) {
	key := opts.key(path)

	if cached := c.store.FindByKey(key); cached != nil {
		c.log.V(1).Info("cache hit", logger.KeyLeaseKey, key, logger.KeyLeaseID, cached.Lease.ID)
		return cached.Data, nil
	}

	// The read runs off the calling goroutine so that deferred and future
	// handlers hand back an unresolved handle instead of completed work.
	return c.handler.Call("read "+path, func(comp *handler.Completion) {
		go func() {
			secret, err := c.Logical().ReadWithContext(ctx, path)
			if err != nil {
				comp.Error(apperrors.NewTransientError("read-secret", err))
				return
			}
			if secret == nil {
				comp.Error(fmt.Errorf("no secret found at %s", path))
				return
			}
			comp.Success(c.register(path, key, secret, opts))
		}()
	})
}

// Read is CachedRead with default options, resolved before returning.
func (c *Client) Read(ctx context.Context, path string) (map[string]interface{}, error) {
	res, err := c.CachedRead(ctx, path, nil)
	if err == nil {
		res, err = c.handler.Await(res)
	}
	if err != nil {
		return nil, err
	}
	data, _ := res.(map[string]interface{})
	return data, nil
}

// Write writes data to a logical path and invalidates any cached secret
// under the same logical key, since the cache no longer reflects the server.
func (c *Client) Write(ctx context.Context, path string, data map[string]interface{}) (map[string]interface{}, error) {
	secret, err := c.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return nil, apperrors.NewTransientError("write-secret", err)
	}

	c.store.Invalidate(path)
	c.log.V(1).Info("cache invalidated after write",
		logger.KeyOperation, logger.OpInvalidate, logger.KeyLeaseKey, path)

	if secret == nil {
		return nil, nil
	}
	return secret.Data, nil
}

// Delete deletes a logical path and invalidates the cached secret under the
// same logical key.
func (c *Client) Delete(ctx context.Context, path string) error {
	if _, err := c.Logical().DeleteWithContext(ctx, path); err != nil {
		return apperrors.NewTransientError("delete-secret", err)
	}

	c.store.Invalidate(path)
	c.log.V(1).Info("cache invalidated after delete",
		logger.KeyOperation, logger.OpInvalidate, logger.KeyLeaseKey, path)
	return nil
}

// register caches a freshly read secret and wires its lifecycle callbacks.
// Non-leased secrets (KV reads) are cached under the logical key itself.
func (c *Client) register(path, key string, secret *api.Secret, opts *ReadOptions) map[string]interface{} {
	now := time.Now()

	l := lease.Lease{
		ID:        secret.LeaseID,
		Key:       key,
		Duration:  time.Duration(secret.LeaseDuration) * time.Second,
		Renewable: secret.Renewable,
	}
	if l.ID == "" {
		l.ID = key
	}
	if secret.LeaseDuration > 0 {
		l.ExpiresAt = now.Add(l.Duration)
	}

	if opts != nil {
		if opts.Renew {
			l.RenewWithin = opts.RenewWithin
			if l.RenewWithin == 0 {
				l.RenewWithin = DefaultRenewWithin
			}
			l.RenewIncrement = opts.RenewIncrement
			l.Renew = c.renewLeaseFunc()
		}
		if opts.Rotate {
			l.RotateWithin = opts.RotateWithin
			if l.RotateWithin == 0 {
				l.RotateWithin = DefaultRotateWithin
			}
			l.Rotate = c.rotateFunc(path, key, opts)
		}
		l.OnRenew = opts.OnRenew
		l.OnRotate = opts.OnRotate
		l.OnError = opts.OnError
	}

	return c.store.Put(l, secret.Data)
}

// renewLeaseFunc returns a lease renewer backed by sys/leases/renew.
func (c *Client) renewLeaseFunc() lease.RenewFunc {
	return func(ctx context.Context, leaseID string, increment time.Duration) (*lease.Renewal, error) {
		secret, err := c.Sys().RenewWithContext(ctx, leaseID, int(increment/time.Second))
		if err != nil {
			return nil, apperrors.NewTransientError("renew-lease", err)
		}
		if secret == nil {
			return nil, fmt.Errorf("lease renewal returned no lease")
		}
		return &lease.Renewal{
			LeaseID:   secret.LeaseID,
			Duration:  time.Duration(secret.LeaseDuration) * time.Second,
			Renewable: secret.Renewable,
		}, nil
	}
}

// rotateFunc returns a rotator that re-reads the path and registers the
// replacement under the same logical key, preserving the read options.
func (c *Client) rotateFunc(path, key string, opts *ReadOptions) lease.RotateFunc {
	return func(ctx context.Context) (map[string]interface{}, error) {
		secret, err := c.Logical().ReadWithContext(ctx, path)
		if err != nil {
			return nil, apperrors.NewTransientError("rotate-secret", err)
		}
		if secret == nil {
			return nil, fmt.Errorf("no secret found at %s during rotation", path)
		}
		return c.register(path, key, secret, opts), nil
	}
}
