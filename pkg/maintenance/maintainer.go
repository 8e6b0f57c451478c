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

// Package maintenance runs the background lifecycle loop: one tick first
// maintains the client's own auth token, then sweeps the lease store,
// classifying every lease as expired, due for renewal, due for rotation, or
// left alone. A failure on one lease never affects another, and a failure of
// a whole tick never kills the loop.
package maintenance

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/panteparak/vault-lease-manager/pkg/auth"
	"github.com/panteparak/vault-lease-manager/pkg/handler"
	"github.com/panteparak/vault-lease-manager/pkg/lease"
	"github.com/panteparak/vault-lease-manager/pkg/logger"
	"github.com/panteparak/vault-lease-manager/pkg/metrics"
	"github.com/panteparak/vault-lease-manager/shared/events"
	apperrors "github.com/panteparak/vault-lease-manager/shared/infrastructure/errors"
)

// AuthStatus is the outcome of one auth maintenance tick.
type AuthStatus string

// Auth tick outcomes.
const (
	// AuthExpired means the token has expired; the client must
	// re-authenticate before further calls.
	AuthExpired AuthStatus = "expired"

	// AuthRenewed means the token was renewed this tick.
	AuthRenewed AuthStatus = "renewed"

	// AuthCurrent means the token needed no action.
	AuthCurrent AuthStatus = "current"

	// AuthError means a renewal attempt failed; the token is still live and
	// renewal is retried after the backoff.
	AuthError AuthStatus = "error"
)

// AuthRenewFunc renews the client's own token and returns the refreshed
// authentication record. Supplied by the service adapter.
type AuthRenewFunc func(ctx context.Context) (*auth.Info, error)

// Maintainer drives the periodic lifecycle tick over an auth state and a
// lease store. All calls to the service go through the configured Handler so
// the delivery style matches the rest of the client.
type Maintainer struct {
	cfg       *Config
	store     *lease.Store
	auth      *auth.State
	renewAuth AuthRenewFunc
	handler   handler.Handler
	bus       *events.EventBus
	log       logr.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time
	rng *rand.Rand

	// authExpired latches the expiry notification so TokenExpired is
	// published once per expiry, not on every tick the token stays expired.
	authExpired bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMaintainer creates a maintainer over the given collaborators. renewAuth
// and bus may be nil; a nil cfg means all defaults.
func NewMaintainer(
	store *lease.Store,
	authState *auth.State,
	renewAuth AuthRenewFunc,
	h handler.Handler,
	bus *events.EventBus,
	cfg *Config,
	log logr.Logger,
) (*Maintainer, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, apperrors.NewValidationError("store", "", "lease store is required")
	}
	if authState == nil {
		return nil, apperrors.NewValidationError("auth", "", "auth state is required")
	}
	if h == nil {
		h = handler.NewSyncHandler()
	}

	return &Maintainer{
		cfg:       cfg,
		store:     store,
		auth:      authState,
		renewAuth: renewAuth,
		handler:   h,
		bus:       bus,
		log:       log,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Start launches the background loop. It returns an error if the maintainer
// is already running.
func (m *Maintainer) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("maintainer already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go func(done chan struct{}) {
		defer close(done)
		m.Run(ctx)
	}(m.done)

	return nil
}

// Stop cancels the background loop and waits for it to exit, up to the
// configured stop timeout. A timeout is reported but the loop is left to
// wind down on its own; the cancel already happened. Stopping a maintainer
// that is not running is a no-op.
func (m *Maintainer) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	cancel := m.cancel
	done := m.done
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()

	select {
	case <-done:
		return nil
	case <-time.After(m.cfg.StopTimeout):
		return apperrors.NewTimeoutError("maintainer stop", m.cfg.StopTimeout)
	}
}

// Run executes the maintenance loop until the context is cancelled. Most
// callers use Start/Stop instead; Run is exposed for embedding in an
// existing run-group or manager.
func (m *Maintainer) Run(ctx context.Context) {
	m.log.Info("starting maintenance loop",
		"period", m.cfg.Period.String(),
		"jitter", m.cfg.Jitter.String(),
	)

	timer := time.NewTimer(m.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("maintenance loop stopped")
			return
		case <-timer.C:
			m.Tick(ctx)
			timer.Reset(m.interval())
		}
	}
}

// interval draws the next sleep from [Period, Period+Jitter).
func (m *Maintainer) interval() time.Duration {
	d := m.cfg.Period
	if m.cfg.Jitter > 0 {
		d += time.Duration(m.rng.Int63n(int64(m.cfg.Jitter)))
	}
	return d
}

// Tick runs one full maintenance pass: the auth token first, then the lease
// sweep. Anything escaping the pass is logged and swallowed so a bad tick
// never terminates the loop.
func (m *Maintainer) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error(fmt.Errorf("panic: %v", r), "maintenance tick panicked")
		}
	}()

	status := m.MaintainAuth(ctx)
	metrics.IncrementAuthTick(string(status))
	if status != AuthCurrent {
		m.log.V(1).Info("auth maintenance", logger.KeyAuthStatus, string(status))
	}

	m.Sweep(ctx)
}

// MaintainAuth inspects the client's own token and renews it when it is
// renewable, inside its renewal window, and past the renewal backoff. The
// auth state is the only thing mutated here; re-authentication after expiry
// is the caller's responsibility.
func (m *Maintainer) MaintainAuth(ctx context.Context) AuthStatus {
	info := m.auth.Current()
	if info == nil {
		metrics.SetTokenTTL(0)
		m.authExpired = false
		return AuthCurrent
	}

	now := m.now()
	metrics.SetTokenTTL(info.ExpiresAt.Sub(now).Seconds())
	log := logger.WithOperation(m.log, logger.OpAuthRenew).WithValues(logger.KeyAccessor, info.Accessor)

	if m.auth.Expired() {
		if !m.authExpired {
			m.authExpired = true
			log.Info("client token has expired")
			m.publish(ctx, events.NewTokenExpired(info.Accessor))
		}
		return AuthExpired
	}
	m.authExpired = false

	if m.renewAuth == nil || !m.auth.Renewable() ||
		!m.auth.ExpiresWithin(m.cfg.AuthRenewWithin) || m.auth.InBackoff() {
		return AuthCurrent
	}

	res, err := m.handler.Call("renew auth token", func(c *handler.Completion) {
		renewed, renewErr := m.renewAuth(ctx)
		if renewErr != nil {
			c.Error(renewErr)
			return
		}
		c.Success(renewed)
	})
	if err == nil {
		res, err = m.handler.Await(res)
	}
	if err != nil {
		if apperrors.IsCancellation(err) {
			return AuthError
		}
		m.auth.SetRenewAfter(now.Add(m.cfg.AuthRenewBackoff))
		log.Error(err, "token renewal failed")
		m.publish(ctx, events.NewTokenRenewalFailed(info.Accessor, err.Error()))
		return AuthError
	}

	renewed, ok := res.(*auth.Info)
	if !ok || renewed == nil {
		log.Error(fmt.Errorf("unexpected renewal result %T", res), "token renewal failed")
		return AuthError
	}

	m.auth.ApplyRenewal(*renewed, now.Add(m.cfg.AuthRenewBackoff))
	log.Info("client token renewed", logger.KeyExpiresAt, renewed.ExpiresAt)
	m.publish(ctx, events.NewTokenRenewed(renewed.Accessor, renewed.ExpiresAt))
	return AuthRenewed
}

// Sweep classifies every stored lease and acts on it: expired leases are
// removed, due leases are renewed or rotated, and everything else is left
// untouched. Each lease is handled under its own recover so one bad lease
// cannot starve the rest of the sweep.
func (m *Maintainer) Sweep(ctx context.Context) {
	start := time.Now()

	for _, l := range m.store.List() {
		if ctx.Err() != nil {
			break
		}
		m.maintainLease(ctx, l)
	}

	metrics.SetStoreSize(m.store.Size())
	metrics.ObserveSweepDuration(time.Since(start).Seconds())
}

func (m *Maintainer) maintainLease(ctx context.Context, l lease.Lease) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error(fmt.Errorf("panic: %v", r), "lease maintenance panicked",
				logger.KeyLeaseID, l.ID, logger.KeyLeaseKey, l.Key)
		}
	}()

	now := m.now()
	switch {
	case l.Expired(now):
		m.expireLease(ctx, l)
	case l.RenewDue(now):
		m.renewLease(ctx, l)
	case l.RotateDue(now):
		m.rotateLease(ctx, l)
	}
}

func (m *Maintainer) expireLease(ctx context.Context, l lease.Lease) {
	m.store.Delete(l.ID)
	metrics.IncrementExpired()
	logger.WithLease(logger.WithOperation(m.log, logger.OpExpire), l.ID, l.Key).
		Info("lease expired, removed from store", logger.KeyExpiresAt, l.ExpiresAt)
	m.publish(ctx, events.NewLeaseExpired(l.ID, l.Key))
}

func (m *Maintainer) renewLease(ctx context.Context, l lease.Lease) {
	log := logger.WithLease(logger.WithOperation(m.log, logger.OpRenew), l.ID, l.Key)

	res, err := m.handler.Call("renew lease "+l.ID, func(c *handler.Completion) {
		renewal, renewErr := l.Renew(ctx, l.ID, l.RenewIncrement)
		if renewErr != nil {
			c.Error(renewErr)
			return
		}
		c.Success(renewal)
	})
	if err == nil {
		res, err = m.handler.Await(res)
	}
	if err != nil {
		if apperrors.IsCancellation(err) {
			return
		}
		metrics.IncrementRenewal(false)
		log.Error(err, "lease renewal failed")
		m.publish(ctx, events.NewLeaseRenewalFailed(l.ID, l.Key, err.Error()))
		m.invokeErrorCallback(l, apperrors.NewTransientError("renew-lease", err))
		return
	}

	renewal, ok := res.(*lease.Renewal)
	if !ok || renewal == nil {
		metrics.IncrementRenewal(false)
		log.Error(fmt.Errorf("unexpected renewal result %T", res), "lease renewal failed")
		return
	}

	now := m.now()
	renewable := renewal.Renewable
	merged := m.store.Update(lease.Patch{
		ID:         l.ID,
		Duration:   renewal.Duration,
		ExpiresAt:  now.Add(renewal.Duration),
		RenewAfter: now.Add(m.cfg.RenewBackoff),
		Renewable:  &renewable,
	})

	metrics.IncrementRenewal(true)
	log.Info("lease renewed",
		logger.KeyDuration, renewal.Duration.String(),
		logger.KeyExpiresAt, now.Add(renewal.Duration),
	)
	m.publish(ctx, events.NewLeaseRenewed(l.ID, l.Key, now.Add(renewal.Duration)))

	if merged != nil && l.OnRenew != nil {
		m.invokeCallback("on-renew", l.ID, func() { l.OnRenew(merged) })
	}
}

func (m *Maintainer) rotateLease(ctx context.Context, l lease.Lease) {
	log := logger.WithLease(logger.WithOperation(m.log, logger.OpRotate), l.ID, l.Key)

	res, err := m.handler.Call("rotate lease "+l.ID, func(c *handler.Completion) {
		data, rotateErr := l.Rotate(ctx)
		if rotateErr != nil {
			c.Error(rotateErr)
			return
		}
		c.Success(data)
	})
	if err == nil {
		res, err = m.handler.Await(res)
	}
	if err != nil {
		if apperrors.IsCancellation(err) {
			return
		}
		metrics.IncrementRotation(false)
		log.Error(err, "lease rotation failed")
		m.publish(ctx, events.NewLeaseRotationFailed(l.ID, l.Key, err.Error()))
		m.invokeErrorCallback(l, apperrors.NewTransientError("rotate-lease", err))
		return
	}

	// The rotation registered the replacement lease itself; the old grant is
	// finished and leaves the store. The replacement may have reused the same
	// ID (non-leased secrets), so only drop the record we rotated away.
	if cur := m.store.Get(l.ID); cur != nil && cur.ExpiresAt.Equal(l.ExpiresAt) {
		m.store.Delete(l.ID)
	}
	metrics.IncrementRotation(true)
	log.Info("lease rotated")
	m.publish(ctx, events.NewLeaseRotated(l.ID, l.Key))

	if l.OnRotate != nil {
		data, _ := res.(map[string]interface{})
		m.invokeCallback("on-rotate", l.ID, func() { l.OnRotate(data) })
	}
}

func (m *Maintainer) invokeErrorCallback(l lease.Lease, err error) {
	if l.OnError == nil {
		return
	}
	m.invokeCallback("on-error", l.ID, func() { l.OnError(err) })
}

// invokeCallback runs a user callback with panics swallowed. Callbacks are
// observation hooks; they must never disturb the sweep.
func (m *Maintainer) invokeCallback(name, leaseID string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.V(1).Info("lease callback panicked",
				"callback", name, logger.KeyLeaseID, leaseID, logger.KeyError, fmt.Sprint(r))
		}
	}()
	fn()
}

func (m *Maintainer) publish(ctx context.Context, event events.Event) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(ctx, event); err != nil {
		m.log.V(1).Info("event handler failed", "eventType", event.Type(), logger.KeyError, err.Error())
	}
}
