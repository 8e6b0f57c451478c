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

package maintenance

import (
	"time"

	apperrors "github.com/panteparak/vault-lease-manager/shared/infrastructure/errors"
)

// Default maintenance timing values.
const (
	// DefaultPeriod is the base interval between maintenance ticks.
	DefaultPeriod = 10 * time.Second

	// DefaultJitter is the maximum random extra delay added to each tick
	// interval, spreading load when many clients share a service.
	DefaultJitter = 1 * time.Second

	// DefaultRenewBackoff is how long a lease is exempt from further renewal
	// attempts after one attempt, successful or not.
	DefaultRenewBackoff = 60 * time.Second

	// DefaultAuthRenewWithin is how long before token expiry the client's own
	// token renewal kicks in.
	DefaultAuthRenewWithin = 60 * time.Second

	// DefaultAuthRenewBackoff is the minimum spacing between token renewal
	// attempts.
	DefaultAuthRenewBackoff = 60 * time.Second

	// DefaultStopTimeout bounds how long Stop waits for the background loop
	// to exit before giving up.
	DefaultStopTimeout = 5 * time.Second
)

// Config holds the timing knobs of the maintenance loop. The zero value is
// usable after WithDefaults.
type Config struct {
	// Period is the base interval between ticks.
	Period time.Duration

	// Jitter is the maximum random addition to Period per tick. The actual
	// sleep is drawn uniformly from [Period, Period+Jitter).
	Jitter time.Duration

	// RenewBackoff is armed on a lease after every renewal attempt.
	RenewBackoff time.Duration

	// AuthRenewWithin is the renewal window for the client's own token.
	AuthRenewWithin time.Duration

	// AuthRenewBackoff is armed on the auth state after every token renewal
	// attempt.
	AuthRenewBackoff time.Duration

	// StopTimeout bounds the wait for loop shutdown in Stop.
	StopTimeout time.Duration
}

// WithDefaults fills in zero-valued fields and returns the config for
// chaining. Nil receivers get a fresh all-defaults config.
func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.Period == 0 {
		c.Period = DefaultPeriod
	}
	if c.Jitter == 0 {
		c.Jitter = DefaultJitter
	}
	if c.RenewBackoff == 0 {
		c.RenewBackoff = DefaultRenewBackoff
	}
	if c.AuthRenewWithin == 0 {
		c.AuthRenewWithin = DefaultAuthRenewWithin
	}
	if c.AuthRenewBackoff == 0 {
		c.AuthRenewBackoff = DefaultAuthRenewBackoff
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	return c
}

// Validate rejects configs that would make the loop spin or never stop.
func (c *Config) Validate() error {
	if c.Period <= 0 {
		return apperrors.NewValidationError("period", c.Period.String(), "must be positive")
	}
	if c.Jitter < 0 {
		return apperrors.NewValidationError("jitter", c.Jitter.String(), "must not be negative")
	}
	if c.RenewBackoff < 0 {
		return apperrors.NewValidationError("renewBackoff", c.RenewBackoff.String(), "must not be negative")
	}
	if c.AuthRenewWithin < 0 {
		return apperrors.NewValidationError("authRenewWithin", c.AuthRenewWithin.String(), "must not be negative")
	}
	if c.AuthRenewBackoff < 0 {
		return apperrors.NewValidationError("authRenewBackoff", c.AuthRenewBackoff.String(), "must not be negative")
	}
	if c.StopTimeout <= 0 {
		return apperrors.NewValidationError("stopTimeout", c.StopTimeout.String(), "must be positive")
	}
	return nil
}
