// Package vault adapts the HashiCorp Vault API client to the lease runtime:
// logins populate the auth state, logical reads are cached in the lease store,
// and renewal callbacks are wired so the maintenance loop can keep secrets
// fresh without knowing anything Vault-specific.
package vault

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/vault/api"

	"github.com/panteparak/vault-lease-manager/pkg/auth"
	"github.com/panteparak/vault-lease-manager/pkg/handler"
	"github.com/panteparak/vault-lease-manager/pkg/lease"
	"github.com/panteparak/vault-lease-manager/pkg/maintenance"
	"github.com/panteparak/vault-lease-manager/shared/events"
)

// Client wraps the Vault API client together with the runtime state it feeds:
// the single-slot auth state and the lease store. All logical calls go
// through the configured Handler.
type Client struct {
	*api.Client

	auth    *auth.State
	store   *lease.Store
	handler handler.Handler
	log     logr.Logger
}

// ClientConfig holds configuration for creating a Vault client.
type ClientConfig struct {
	Address   string
	TLSConfig *TLSConfig
	Timeout   time.Duration

	// Handler controls how call results are delivered; nil means blocking.
	Handler handler.Handler

	// Logger receives structured runtime logs; the zero value discards.
	Logger logr.Logger
}

// TLSConfig holds TLS configuration for the Vault client.
type TLSConfig struct {
	CACert     string
	SkipVerify bool
}

// NewClient creates a new Vault client with the given configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	config := api.DefaultConfig()
	config.Address = cfg.Address

	if cfg.Timeout > 0 {
		config.Timeout = cfg.Timeout
	}

	if cfg.TLSConfig != nil {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: cfg.TLSConfig.SkipVerify,
		}

		if cfg.TLSConfig.CACert != "" {
			if err := config.ConfigureTLS(&api.TLSConfig{
				CACert:   cfg.TLSConfig.CACert,
				Insecure: cfg.TLSConfig.SkipVerify,
			}); err != nil {
				return nil, fmt.Errorf("failed to configure TLS: %w", err)
			}
		} else if cfg.TLSConfig.SkipVerify {
			config.HttpClient.Transport = &http.Transport{
				TLSClientConfig: tlsConfig,
			}
		}
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	h := cfg.Handler
	if h == nil {
		h = handler.NewSyncHandler()
	}

	return &Client{
		Client:  client,
		auth:    auth.NewState(),
		store:   lease.NewStore(),
		handler: h,
		log:     cfg.Logger,
	}, nil
}

// AuthState exposes the client's authentication slot.
func (c *Client) AuthState() *auth.State {
	return c.auth
}

// Store exposes the lease store backing cached reads.
func (c *Client) Store() *lease.Store {
	return c.store
}

// Await resolves a handle returned by a cached read, blocking if necessary.
func (c *Client) Await(result interface{}) (interface{}, error) {
	return c.handler.Await(result)
}

// AwaitTimeout resolves a handle with a bound; an expired wait yields the
// fallback, or a TimeoutError when the fallback is nil.
func (c *Client) AwaitTimeout(result interface{}, timeout time.Duration, fallback interface{}) (interface{}, error) {
	return c.handler.AwaitTimeout(result, timeout, fallback)
}

// IsAuthenticated returns whether the client holds a token.
func (c *Client) IsAuthenticated() bool {
	return c.auth.Token() != ""
}

// NewMaintainer wires a maintenance loop over this client's store and auth
// state, renewing the client's own token via token self-renewal. The bus may
// be nil; a nil cfg means all defaults.
func (c *Client) NewMaintainer(cfg *maintenance.Config, bus *events.EventBus) (*maintenance.Maintainer, error) {
	return maintenance.NewMaintainer(c.store, c.auth, c.RenewSelf, c.handler, bus, cfg, c.log)
}

// IsHealthy checks if Vault is healthy and the client can connect.
func (c *Client) IsHealthy(ctx context.Context) (bool, error) {
	health, err := c.Sys().HealthWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("vault health check failed: %w", err)
	}

	// Vault is healthy if initialized and unsealed
	return health.Initialized && !health.Sealed, nil
}

// GetVersion returns the Vault server version.
func (c *Client) GetVersion(ctx context.Context) (string, error) {
	health, err := c.Sys().HealthWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get vault version: %w", err)
	}
	return health.Version, nil
}
