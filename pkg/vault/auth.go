package vault

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/panteparak/vault-lease-manager/pkg/auth"
	apperrors "github.com/panteparak/vault-lease-manager/shared/infrastructure/errors"
)

// tokenInfo converts a Vault secret carrying token material (a login
// response, a renew-self response, or a lookup-self response) into the
// runtime's auth record. A token with no TTL gets a zero expiry and is
// treated as already expired, never as eternal.
func tokenInfo(secret *api.Secret, now time.Time) (*auth.Info, error) {
	if secret == nil {
		return nil, fmt.Errorf("no token material in response")
	}

	token, err := secret.TokenID()
	if err != nil || token == "" {
		return nil, fmt.Errorf("response carries no client token: %w", err)
	}

	accessor, _ := secret.TokenAccessor()
	policies, _ := secret.TokenPolicies()
	renewable, _ := secret.TokenIsRenewable()
	ttl, _ := secret.TokenTTL()

	info := &auth.Info{
		ClientToken:   token,
		Accessor:      accessor,
		Policies:      policies,
		Renewable:     renewable,
		LeaseDuration: ttl,
		CreatedAt:     now,
	}
	if ttl > 0 {
		info.ExpiresAt = now.Add(ttl)
	}

	if secret.Auth != nil {
		info.Orphan = secret.Auth.Orphan
	} else if orphan, ok := secret.Data["orphan"].(bool); ok {
		info.Orphan = orphan
	}
	if name, ok := secret.Data["display_name"].(string); ok {
		info.DisplayName = name
	}

	return info, nil
}

// adopt installs a token on both the API client and the auth state.
func (c *Client) adopt(info *auth.Info) {
	c.SetToken(info.ClientToken)
	c.auth.Set(*info)
}

// AuthenticateToken authenticates with a static token. The token is looked
// up against the server so the runtime learns its TTL and renewability.
func (c *Client) AuthenticateToken(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.NewValidationError("token", "", "token cannot be empty")
	}
	c.SetToken(token)

	secret, err := c.Client.Auth().Token().LookupSelfWithContext(ctx)
	if err != nil {
		c.ClearToken()
		return apperrors.NewTransientError("token-lookup", err)
	}

	info, err := tokenInfo(secret, time.Now())
	if err != nil {
		// lookup-self data carries the token under "id"
		info = &auth.Info{ClientToken: token, CreatedAt: time.Now()}
	}
	info.ClientToken = token
	c.adopt(info)
	return nil
}

// AuthenticateAppRole authenticates using the AppRole auth method.
func (c *Client) AuthenticateAppRole(ctx context.Context, roleID, secretID, mountPath string) error {
	if mountPath == "" {
		mountPath = "approle"
	}

	path := fmt.Sprintf("auth/%s/login", mountPath)
	secret, err := c.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"role_id":   roleID,
		"secret_id": secretID,
	})
	if err != nil {
		return apperrors.NewTransientError("approle-login", err)
	}

	info, err := tokenInfo(secret, time.Now())
	if err != nil {
		return fmt.Errorf("approle auth returned no token: %w", err)
	}

	c.adopt(info)
	return nil
}

// AuthenticateKubernetes authenticates using the Kubernetes auth method,
// presenting the pod's service account token.
func (c *Client) AuthenticateKubernetes(ctx context.Context, role, mountPath, tokenPath string) error {
	if mountPath == "" {
		mountPath = "kubernetes"
	}
	if tokenPath == "" {
		tokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"
	}

	jwt, err := os.ReadFile(tokenPath)
	if err != nil {
		return fmt.Errorf("failed to read service account token: %w", err)
	}

	path := fmt.Sprintf("auth/%s/login", mountPath)
	secret, err := c.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"role": role,
		"jwt":  string(jwt),
	})
	if err != nil {
		return apperrors.NewTransientError("kubernetes-login", err)
	}

	info, err := tokenInfo(secret, time.Now())
	if err != nil {
		return fmt.Errorf("kubernetes auth returned no token: %w", err)
	}

	c.adopt(info)
	return nil
}

// RenewSelf renews the client's own token and returns the refreshed auth
// record. This is the AuthRenewFunc the maintenance loop uses.
func (c *Client) RenewSelf(ctx context.Context) (*auth.Info, error) {
	secret, err := c.Client.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		return nil, apperrors.NewTransientError("renew-self", err)
	}

	info, err := tokenInfo(secret, time.Now())
	if err != nil {
		return nil, fmt.Errorf("token self-renewal returned no token: %w", err)
	}
	return info, nil
}
