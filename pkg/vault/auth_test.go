package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/panteparak/vault-lease-manager/shared/infrastructure/errors"
)

func TestAuthenticateAppRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/approle/login" || r.Method != http.MethodPut {
			http.NotFound(w, r)
			return
		}
		writeJSON(t, w, map[string]interface{}{
			"auth": map[string]interface{}{
				"client_token":   "s.approle",
				"accessor":       "acc-approle",
				"lease_duration": 3600,
				"renewable":      true,
				"policies":       []string{"default", "app"},
				"orphan":         true,
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	before := time.Now()

	if err := client.AuthenticateAppRole(context.Background(), "role-id", "secret-id", ""); err != nil {
		t.Fatalf("AuthenticateAppRole() error = %v", err)
	}

	if client.Token() != "s.approle" {
		t.Errorf("Token() = %q, want s.approle", client.Token())
	}
	if !client.IsAuthenticated() {
		t.Error("IsAuthenticated() = false after login")
	}

	info := client.AuthState().Current()
	if info == nil {
		t.Fatal("auth state empty after login")
	}
	if info.Accessor != "acc-approle" {
		t.Errorf("Accessor = %q", info.Accessor)
	}
	if !info.Renewable {
		t.Error("Renewable = false, want true")
	}
	if !info.Orphan {
		t.Error("Orphan = false, want true")
	}
	wantExpiry := before.Add(3600 * time.Second)
	if info.ExpiresAt.Before(wantExpiry.Add(-5*time.Second)) || info.ExpiresAt.After(wantExpiry.Add(5*time.Second)) {
		t.Errorf("ExpiresAt = %v, want around %v", info.ExpiresAt, wantExpiry)
	}
}

func TestAuthenticateAppRoleRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		writeJSON(t, w, map[string]interface{}{"errors": []string{"invalid role or secret ID"}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	err := client.AuthenticateAppRole(context.Background(), "bad", "bad", "")
	if err == nil {
		t.Fatal("AuthenticateAppRole() = nil error for rejected login")
	}
	if !apperrors.IsTransientError(err) {
		t.Errorf("error = %T, want TransientError", err)
	}
	if client.IsAuthenticated() {
		t.Error("client authenticated after rejected login")
	}
}

func TestAuthenticateToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/token/lookup-self" {
			http.NotFound(w, r)
			return
		}
		writeJSON(t, w, map[string]interface{}{
			"data": map[string]interface{}{
				"id":           "s.root",
				"accessor":     "acc-root",
				"ttl":          3600,
				"renewable":    true,
				"policies":     []string{"root"},
				"display_name": "token",
				"orphan":       true,
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	if err := client.AuthenticateToken(context.Background(), "s.root"); err != nil {
		t.Fatalf("AuthenticateToken() error = %v", err)
	}

	info := client.AuthState().Current()
	if info == nil {
		t.Fatal("auth state empty after token auth")
	}
	if info.ClientToken != "s.root" {
		t.Errorf("ClientToken = %q", info.ClientToken)
	}
	if info.Accessor != "acc-root" {
		t.Errorf("Accessor = %q", info.Accessor)
	}
	if info.DisplayName != "token" {
		t.Errorf("DisplayName = %q", info.DisplayName)
	}
	if !info.Renewable {
		t.Error("Renewable = false, want true")
	}
	if info.ExpiresAt.IsZero() {
		t.Error("ExpiresAt zero, want TTL-derived expiry")
	}
}

func TestAuthenticateTokenEmpty(t *testing.T) {
	client, err := NewClient(ClientConfig{Address: "http://localhost:8200"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	err = client.AuthenticateToken(context.Background(), "")
	if err == nil {
		t.Fatal("AuthenticateToken(\"\") = nil error")
	}
	if !apperrors.IsValidationError(err) {
		t.Errorf("error = %T, want ValidationError", err)
	}
}

func TestRenewSelf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/token/renew-self" {
			http.NotFound(w, r)
			return
		}
		writeJSON(t, w, map[string]interface{}{
			"auth": map[string]interface{}{
				"client_token":   "s.current",
				"accessor":       "acc-current",
				"lease_duration": 7200,
				"renewable":      true,
				"policies":       []string{"default"},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	client.SetToken("s.current")

	before := time.Now()
	info, err := client.RenewSelf(context.Background())
	if err != nil {
		t.Fatalf("RenewSelf() error = %v", err)
	}

	if info.ClientToken != "s.current" {
		t.Errorf("ClientToken = %q", info.ClientToken)
	}
	if !info.Renewable {
		t.Error("Renewable = false, want true")
	}
	wantExpiry := before.Add(7200 * time.Second)
	if info.ExpiresAt.Before(wantExpiry.Add(-5*time.Second)) || info.ExpiresAt.After(wantExpiry.Add(5*time.Second)) {
		t.Errorf("ExpiresAt = %v, want around %v", info.ExpiresAt, wantExpiry)
	}
}

func TestRenewSelfRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		writeJSON(t, w, map[string]interface{}{"errors": []string{"permission denied"}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	client.SetToken("s.dead")

	_, err := client.RenewSelf(context.Background())
	if err == nil {
		t.Fatal("RenewSelf() = nil error for rejected renewal")
	}
	if !apperrors.IsTransientError(err) {
		t.Errorf("error = %T, want TransientError", err)
	}
}
