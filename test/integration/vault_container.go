/*
Package integration provides testcontainers-based integration tests for the
lease runtime against a real Vault server.

This file implements the VaultTestContainer wrapper around testcontainers-go's
Vault module, providing a domain-specific API for spawning and configuring
Vault instances in tests.
*/
package integration

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/modules/vault"
)

// VaultTestContainer wraps a testcontainers Vault instance with runtime-specific utilities
type VaultTestContainer struct {
	*vault.VaultContainer
	rootToken string
	address   string
}

// VaultContainerOption configures a VaultTestContainer
type VaultContainerOption func(*vaultContainerOptions)

type vaultContainerOptions struct {
	imageTag       string
	rootToken      string
	initCommands   []string
	envVars        map[string]string
	startupTimeout time.Duration
	logLevel       string
}

func defaultOptions() *vaultContainerOptions {
	return &vaultContainerOptions{
		imageTag:       "1.17.2",
		rootToken:      "root-token",
		startupTimeout: 30 * time.Second,
		logLevel:       "info",
		envVars:        make(map[string]string),
	}
}

// WithImageTag sets the Vault image tag
func WithImageTag(tag string) VaultContainerOption {
	return func(o *vaultContainerOptions) {
		o.imageTag = tag
	}
}

// WithRootToken sets a custom root token
func WithRootToken(token string) VaultContainerOption {
	return func(o *vaultContainerOptions) {
		o.rootToken = token
	}
}

// WithStartupTimeout sets custom startup timeout
func WithStartupTimeout(timeout time.Duration) VaultContainerOption {
	return func(o *vaultContainerOptions) {
		o.startupTimeout = timeout
	}
}

// WithLogLevel sets Vault log level (trace, debug, info, warn, err)
func WithLogLevel(level string) VaultContainerOption {
	return func(o *vaultContainerOptions) {
		o.logLevel = level
	}
}

// WithKVSecretEngine enables a KV v1 secret engine at the specified path.
// Use || true to make the command idempotent (won't fail if already exists).
func WithKVSecretEngine(path string) VaultContainerOption {
	return func(o *vaultContainerOptions) {
		o.initCommands = append(o.initCommands, fmt.Sprintf("secrets enable -path=%s kv || true", path))
	}
}

// WithEnvVar sets an environment variable for the container
func WithEnvVar(key, value string) VaultContainerOption {
	return func(o *vaultContainerOptions) {
		o.envVars[key] = value
	}
}

// WithInitCommand adds a command to run during initialization
func WithInitCommand(cmd string) VaultContainerOption {
	return func(o *vaultContainerOptions) {
		o.initCommands = append(o.initCommands, cmd)
	}
}

// NewVaultTestContainer creates and starts a new Vault test container
func NewVaultTestContainer(ctx context.Context, opts ...VaultContainerOption) (*VaultTestContainer, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	containerOpts := []testcontainers.ContainerCustomizer{
		vault.WithToken(options.rootToken),
	}

	for _, cmd := range options.initCommands {
		containerOpts = append(containerOpts, vault.WithInitCommand(cmd))
	}

	if options.logLevel != "" {
		containerOpts = append(containerOpts, testcontainers.WithEnv(map[string]string{
			"VAULT_LOG_LEVEL": options.logLevel,
		}))
	}

	if len(options.envVars) > 0 {
		containerOpts = append(containerOpts, testcontainers.WithEnv(options.envVars))
	}

	container, err := vault.Run(ctx, "hashicorp/vault:"+options.imageTag, containerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start vault container: %w", err)
	}

	address, err := container.HttpHostAddress(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("failed to get vault address: %w", err)
	}

	return &VaultTestContainer{
		VaultContainer: container,
		rootToken:      options.rootToken,
		address:        address,
	}, nil
}

// Address returns the HTTP address of the Vault container
func (v *VaultTestContainer) Address() string {
	return v.address
}

// RootToken returns the root token
func (v *VaultTestContainer) RootToken() string {
	return v.rootToken
}

// Exec executes a vault CLI command inside the container
func (v *VaultTestContainer) Exec(ctx context.Context, cmd []string) (int, string, error) {
	fullCmd := append([]string{"vault"}, cmd...)

	exitCode, reader, err := v.VaultContainer.Exec(ctx, fullCmd, tcexec.Multiplexed())
	if err != nil {
		return exitCode, "", fmt.Errorf("exec failed: %w", err)
	}

	var output string
	if reader != nil {
		data, err := io.ReadAll(reader)
		if err != nil {
			return exitCode, "", fmt.Errorf("failed to read exec output: %w", err)
		}
		output = string(data)
	}

	return exitCode, output, nil
}

// Health checks if Vault is healthy
func (v *VaultTestContainer) Health(ctx context.Context) (bool, error) {
	exitCode, _, err := v.Exec(ctx, []string{"status"})
	if err != nil {
		return false, err
	}
	// exit code 0 means healthy, initialized, and unsealed
	return exitCode == 0, nil
}

// Terminate stops and removes the container
func (v *VaultTestContainer) Terminate(ctx context.Context) error {
	if v.VaultContainer != nil {
		return v.VaultContainer.Terminate(ctx)
	}
	return nil
}

// IsDockerAvailable reports whether a Docker daemon is reachable.
func IsDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}
