/*
Package integration provides testcontainers-based integration tests for the
lease runtime.

This file sets up the main Ginkgo test suite with a shared Vault container
spawned via testcontainers-go.
*/
package integration

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var (
	suiteCtx  context.Context
	testVault *VaultTestContainer
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)

	suiteConfig, reporterConfig := GinkgoConfiguration()
	reporterConfig.Verbose = true

	RunSpecs(t, "Lease Runtime Integration Suite", suiteConfig, reporterConfig)
}

var _ = BeforeSuite(func() {
	By("Checking Docker availability")
	if !IsDockerAvailable() {
		Skip("Docker daemon not available - skipping integration tests. Start Docker to run integration tests.")
	}

	By("Setting up suite context")
	ctx, cancel := context.WithCancel(context.Background())
	suiteCtx = ctx

	By("Starting Vault container")
	container, err := NewVaultTestContainer(ctx,
		WithKVSecretEngine("kv"),
		WithLogLevel("info"),
		WithStartupTimeout(90*time.Second),
	)
	Expect(err).NotTo(HaveOccurred(), "Failed to start Vault container")
	testVault = container

	By("Waiting for Vault to be healthy")
	Eventually(func() bool {
		healthy, healthErr := testVault.Health(ctx)
		return healthErr == nil && healthy
	}, 30*time.Second, time.Second).Should(BeTrue())

	DeferCleanup(func() {
		By("Stopping Vault container")
		if testVault != nil {
			Expect(testVault.Terminate(context.Background())).To(Succeed())
		}
		cancel()
	})
})
