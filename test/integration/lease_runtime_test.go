package integration

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/panteparak/vault-lease-manager/pkg/maintenance"
	"github.com/panteparak/vault-lease-manager/pkg/vault"
	"github.com/panteparak/vault-lease-manager/shared/events"
)

func newRootClient() *vault.Client {
	client, err := vault.NewClient(vault.ClientConfig{Address: testVault.Address()})
	Expect(err).NotTo(HaveOccurred())
	Expect(client.AuthenticateToken(suiteCtx, testVault.RootToken())).To(Succeed())
	return client
}

var _ = Describe("Authentication", func() {
	It("authenticates with the root token", func() {
		client := newRootClient()

		Expect(client.IsAuthenticated()).To(BeTrue())
		info := client.AuthState().Current()
		Expect(info).NotTo(BeNil())
		Expect(info.ClientToken).To(Equal(testVault.RootToken()))
	})

	It("rejects a bogus token", func() {
		client, err := vault.NewClient(vault.ClientConfig{Address: testVault.Address()})
		Expect(err).NotTo(HaveOccurred())

		Expect(client.AuthenticateToken(suiteCtx, "not-a-token")).NotTo(Succeed())
		Expect(client.IsAuthenticated()).To(BeFalse())
	})

	It("reports a healthy server", func() {
		client := newRootClient()

		healthy, err := client.IsHealthy(suiteCtx)
		Expect(err).NotTo(HaveOccurred())
		Expect(healthy).To(BeTrue())

		version, err := client.GetVersion(suiteCtx)
		Expect(err).NotTo(HaveOccurred())
		Expect(version).NotTo(BeEmpty())
	})
})

var _ = Describe("Cached reads", func() {
	It("serves repeated reads from the lease store", func() {
		client := newRootClient()

		_, err := client.Write(suiteCtx, "kv/app", map[string]interface{}{
			"username": "app-user",
			"password": "hunter2",
		})
		Expect(err).NotTo(HaveOccurred())

		data, err := client.Read(suiteCtx, "kv/app")
		Expect(err).NotTo(HaveOccurred())
		Expect(data["password"]).To(Equal("hunter2"))

		cached := client.Store().FindByKey("kv/app")
		Expect(cached).NotTo(BeNil())
		Expect(cached.Data["username"]).To(Equal("app-user"))

		again, err := client.Read(suiteCtx, "kv/app")
		Expect(err).NotTo(HaveOccurred())
		Expect(again["password"]).To(Equal("hunter2"))
	})

	It("invalidates the cache on write", func() {
		client := newRootClient()

		_, err := client.Write(suiteCtx, "kv/rotating", map[string]interface{}{"value": "one"})
		Expect(err).NotTo(HaveOccurred())

		_, err = client.Read(suiteCtx, "kv/rotating")
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Store().FindByKey("kv/rotating")).NotTo(BeNil())

		_, err = client.Write(suiteCtx, "kv/rotating", map[string]interface{}{"value": "two"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Store().FindByKey("kv/rotating")).To(BeNil())

		data, err := client.Read(suiteCtx, "kv/rotating")
		Expect(err).NotTo(HaveOccurred())
		Expect(data["value"]).To(Equal("two"))
	})

	It("errors on a missing secret", func() {
		client := newRootClient()

		_, err := client.Read(suiteCtx, "kv/does-not-exist")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Token lifecycle", func() {
	createChildToken := func(root *vault.Client) string {
		secret, err := root.Logical().WriteWithContext(suiteCtx, "auth/token/create", map[string]interface{}{
			"ttl":       "2m",
			"renewable": true,
			"policies":  []string{"default"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(secret.Auth).NotTo(BeNil())
		return secret.Auth.ClientToken
	}

	It("learns TTL and renewability from a token login", func() {
		child := createChildToken(newRootClient())

		client, err := vault.NewClient(vault.ClientConfig{Address: testVault.Address()})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.AuthenticateToken(suiteCtx, child)).To(Succeed())

		info := client.AuthState().Current()
		Expect(info).NotTo(BeNil())
		Expect(info.Renewable).To(BeTrue())
		Expect(info.ExpiresAt).To(BeTemporally("~", time.Now().Add(2*time.Minute), 15*time.Second))
	})

	It("renews its own token through the maintenance tick", func() {
		child := createChildToken(newRootClient())

		client, err := vault.NewClient(vault.ClientConfig{Address: testVault.Address()})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.AuthenticateToken(suiteCtx, child)).To(Succeed())

		bus := events.NewEventBus(logr.Discard())
		var renewed []events.TokenRenewed
		events.Subscribe(bus, func(ctx context.Context, e events.TokenRenewed) error {
			renewed = append(renewed, e)
			return nil
		})

		// A renewal window wider than the token TTL makes renewal due now.
		cfg := &maintenance.Config{
			AuthRenewWithin:  time.Hour,
			AuthRenewBackoff: time.Second,
		}
		m, err := client.NewMaintainer(cfg, bus)
		Expect(err).NotTo(HaveOccurred())

		before := client.AuthState().Current().ExpiresAt

		status := m.MaintainAuth(suiteCtx)
		Expect(status).To(Equal(maintenance.AuthRenewed))

		after := client.AuthState().Current().ExpiresAt
		Expect(after).To(BeTemporally(">=", before))
		Expect(renewed).To(HaveLen(1))

		// The backoff from the successful renewal holds on the next tick.
		Expect(m.MaintainAuth(suiteCtx)).To(Equal(maintenance.AuthCurrent))
	})
})
