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

// Package metrics provides Prometheus metrics for the lease runtime.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Result labels for metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Auth tick status labels.
const (
	AuthStatusExpired = "expired"
	AuthStatusRenewed = "renewed"
	AuthStatusCurrent = "current"
	AuthStatusError   = "error"
)

var (
	// LeaseRenewalsTotal counts lease renewal attempts by result.
	LeaseRenewalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault_lease_manager",
			Subsystem: "lease",
			Name:      "renewals_total",
			Help:      "Total number of lease renewal attempts",
		},
		[]string{"result"},
	)

	// LeaseRotationsTotal counts lease rotation attempts by result.
	LeaseRotationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault_lease_manager",
			Subsystem: "lease",
			Name:      "rotations_total",
			Help:      "Total number of lease rotation attempts",
		},
		[]string{"result"},
	)

	// LeasesExpiredTotal counts leases removed by the sweep because they expired.
	LeasesExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vault_lease_manager",
			Subsystem: "lease",
			Name:      "expired_total",
			Help:      "Total number of leases removed after expiry",
		},
	)

	// LeaseStoreSizeGauge tracks the number of leases currently cached.
	LeaseStoreSizeGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault_lease_manager",
			Subsystem: "lease",
			Name:      "store_size",
			Help:      "Number of leases currently held in the store",
		},
	)

	// SweepDurationSeconds observes how long each maintenance sweep takes.
	SweepDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vault_lease_manager",
			Subsystem: "maintenance",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of lease store maintenance sweeps",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// AuthTicksTotal counts auth maintenance ticks by outcome.
	AuthTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault_lease_manager",
			Subsystem: "auth",
			Name:      "ticks_total",
			Help:      "Total number of auth maintenance ticks by status",
		},
		[]string{"status"},
	)

	// AuthTokenTTLSeconds tracks the remaining lifetime of the client token.
	AuthTokenTTLSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault_lease_manager",
			Subsystem: "auth",
			Name:      "token_ttl_seconds",
			Help:      "Seconds until the client token expires (0 when unauthenticated)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		LeaseRenewalsTotal,
		LeaseRotationsTotal,
		LeasesExpiredTotal,
		LeaseStoreSizeGauge,
		SweepDurationSeconds,
		AuthTicksTotal,
		AuthTokenTTLSeconds,
	)
}

// IncrementRenewal increments the lease renewal counter.
func IncrementRenewal(success bool) {
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	LeaseRenewalsTotal.WithLabelValues(result).Inc()
}

// IncrementRotation increments the lease rotation counter.
func IncrementRotation(success bool) {
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	LeaseRotationsTotal.WithLabelValues(result).Inc()
}

// IncrementExpired increments the expired lease counter.
func IncrementExpired() {
	LeasesExpiredTotal.Inc()
}

// SetStoreSize sets the lease store size gauge.
func SetStoreSize(size int) {
	LeaseStoreSizeGauge.Set(float64(size))
}

// ObserveSweepDuration records the duration of one maintenance sweep.
func ObserveSweepDuration(seconds float64) {
	SweepDurationSeconds.Observe(seconds)
}

// IncrementAuthTick increments the auth tick counter for a status.
func IncrementAuthTick(status string) {
	AuthTicksTotal.WithLabelValues(status).Inc()
}

// SetTokenTTL sets the remaining token lifetime gauge.
func SetTokenTTL(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	AuthTokenTTLSeconds.Set(seconds)
}
