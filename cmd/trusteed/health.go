package main

import (
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/healthcheck"

	"github.com/gateway-chain/btc-trustee/chainerr"
	"github.com/gateway-chain/btc-trustee/store"
)

const (
	healthCheckInterval = time.Minute
	healthCheckTimeout  = 10 * time.Second
	healthCheckBackoff  = 30 * time.Second
	healthCheckRetries  = 2
)

// newStoreHealthCheck builds a periodic liveness observation over kv's
// ability to read its current trustee session. It never participates in
// core state transitions -- the healthcheck lives strictly in the daemon
// layer, outside the transactional core (spec.md §5).
func newStoreHealthCheck(kv *store.KVStore) *healthcheck.Observation {
	check := func() error {
		// A freshly-initialized store with no session written yet
		// reports ErrNoSession, which is not a liveness failure.
		if _, err := kv.CurrentSession(); err != nil && err != chainerr.ErrNoSession {
			return fmt.Errorf("store health check failed: %w", err)
		}
		return nil
	}

	return healthcheck.NewObservation(
		"trustee-store",
		check,
		healthCheckInterval,
		healthCheckTimeout,
		healthCheckBackoff,
		healthCheckRetries,
	)
}
