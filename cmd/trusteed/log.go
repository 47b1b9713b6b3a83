package main

import (
	"os"

	"github.com/btcsuite/btclog"

	"github.com/gateway-chain/btc-trustee/btcpk"
	"github.com/gateway-chain/btc-trustee/store"
	"github.com/gateway-chain/btc-trustee/trustee"
	"github.com/gateway-chain/btc-trustee/withdrawal"
)

var log btclog.Logger

// initLogging wires a real backend into every package that exposes a
// UseLogger hook, and sets the shared level across all of them, mirroring
// lnd's per-subsystem backendLog/Logger(tag) convention.
func initLogging(debugLevel string) error {
	backend := btclog.NewBackend(os.Stdout)

	level, ok := btclog.LevelFromString(debugLevel)
	if !ok {
		level = btclog.LevelInfo
	}

	subsystems := map[string]func(btclog.Logger){
		"BPKY": btcpk.UseLogger,
		"TRST": trustee.UseLogger,
		"WDRW": withdrawal.UseLogger,
		"STOR": store.UseLogger,
	}

	for tag, use := range subsystems {
		logger := backend.Logger(tag)
		logger.SetLevel(level)
		use(logger)
	}

	log = backend.Logger("TRSD")
	log.SetLevel(level)
	return nil
}
