package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/lightningnetwork/lnd/healthcheck"

	"github.com/gateway-chain/btc-trustee/chainio"
	"github.com/gateway-chain/btc-trustee/store"
	"github.com/gateway-chain/btc-trustee/withdrawal"
)

// trusteedMain is the true entry point for trusteed. It is split from
// main so that deferred cleanup runs even when the top-level call site
// exits by returning an error rather than calling os.Exit.
func trusteedMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := initLogging(cfg.DebugLevel); err != nil {
		return err
	}
	log.Infof("trusteed starting, network=%s datadir=%s", cfg.Network, cfg.DataDir)

	netID, err := cfg.networkID()
	if err != nil {
		return err
	}
	sessionBounds := cfg.trusteeConfig()
	log.Infof("trustee session bounds: min=%d max=%d",
		sessionBounds.MinTrustees, sessionBounds.MaxTrustees)

	kv, err := store.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("unable to open store: %w", err)
	}
	defer kv.Close()

	runtimeCfg := &runtimeConfig{cfg: cfg, net: netID}
	codec := chainio.NewAddressCodec(netID.Params())
	inspector := chainio.NewTxInspector()
	events := store.LoggingEvents{}

	coord := withdrawal.NewCoordinator(kv, kv, codec, inspector, runtimeCfg, events)
	_ = coord // wired for governance/test driving; no RPC surface (spec.md §1)

	monitor := healthcheck.NewMonitor([]*healthcheck.Observation{
		newStoreHealthCheck(kv),
	})
	if err := monitor.Start(); err != nil {
		return fmt.Errorf("unable to start health monitor: %w", err)
	}
	defer monitor.Stop()

	log.Infof("trusteed ready")
	select {}
}

func main() {
	if err := trusteedMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
