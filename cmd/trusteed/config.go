package main

import (
	"fmt"

	"github.com/jessevdk/go-flags"

	"github.com/gateway-chain/btc-trustee/chainio"
	"github.com/gateway-chain/btc-trustee/trustee"
)

const (
	defaultDataDir            = "trusteed"
	defaultNetwork            = "mainnet"
	defaultMaxWithdrawalCount = 10
	defaultBtcWithdrawalFee   = 10000
	defaultMinTrustees        = 4
	defaultMaxTrustees        = 15
	defaultDebugLevel         = "info"
)

// config holds every governance-tunable parameter trusteed needs at
// startup, parsed once with go-flags the way lnd's own root config does.
type config struct {
	Network string `long:"network" description:"network to operate on (mainnet, testnet)"`
	DataDir string `long:"datadir" description:"directory to store the trustee database in"`

	MaxWithdrawalCount uint32 `long:"maxwithdrawalcount" description:"maximum withdrawal ids a single proposal may cover"`
	BtcWithdrawalFee   uint64 `long:"btcwithdrawalfee" description:"satoshis deducted from each withdrawal output to cover its share of the tx fee"`

	MinTrustees uint32 `long:"mintrustees" description:"minimum number of trustees a session may contain"`
	MaxTrustees uint32 `long:"maxtrustees" description:"maximum number of trustees a session may contain"`

	DebugLevel string `long:"debuglevel" description:"logging level (trace, debug, info, warn, error, critical)"`
}

func defaultConfig() config {
	return config{
		Network:            defaultNetwork,
		DataDir:            defaultDataDir,
		MaxWithdrawalCount: defaultMaxWithdrawalCount,
		BtcWithdrawalFee:   defaultBtcWithdrawalFee,
		MinTrustees:        defaultMinTrustees,
		MaxTrustees:        defaultMaxTrustees,
		DebugLevel:         defaultDebugLevel,
	}
}

// loadConfig parses command-line flags over the defaults.
func loadConfig() (*config, error) {
	cfg := defaultConfig()

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// networkID resolves the configured network name to a chainio.NetworkID.
func (c *config) networkID() (chainio.NetworkID, error) {
	switch c.Network {
	case "mainnet":
		return chainio.Mainnet, nil
	case "testnet":
		return chainio.Testnet, nil
	default:
		return 0, fmt.Errorf("unknown network %q", c.Network)
	}
}

// trusteeConfig adapts the parsed flags to trustee.Config.
func (c *config) trusteeConfig() trustee.Config {
	return trustee.Config{MinTrustees: c.MinTrustees, MaxTrustees: c.MaxTrustees}
}

// runtimeConfig adapts config to chainio.Config.
type runtimeConfig struct {
	cfg *config
	net chainio.NetworkID
}

func (r *runtimeConfig) MaxWithdrawalCount() uint32   { return r.cfg.MaxWithdrawalCount }
func (r *runtimeConfig) BtcWithdrawalFee() uint64     { return r.cfg.BtcWithdrawalFee }
func (r *runtimeConfig) NetworkID() chainio.NetworkID { return r.net }
