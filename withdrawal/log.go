package withdrawal

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger sets the package-wide logger used by withdrawal.
func UseLogger(logger btclog.Logger) {
	log = logger
}
