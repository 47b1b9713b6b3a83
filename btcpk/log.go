package btcpk

import "github.com/btcsuite/btclog"

// log is the package-level logger for btcpk, disabled until UseLogger is
// called by the daemon, following the teacher's per-subsystem logging
// convention.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by btcpk. Call it before
// validating keys or building scripts if diagnostic output is desired.
func UseLogger(logger btclog.Logger) {
	log = logger
}
