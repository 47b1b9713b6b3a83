package chainio

import (
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/gateway-chain/btc-trustee/btcpk"
)

// btcutilCodec is the default AddressCodec, backed directly by btcutil's
// base58check decoder.
type btcutilCodec struct {
	net *chaincfg.Params
}

// NewAddressCodec returns the concrete, btcutil-backed AddressCodec for
// net.
func NewAddressCodec(net *chaincfg.Params) AddressCodec {
	return &btcutilCodec{net: net}
}

func (c *btcutilCodec) Verify(base58 []byte) (*btcpk.Address, error) {
	return btcpk.ParseAddress(string(base58), c.net)
}
