package btcpk

import (
	"github.com/btcsuite/btcd/txscript"

	"github.com/gateway-chain/btc-trustee/chainerr"
)

// BuildRedeemScript produces the canonical Bitcoin M-of-N multisig redeem
// script:
//
//	OP_M <pk_1> <pk_2> ... <pk_n> OP_N OP_CHECKMULTISIG
//
// Keys are serialized in the order given -- that order is significant to
// the resulting address and must be preserved by every caller across the
// system. Requires 1 <= m <= n <= MaxTrustees.
func BuildRedeemScript(keys []PublicKey, m int) ([]byte, error) {
	n := len(keys)
	if m < 1 || n < m || n > MaxTrustees {
		log.Errorf("can't build redeem script: m=%d n=%d (max %d)", m, n, MaxTrustees)
		return nil, chainerr.ErrGenerateMultisigFailed
	}

	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_1 + byte(m-1))
	for _, key := range keys {
		builder.AddData(key.Bytes())
	}
	builder.AddOp(txscript.OP_1 + byte(n-1))
	builder.AddOp(txscript.OP_CHECKMULTISIG)

	script, err := builder.Script()
	if err != nil {
		return nil, chainerr.ErrGenerateMultisigFailed
	}
	return script, nil
}
