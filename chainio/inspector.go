package chainio

import (
	"bytes"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/gateway-chain/btc-trustee/chainerr"
)

// scriptSigInspector is the default TxInspector, backed directly by
// txscript. A P2SH multisig scriptSig is `OP_0 <sig>... <redeemScript>`;
// every pushed item before the trailing redeem-script push that isn't an
// empty placeholder counts as one signature. Only the first input's
// scriptSig is examined.
type scriptSigInspector struct{}

// NewTxInspector returns the default, txscript-backed TxInspector.
func NewTxInspector() TxInspector {
	return scriptSigInspector{}
}

func (scriptSigInspector) ParseSignatures(tx *wire.MsgTx) (uint32, error) {
	if len(tx.TxIn) == 0 {
		return 0, chainerr.ErrInvalidSigCount
	}

	pushes, err := txscript.PushedData(tx.TxIn[0].SignatureScript)
	if err != nil {
		return 0, chainerr.ErrInvalidSigCount
	}
	if len(pushes) == 0 {
		return 0, nil
	}

	var count uint32
	for _, p := range pushes[:len(pushes)-1] {
		if len(p) > 0 {
			count++
		}
	}
	return count, nil
}

func (scriptSigInspector) EnsureIdentical(a, b *wire.MsgTx) error {
	if a.Version != b.Version || a.LockTime != b.LockTime {
		return chainerr.ErrTxNotIdentical
	}
	if len(a.TxIn) != len(b.TxIn) || len(a.TxOut) != len(b.TxOut) {
		return chainerr.ErrTxNotIdentical
	}
	for i := range a.TxIn {
		if a.TxIn[i].PreviousOutPoint != b.TxIn[i].PreviousOutPoint {
			return chainerr.ErrTxNotIdentical
		}
		if a.TxIn[i].Sequence != b.TxIn[i].Sequence {
			return chainerr.ErrTxNotIdentical
		}
	}
	for i := range a.TxOut {
		if a.TxOut[i].Value != b.TxOut[i].Value {
			return chainerr.ErrTxNotIdentical
		}
		if !bytes.Equal(a.TxOut[i].PkScript, b.TxOut[i].PkScript) {
			return chainerr.ErrTxNotIdentical
		}
	}
	return nil
}
