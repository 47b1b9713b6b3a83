package withdrawal

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"

	"github.com/gateway-chain/btc-trustee/btcpk"
	"github.com/gateway-chain/btc-trustee/chainerr"
	"github.com/gateway-chain/btc-trustee/chainio"
)

// addrAmount pairs an address with the amount it is expected to carry, the
// unit the checker sorts and compares in both directions.
type addrAmount struct {
	addr   *btcpk.Address
	amount uint64
}

func sortAddrAmounts(items []addrAmount) {
	sort.Slice(items, func(i, j int) bool {
		bi, bj := items[i].addr.Bytes(), items[j].addr.Bytes()
		if c := bytes.Compare(bi, bj); c != 0 {
			return c < 0
		}
		return items[i].amount < items[j].amount
	})
}

// CheckWithdrawTx verifies that tx's outputs exactly match the beneficiary
// addresses and fee-inflated amounts of the pending withdrawals named by
// ids. ids must already be sorted and deduplicated by the caller. Outputs
// paying the current hot address are treated as change and excluded from
// the comparison; the comparison is invariant under permutation of ids and
// of tx's outputs (P6).
func CheckWithdrawTx(
	records chainio.WithdrawalRecords,
	codec chainio.AddressCodec,
	hotAddrBytes []byte,
	net *chaincfg.Params,
	fee uint64,
	tx *wire.MsgTx,
	ids []uint32,
	proposalExists bool,
) error {

	if proposalExists {
		return chainerr.ErrNotFinishProposal
	}

	applied := make([]addrAmount, 0, len(ids))
	for _, id := range ids {
		record, ok := records.Pending(id)
		if !ok {
			log.Errorf("no pending withdrawal record for id %d", id)
			return chainerr.ErrNoWithdrawalRecord
		}
		addr, err := codec.Verify(record.BeneficiaryAddr)
		if err != nil {
			return err
		}
		applied = append(applied, addrAmount{addr: addr, amount: record.Amount})
	}

	hotAddr, err := codec.Verify(hotAddrBytes)
	if err != nil {
		return err
	}
	hotHash := hotAddr.Hash()

	outs := make([]addrAmount, 0, len(tx.TxOut))
	for _, out := range tx.TxOut {
		addr, err := btcpk.ParseOutputAddress(out.PkScript, net)
		if err != nil {
			log.Errorf("unable to parse address from tx output: %v", err)
			return chainerr.ErrOutputAddrNotFound
		}
		if addr.Hash() == hotHash {
			// Change returned to the trustees' own hot address;
			// excluded from the comparison.
			continue
		}
		outs = append(outs, addrAmount{addr: addr, amount: uint64(out.Value) + fee})
	}

	sortAddrAmounts(applied)
	sortAddrAmounts(outs)

	if len(applied) != len(outs) {
		log.Errorf("withdrawal tx outputs (%d) don't match withdrawal application (%d)",
			len(outs), len(applied))
		return chainerr.ErrInvalidProposal
	}
	for i := range applied {
		if !bytes.Equal(applied[i].addr.Bytes(), outs[i].addr.Bytes()) ||
			applied[i].amount != outs[i].amount {
			log.Errorf("withdrawal tx output %d doesn't match application", i)
			return chainerr.ErrInvalidProposal
		}
	}

	return nil
}
