// Package chainio declares the external collaborator contracts the
// trustee withdrawal coordinator depends on. The surrounding chain
// runtime, the account/balance subsystem, and the address/transaction
// codecs are all out of scope for this module -- they are consumed only
// through these interfaces.
package chainio

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/gateway-chain/btc-trustee/btcpk"
	"github.com/gateway-chain/btc-trustee/trustee"
)

// Chain tags which external ledger a withdrawal record belongs to. The
// surrounding gateway module's RPC layer is polymorphic over chain kind;
// this coordinator only ever understands Bitcoin.
type Chain uint8

const (
	Bitcoin Chain = iota
)

// NetworkID selects which Bitcoin network parameters a session/address
// was built against.
type NetworkID uint8

const (
	Mainnet NetworkID = iota
	Testnet
)

// Params returns the chaincfg.Params matching the network id.
func (n NetworkID) Params() *chaincfg.Params {
	if n == Testnet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// SessionProvider exposes the current and previous trustee sessions. How
// sessions are produced or stored is entirely up to the caller; a new
// session replaces the previous one atomically at governance's boundary.
type SessionProvider interface {
	CurrentSession() (*trustee.Session, error)
	LastSession() (*trustee.Session, error)
}

// WithdrawalRecord mirrors an externally-owned pending withdrawal row.
// The coordinator only ever reads it and locks/unlocks it through
// WithdrawalRecords; it never mutates the record directly.
type WithdrawalRecord struct {
	ID              uint32
	BeneficiaryAddr []byte // base58
	Amount          uint64
	Chain           Chain
}

// WithdrawalRecords is the externally-owned withdrawal-records table.
type WithdrawalRecords interface {
	// Pending returns the pending record for id, if any.
	Pending(id uint32) (*WithdrawalRecord, bool)

	// ProcessWithdrawal locks every id so it can't be claimed by a
	// second concurrent proposal.
	ProcessWithdrawal(ids []uint32) error

	// RecoverWithdrawalByTrustee unlocks id after a proposal carrying it
	// was rejected. Errors here are expected to be swallowed by the
	// caller -- recovery is best-effort.
	RecoverWithdrawalByTrustee(id uint32) error
}

// AddressCodec decodes a base58check-encoded Bitcoin address. Address and
// base58 codecs are treated as an external library throughout this
// module; NewAddressCodec wires the concrete btcutil-backed
// implementation used by the reference daemon and tests.
type AddressCodec interface {
	Verify(base58 []byte) (*btcpk.Address, error)
}

// TxInspector counts signatures already present on a transaction and
// checks structural equality between two transactions while ignoring
// their scriptSigs/witnesses.
type TxInspector interface {
	// ParseSignatures counts the signatures present in a transaction's
	// multisig scriptSig. The default implementation (NewTxInspector)
	// examines only the first input; the other inputs are not counted.
	ParseSignatures(tx *wire.MsgTx) (uint32, error)

	// EnsureIdentical compares a and b's version, locktime, inputs
	// (prevouts and sequence numbers) and outputs, ignoring scriptSigs
	// and witnesses. Returns chainerr.ErrTxNotIdentical on mismatch.
	EnsureIdentical(a, b *wire.MsgTx) error
}

// Config exposes the handful of governance-tunable parameters the core
// needs. Fee/limit configuration *policy* is out of scope; only this
// read-only accessor contract is in scope.
type Config interface {
	MaxWithdrawalCount() uint32
	BtcWithdrawalFee() uint64
	NetworkID() NetworkID
}

// EventSink receives the four stable, on-chain-observable events the
// voting state machine emits. Names are stable wire identifiers.
type EventSink interface {
	CreateWithdrawalProposal(who trustee.Account, ids []uint32)
	SignWithdrawalProposal(who trustee.Account, approve bool)
	FinishProposal(txHash chainhash.Hash)
	DropWithdrawalProposal(rejectCount, threshold uint32, ids []uint32)
}
