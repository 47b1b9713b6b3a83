// Package chainerr collects the sentinel errors the trustee withdrawal
// coordinator returns across its public API. Names and spellings are
// preserved verbatim where the wire format depends on them.
package chainerr

import "fmt"

var (
	// ErrDuplicatedKeys is returned when a hot or cold key list contains
	// the same compressed pubkey more than once.
	ErrDuplicatedKeys = fmt.Errorf("duplicated keys")

	// ErrInvalidPublicKey is returned when a raw key fails the
	// compressed-point validity checks.
	ErrInvalidPublicKey = fmt.Errorf("invalid public key")

	// ErrInvalidTrusteeCounts is returned when the candidate count falls
	// outside [min_trustees, max_trustees].
	ErrInvalidTrusteeCounts = fmt.Errorf("invalid trustee counts")

	// ErrGenerateMultisigFailed is returned when a redeem script or P2SH
	// address could not be produced from the given keys/threshold.
	ErrGenerateMultisigFailed = fmt.Errorf("generate multisig failed")

	// ErrNotTrustee is returned when the caller is not a member of the
	// current trustee session.
	ErrNotTrustee = fmt.Errorf("not trustee")

	// ErrWroungWithdrawalCount is returned when a create request lists
	// more withdrawal ids than max_withdrawal_count allows.
	//
	// The spelling is preserved verbatim to avoid breaking on-chain error
	// decoding.
	ErrWroungWithdrawalCount = fmt.Errorf("wroung withdrawal count")

	// ErrInvalidSigCount is returned whenever a signature count observed
	// on a transaction doesn't match what the current call expects.
	ErrInvalidSigCount = fmt.Errorf("invalid sig count")

	// ErrNoProposal is returned when a sign/reject is attempted but no
	// proposal exists.
	ErrNoProposal = fmt.Errorf("no proposal")

	// ErrNotFinishProposal is returned by the checker when a proposal
	// already exists.
	ErrNotFinishProposal = fmt.Errorf("proposal already exists and is not finished")

	// ErrRejectSig is returned when signing is attempted against a
	// proposal that has already reached Finish.
	ErrRejectSig = fmt.Errorf("proposal is already finished, can't sign")

	// ErrInvalidProposal is returned when a proposed transaction's
	// outputs don't match the requested withdrawal set.
	ErrInvalidProposal = fmt.Errorf("invalid withdrawal proposal")

	// ErrNoWithdrawalRecord is returned when a withdrawal id has no
	// corresponding pending record.
	ErrNoWithdrawalRecord = fmt.Errorf("no withdrawal record")

	// ErrAlreadyVoted is returned when a trustee who already appears in
	// votes tries to sign or reject again.
	ErrAlreadyVoted = fmt.Errorf("already vote for this withdrawal proposal")

	// ErrOutputAddrNotFound is returned when an output's script_pubkey
	// doesn't decode to a recognizable address.
	ErrOutputAddrNotFound = fmt.Errorf("not found addr in this out")

	// ErrTxNotIdentical is returned by ensure_identical when two
	// transactions differ outside their scriptSigs/witnesses.
	ErrTxNotIdentical = fmt.Errorf("transaction is not identical to the proposal")

	// ErrNoSession is returned when no trustee session has been stored
	// yet.
	ErrNoSession = fmt.Errorf("no trustee session")

	// ErrNoProposalRecord names the absence of a persisted proposal.
	// KVStore.CurrentProposal reports that case as a nil proposal and
	// does not return this error.
	ErrNoProposalRecord = fmt.Errorf("no persisted withdrawal proposal")
)
