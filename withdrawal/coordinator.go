package withdrawal

import (
	"sort"
	"sync"

	"github.com/btcsuite/btcd/wire"

	"github.com/gateway-chain/btc-trustee/chainerr"
	"github.com/gateway-chain/btc-trustee/chainio"
	"github.com/gateway-chain/btc-trustee/trustee"
)

// Coordinator drives the withdrawal-proposal lifecycle: at most one
// proposal exists at a time, and every exported method is a single
// synchronous transition that either commits in full or leaves state
// unchanged. The embedded mutex exists because the surrounding daemon may
// be driven by more than one goroutine; the core itself assumes the
// single-threaded, deterministic, transactional model of spec.md §5.
type Coordinator struct {
	Sessions  chainio.SessionProvider
	Records   chainio.WithdrawalRecords
	Codec     chainio.AddressCodec
	Inspector chainio.TxInspector
	Config    chainio.Config
	Events    chainio.EventSink

	mu       sync.Mutex
	proposal *Proposal
}

// NewCoordinator wires a Coordinator against its collaborators.
func NewCoordinator(
	sessions chainio.SessionProvider,
	records chainio.WithdrawalRecords,
	codec chainio.AddressCodec,
	inspector chainio.TxInspector,
	cfg chainio.Config,
	events chainio.EventSink,
) *Coordinator {

	return &Coordinator{
		Sessions:  sessions,
		Records:   records,
		Codec:     codec,
		Inspector: inspector,
		Config:    cfg,
		Events:    events,
	}
}

// Proposal returns a copy of the current proposal, or nil if none exists.
func (c *Coordinator) Proposal() *Proposal {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proposal == nil {
		return nil
	}
	return c.proposal.clone()
}

// Create validates and installs a new withdrawal proposal from who,
// covering withdrawal ids, backed by tx. tx may carry 0 or 1 signatures
// (the creator's own); more than that is rejected.
func (c *Coordinator) Create(who trustee.Account, tx *wire.MsgTx, ids []uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.Sessions.CurrentSession()
	if err != nil {
		return err
	}
	if !session.IsMember(who) {
		log.Errorf("create rejected: %s is not a trustee", who)
		return chainerr.ErrNotTrustee
	}

	if uint32(len(ids)) > c.Config.MaxWithdrawalCount() {
		log.Errorf("create rejected: %d ids exceeds max %d", len(ids), c.Config.MaxWithdrawalCount())
		return chainerr.ErrWroungWithdrawalCount
	}
	sorted := sortDedupIDs(ids)

	err = CheckWithdrawTx(
		c.Records, c.Codec, session.Hot.AddrBytes, c.Config.NetworkID().Params(),
		c.Config.BtcWithdrawalFee(), tx, sorted, c.proposal != nil,
	)
	if err != nil {
		return err
	}

	sigCount, err := c.Inspector.ParseSignatures(tx)
	if err != nil {
		return err
	}

	var applySig bool
	switch sigCount {
	case 0:
		applySig = false
	case 1:
		applySig = true
	default:
		log.Errorf("create rejected: tx carries %d signatures, expected 0 or 1", sigCount)
		return chainerr.ErrInvalidSigCount
	}

	if err := c.Records.ProcessWithdrawal(sorted); err != nil {
		return err
	}

	proposal := &Proposal{SigState: Unfinish, WithdrawalIDs: sorted, Tx: tx}

	// The create event must be emitted before any bundled sign event.
	c.Events.CreateWithdrawalProposal(who, sorted)

	if applySig {
		if proposal.hasVoted(who) {
			// Can't happen: proposal.Votes is freshly allocated and
			// empty. If it ever does, the records lock above has
			// already been taken with no way to express "undo" at
			// this layer -- surface it as fatal so the caller aborts
			// the whole transition rather than silently losing the
			// lock.
			return chainerr.WrapFatal(chainerr.ErrAlreadyVoted)
		}
		proposal.Votes = append(proposal.Votes, Vote{Who: who, Approve: true})
		c.Events.SignWithdrawalProposal(who, true)
	}

	c.proposal = proposal
	log.Infof("created withdrawal proposal for %d ids by %s", len(sorted), who)
	return nil
}

// Sign applies a co-signed transaction (approve) or a rejection (tx ==
// nil) from who against the current proposal.
func (c *Coordinator) Sign(who trustee.Account, tx *wire.MsgTx) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proposal == nil {
		return chainerr.ErrNoProposal
	}
	if c.proposal.SigState == Finish {
		return chainerr.ErrRejectSig
	}

	session, err := c.Sessions.CurrentSession()
	if err != nil {
		return err
	}
	if !session.IsMember(who) {
		return chainerr.ErrNotTrustee
	}
	if c.proposal.hasVoted(who) {
		return chainerr.ErrAlreadyVoted
	}

	if tx == nil {
		return c.applyReject(who, session)
	}
	return c.applySign(who, tx, session)
}

func (c *Coordinator) applySign(who trustee.Account, tx *wire.MsgTx, session *trustee.Session) error {
	if err := c.Inspector.EnsureIdentical(tx, c.proposal.Tx); err != nil {
		return err
	}

	sigCount, err := c.Inspector.ParseSignatures(tx)
	if err != nil {
		return err
	}
	if sigCount == 0 {
		log.Errorf("sign rejected: tx carries no signatures")
		return chainerr.ErrInvalidSigCount
	}

	confirmed := c.proposal.countVotes(true)
	if sigCount != confirmed+1 {
		log.Errorf("sign rejected: expected %d signatures, tx carries %d", confirmed+1, sigCount)
		return chainerr.ErrInvalidSigCount
	}

	next := c.proposal.clone()
	next.Votes = append(next.Votes, Vote{Who: who, Approve: true})
	next.Tx = tx

	threshold := uint32(session.Threshold)
	if sigCount == threshold {
		next.SigState = Finish
	}

	c.proposal = next
	c.Events.SignWithdrawalProposal(who, true)
	if next.SigState == Finish {
		log.Infof("withdrawal proposal finished with %d signatures", sigCount)
		c.Events.FinishProposal(tx.TxHash())
	}
	return nil
}

func (c *Coordinator) applyReject(who trustee.Account, session *trustee.Session) error {
	next := c.proposal.clone()
	next.Votes = append(next.Votes, Vote{Who: who, Approve: false})
	c.proposal = next
	c.Events.SignWithdrawalProposal(who, false)

	rejectCount := next.countVotes(false)
	n := uint32(len(session.Members))
	m := uint32(session.Threshold)
	needReject := n - m + 1

	if rejectCount == needReject {
		log.Infof("%d/%d rejections, dropping withdrawal proposal", rejectCount, m)
		for _, id := range next.WithdrawalIDs {
			// Best-effort: recovery failures are swallowed, matching
			// the original record-layer contract.
			_ = c.Records.RecoverWithdrawalByTrustee(id)
		}
		ids := next.WithdrawalIDs
		c.proposal = nil
		c.Events.DropWithdrawalProposal(rejectCount, m, ids)
	}
	return nil
}

// sortDedupIDs returns ids sorted ascending with duplicates removed.
func sortDedupIDs(ids []uint32) []uint32 {
	sorted := append([]uint32(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := sorted[:0]
	for i, id := range sorted {
		if i == 0 || id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
