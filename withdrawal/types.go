// Package withdrawal implements the withdrawal-proposal lifecycle: output
// checking against a pending withdrawal set, and the 2/3 super-majority
// vote/co-sign state machine that finalizes or rejects a proposal.
package withdrawal

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/gateway-chain/btc-trustee/trustee"
)

// SigState is the two-case tag a proposal carries: still collecting
// signatures, or finished and immutable.
type SigState uint8

const (
	Unfinish SigState = iota
	Finish
)

func (s SigState) String() string {
	if s == Finish {
		return "Finish"
	}
	return "Unfinish"
}

// Vote records one trustee's decision on the current proposal. A member
// appears at most once across a proposal's lifetime (I3).
type Vote struct {
	Who     trustee.Account
	Approve bool
}

// Proposal is the process-wide singleton withdrawal-proposal slot. At
// most one exists at any time.
type Proposal struct {
	SigState      SigState
	WithdrawalIDs []uint32 // sorted, deduplicated
	Tx            *wire.MsgTx
	Votes         []Vote
}

// clone returns a deep-enough copy of p so a candidate next state can be
// built and validated without mutating the currently-stored proposal
// until every check has passed.
func (p *Proposal) clone() *Proposal {
	next := &Proposal{
		SigState:      p.SigState,
		WithdrawalIDs: append([]uint32(nil), p.WithdrawalIDs...),
		Tx:            p.Tx,
		Votes:         append([]Vote(nil), p.Votes...),
	}
	return next
}

// hasVoted reports whether who already appears in votes.
func (p *Proposal) hasVoted(who trustee.Account) bool {
	for _, v := range p.Votes {
		if v.Who == who {
			return true
		}
	}
	return false
}

func (p *Proposal) countVotes(approve bool) uint32 {
	var n uint32
	for _, v := range p.Votes {
		if v.Approve == approve {
			n++
		}
	}
	return n
}
