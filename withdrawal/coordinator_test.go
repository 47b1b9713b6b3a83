package withdrawal

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/gateway-chain/btc-trustee/btcpk"
	"github.com/gateway-chain/btc-trustee/chainerr"
	"github.com/gateway-chain/btc-trustee/chainio"
	"github.com/gateway-chain/btc-trustee/trustee"
)

func genRawKey(t *testing.T, seed byte) btcpk.RawKey {
	t.Helper()

	buf := make([]byte, 32)
	buf[31] = seed + 1
	priv := btcec.PrivKeyFromBytes(buf)
	key, err := btcpk.ParseRawKey(priv.PubKey().SerializeCompressed())
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func buildSession(t *testing.T, n int) (*trustee.Session, []trustee.Account) {
	t.Helper()

	intents := make([]trustee.Intent, n)
	accounts := make([]trustee.Account, n)
	for i := 0; i < n; i++ {
		acct := trustee.Account([]byte{'m', byte('0' + i)})
		accounts[i] = acct
		intents[i] = trustee.Intent{
			Account:    acct,
			HotPubKey:  genRawKey(t, byte(2*i+1)),
			ColdPubKey: genRawKey(t, byte(2*i+2)),
		}
	}

	cfg := trustee.Config{MinTrustees: 1, MaxTrustees: 15}
	session, err := trustee.Build(intents, cfg, netParams)
	if err != nil {
		t.Fatal(err)
	}
	return session, accounts
}

type fakeSessions struct {
	session *trustee.Session
}

func (f *fakeSessions) CurrentSession() (*trustee.Session, error) { return f.session, nil }
func (f *fakeSessions) LastSession() (*trustee.Session, error)    { return nil, nil }

type fakeInspector struct {
	sigCount  uint32
	identical bool
}

func (f *fakeInspector) ParseSignatures(tx *wire.MsgTx) (uint32, error) {
	return f.sigCount, nil
}

func (f *fakeInspector) EnsureIdentical(a, b *wire.MsgTx) error {
	if f.identical {
		return nil
	}
	return chainerr.ErrTxNotIdentical
}

type fakeConfig struct {
	maxWithdrawal uint32
	fee           uint64
	net           chainio.NetworkID
}

func (f *fakeConfig) MaxWithdrawalCount() uint32   { return f.maxWithdrawal }
func (f *fakeConfig) BtcWithdrawalFee() uint64     { return f.fee }
func (f *fakeConfig) NetworkID() chainio.NetworkID { return f.net }

type fakeEvents struct {
	created  []trustee.Account
	votes    []Vote
	finishes []chainhash.Hash
	drops    int
}

func (f *fakeEvents) CreateWithdrawalProposal(who trustee.Account, ids []uint32) {
	f.created = append(f.created, who)
}
func (f *fakeEvents) SignWithdrawalProposal(who trustee.Account, approve bool) {
	f.votes = append(f.votes, Vote{Who: who, Approve: approve})
}
func (f *fakeEvents) FinishProposal(txHash chainhash.Hash) {
	f.finishes = append(f.finishes, txHash)
}
func (f *fakeEvents) DropWithdrawalProposal(rejectCount, threshold uint32, ids []uint32) {
	f.drops++
}

// newCoordinator wires a Coordinator with n members and a single pending
// withdrawal (id 1) whose beneficiary is addr 9.
func newCoordinator(t *testing.T, n int, sigCount uint32) (*Coordinator, []trustee.Account, *fakeRecords, *fakeInspector, *fakeEvents) {
	t.Helper()

	session, accounts := buildSession(t, n)
	_, bene1B58 := mustAddr(t, 9)
	records := newFakeRecords(&chainio.WithdrawalRecord{ID: 1, BeneficiaryAddr: bene1B58, Amount: 1000})
	inspector := &fakeInspector{sigCount: sigCount, identical: true}
	events := &fakeEvents{}
	cfg := &fakeConfig{maxWithdrawal: 10, fee: 0, net: chainio.Mainnet}
	codec := chainio.NewAddressCodec(netParams)

	coord := NewCoordinator(&fakeSessions{session: session}, records, codec, inspector, cfg, events)
	return coord, accounts, records, inspector, events
}

func TestCoordinatorCreateWithoutAutoVote(t *testing.T) {
	t.Parallel()

	coord, accounts, _, _, events := newCoordinator(t, 6, 0)
	bene1, _ := mustAddr(t, 9)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(mustOut(t, bene1, 1000))

	if err := coord.Create(accounts[0], tx, []uint32{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := coord.Proposal()
	if p == nil {
		t.Fatal("expected proposal to exist")
	}
	if p.SigState != Unfinish {
		t.Fatalf("expected Unfinish, got %v", p.SigState)
	}
	if len(p.Votes) != 0 {
		t.Fatalf("expected no auto-vote, got %d votes", len(p.Votes))
	}
	if len(events.created) != 1 || events.created[0] != accounts[0] {
		t.Fatalf("expected create event for %v, got %v", accounts[0], events.created)
	}
}

func TestCoordinatorCreateWithAutoVote(t *testing.T) {
	t.Parallel()

	coord, accounts, _, _, events := newCoordinator(t, 6, 1)
	bene1, _ := mustAddr(t, 9)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(mustOut(t, bene1, 1000))

	if err := coord.Create(accounts[0], tx, []uint32{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := coord.Proposal()
	if len(p.Votes) != 1 || p.Votes[0].Who != accounts[0] || !p.Votes[0].Approve {
		t.Fatalf("expected auto-vote by creator, got %v", p.Votes)
	}
	if len(events.votes) != 1 {
		t.Fatalf("expected one sign event bundled with create, got %d", len(events.votes))
	}
}

func TestCoordinatorCreateRejectsNonMember(t *testing.T) {
	t.Parallel()

	coord, _, _, _, _ := newCoordinator(t, 6, 0)
	bene1, _ := mustAddr(t, 9)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(mustOut(t, bene1, 1000))

	err := coord.Create(trustee.Account("zz"), tx, []uint32{1})
	if err != chainerr.ErrNotTrustee {
		t.Fatalf("expected ErrNotTrustee, got %v", err)
	}
}

func TestCoordinatorCreateRejectsTooManyIDs(t *testing.T) {
	t.Parallel()

	coord, accounts, _, _, _ := newCoordinator(t, 6, 0)
	coord.Config = &fakeConfig{maxWithdrawal: 1, fee: 0, net: chainio.Mainnet}

	tx := wire.NewMsgTx(wire.TxVersion)
	err := coord.Create(accounts[0], tx, []uint32{1, 2})
	if err != chainerr.ErrWroungWithdrawalCount {
		t.Fatalf("expected ErrWroungWithdrawalCount, got %v", err)
	}
}

// TestCoordinatorSignToFinish drives a 6-member/threshold-4 proposal from
// creation through the fourth co-sign, asserting the Finish transition and
// its event fires exactly once, at the threshold boundary.
func TestCoordinatorSignToFinish(t *testing.T) {
	t.Parallel()

	coord, accounts, _, inspector, events := newCoordinator(t, 6, 1)
	bene1, _ := mustAddr(t, 9)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(mustOut(t, bene1, 1000))

	if err := coord.Create(accounts[0], tx, []uint32{1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i, sigCount := range []uint32{2, 3, 4} {
		inspector.sigCount = sigCount
		who := accounts[i+1]
		if err := coord.Sign(who, tx); err != nil {
			t.Fatalf("sign %d by %v failed: %v", sigCount, who, err)
		}
	}

	p := coord.Proposal()
	if p.SigState != Finish {
		t.Fatalf("expected Finish, got %v", p.SigState)
	}
	if len(events.finishes) != 1 {
		t.Fatalf("expected exactly one finish event, got %d", len(events.finishes))
	}
}

func TestCoordinatorSignRejectsWrongSigCount(t *testing.T) {
	t.Parallel()

	coord, accounts, _, inspector, _ := newCoordinator(t, 6, 1)
	bene1, _ := mustAddr(t, 9)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(mustOut(t, bene1, 1000))

	if err := coord.Create(accounts[0], tx, []uint32{1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	inspector.sigCount = 3 // confirmed (1) + 1 == 2 expected, not 3
	if err := coord.Sign(accounts[1], tx); err != chainerr.ErrInvalidSigCount {
		t.Fatalf("expected ErrInvalidSigCount, got %v", err)
	}
}

func TestCoordinatorSignRejectsDoubleVote(t *testing.T) {
	t.Parallel()

	coord, accounts, _, inspector, _ := newCoordinator(t, 6, 1)
	bene1, _ := mustAddr(t, 9)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(mustOut(t, bene1, 1000))

	if err := coord.Create(accounts[0], tx, []uint32{1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	inspector.sigCount = 2
	if err := coord.Sign(accounts[1], tx); err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if err := coord.Sign(accounts[1], tx); err != chainerr.ErrAlreadyVoted {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
}

// TestCoordinatorRejectDropsProposal asserts that reaching n-m+1
// rejections drops the proposal and recovers its withdrawal ids.
func TestCoordinatorRejectDropsProposal(t *testing.T) {
	t.Parallel()

	coord, accounts, records, _, events := newCoordinator(t, 6, 0)
	bene1, _ := mustAddr(t, 9)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(mustOut(t, bene1, 1000))

	if err := coord.Create(accounts[0], tx, []uint32{1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, ok := records.Pending(1); ok {
		t.Fatalf("expected id 1 to be locked after create")
	}

	// n=6, m=4 -> need 6-4+1=3 rejections.
	for _, who := range accounts[1:4] {
		if err := coord.Sign(who, nil); err != nil {
			t.Fatalf("reject by %v failed: %v", who, err)
		}
	}

	if coord.Proposal() != nil {
		t.Fatalf("expected proposal to be dropped")
	}
	if events.drops != 1 {
		t.Fatalf("expected exactly one drop event, got %d", events.drops)
	}
	if _, ok := records.Pending(1); !ok {
		t.Fatalf("expected id 1 to be recovered after drop")
	}
}

func TestCoordinatorSignNoProposal(t *testing.T) {
	t.Parallel()

	coord, accounts, _, _, _ := newCoordinator(t, 6, 0)
	if err := coord.Sign(accounts[0], nil); err != chainerr.ErrNoProposal {
		t.Fatalf("expected ErrNoProposal, got %v", err)
	}
}
