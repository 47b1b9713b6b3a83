package store

import (
	"testing"

	"github.com/gateway-chain/btc-trustee/chainerr"
	"github.com/gateway-chain/btc-trustee/chainio"
	"github.com/gateway-chain/btc-trustee/trustee"
)

func TestMemoryRecordsLockAndRecover(t *testing.T) {
	t.Parallel()

	recs := NewMemoryRecords()
	recs.Put(&chainio.WithdrawalRecord{ID: 1, Amount: 100})
	recs.Put(&chainio.WithdrawalRecord{ID: 2, Amount: 200})

	if err := recs.ProcessWithdrawal([]uint32{1, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := recs.Pending(1); ok {
		t.Fatalf("expected id 1 to be locked")
	}

	if err := recs.RecoverWithdrawalByTrustee(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := recs.Pending(1); !ok {
		t.Fatalf("expected id 1 to be pending again")
	}
	if _, ok := recs.Pending(2); ok {
		t.Fatalf("expected id 2 to remain locked")
	}
}

func TestMemoryRecordsRejectsUnknownID(t *testing.T) {
	t.Parallel()

	recs := NewMemoryRecords()
	if err := recs.ProcessWithdrawal([]uint32{99}); err != chainerr.ErrNoWithdrawalRecord {
		t.Fatalf("expected ErrNoWithdrawalRecord, got %v", err)
	}
}

func TestMemorySessionsRotation(t *testing.T) {
	t.Parallel()

	sessions := NewMemorySessions()
	if _, err := sessions.CurrentSession(); err != chainerr.ErrNoSession {
		t.Fatalf("expected ErrNoSession before any session is set, got %v", err)
	}

	s1 := &trustee.Session{Members: []trustee.Account{"a0"}}
	sessions.SetCurrent(s1)

	cur, err := sessions.CurrentSession()
	if err != nil || cur != s1 {
		t.Fatalf("expected current session s1, got %v, %v", cur, err)
	}

	s2 := &trustee.Session{Members: []trustee.Account{"a0", "a1"}}
	sessions.SetCurrent(s2)

	cur, _ = sessions.CurrentSession()
	if cur != s2 {
		t.Fatalf("expected current session s2")
	}
	last, _ := sessions.LastSession()
	if last != s1 {
		t.Fatalf("expected last session s1")
	}
}
