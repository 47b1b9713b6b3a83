package store

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/gateway-chain/btc-trustee/chainerr"
	"github.com/gateway-chain/btc-trustee/chainio"
	"github.com/gateway-chain/btc-trustee/trustee"
)

// MemoryRecords is an in-memory chainio.WithdrawalRecords for tests and
// for driving the coordinator without a real chain backend attached.
// cmd/trusteed does not use it; it wires KVStore.
type MemoryRecords struct {
	mu      sync.Mutex
	records map[uint32]*chainio.WithdrawalRecord
	locked  map[uint32]bool
}

// NewMemoryRecords returns an empty MemoryRecords.
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{
		records: make(map[uint32]*chainio.WithdrawalRecord),
		locked:  make(map[uint32]bool),
	}
}

// Put inserts or overwrites a pending record.
func (m *MemoryRecords) Put(rec *chainio.WithdrawalRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.ID] = rec
}

// Pending implements chainio.WithdrawalRecords.
func (m *MemoryRecords) Pending(id uint32) (*chainio.WithdrawalRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locked[id] {
		return nil, false
	}
	rec, ok := m.records[id]
	return rec, ok
}

// ProcessWithdrawal implements chainio.WithdrawalRecords.
func (m *MemoryRecords) ProcessWithdrawal(ids []uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if _, ok := m.records[id]; !ok || m.locked[id] {
			return chainerr.ErrNoWithdrawalRecord
		}
	}
	for _, id := range ids {
		m.locked[id] = true
	}
	return nil
}

// RecoverWithdrawalByTrustee implements chainio.WithdrawalRecords.
func (m *MemoryRecords) RecoverWithdrawalByTrustee(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.locked, id)
	return nil
}

// MemorySessions is an in-memory chainio.SessionProvider holding exactly
// the current and previous trustee session.
type MemorySessions struct {
	mu             sync.Mutex
	current, prior *trustee.Session
}

// NewMemorySessions returns a MemorySessions with no session set.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{}
}

// SetCurrent installs session as current, demoting the previous current
// session (if any) to "last".
func (m *MemorySessions) SetCurrent(session *trustee.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prior = m.current
	m.current = session
}

// CurrentSession implements chainio.SessionProvider.
func (m *MemorySessions) CurrentSession() (*trustee.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, chainerr.ErrNoSession
	}
	return m.current, nil
}

// LastSession implements chainio.SessionProvider.
func (m *MemorySessions) LastSession() (*trustee.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.prior, nil
}

// LoggingEvents is a chainio.EventSink that logs every event through the
// package logger, the default sink cmd/trusteed wires when no on-chain
// event bus is attached.
type LoggingEvents struct{}

func (LoggingEvents) CreateWithdrawalProposal(who trustee.Account, ids []uint32) {
	log.Infof("withdrawal proposal created by %s for ids %v", who, ids)
}

func (LoggingEvents) SignWithdrawalProposal(who trustee.Account, approve bool) {
	log.Infof("%s voted on withdrawal proposal: approve=%v", who, approve)
}

func (LoggingEvents) FinishProposal(txHash chainhash.Hash) {
	log.Infof("withdrawal proposal finished, tx=%s", txHash)
}

func (LoggingEvents) DropWithdrawalProposal(rejectCount, threshold uint32, ids []uint32) {
	log.Infof("withdrawal proposal dropped: %d/%d rejections, ids %v", rejectCount, threshold, ids)
}
