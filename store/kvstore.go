package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/kvdb"

	"github.com/gateway-chain/btc-trustee/btcpk"
	"github.com/gateway-chain/btc-trustee/chainerr"
	"github.com/gateway-chain/btc-trustee/chainio"
	"github.com/gateway-chain/btc-trustee/trustee"
	"github.com/gateway-chain/btc-trustee/withdrawal"
)

var (
	sessionBucket  = []byte("trustee-sessions")
	proposalBucket = []byte("withdrawal-proposal")
	recordBucket   = []byte("withdrawal-records")
	metaBucket     = []byte("meta")

	currentSessionKey = []byte("current")
	lastSessionKey    = []byte("last")
	proposalKey       = []byte("singleton")
	dbVersionKey      = []byte("version")

	byteOrder = binary.BigEndian
)

const dbVersion = 0

// Every stored record value starts with one of these status bytes:
// pending, or locked by an in-flight proposal.
const (
	recordStatusPending byte = 0
	recordStatusLocked  byte = 1
)

// KVStore persists trustee sessions, the single in-flight withdrawal
// proposal, and withdrawal records in a kvdb-backed database, mirroring
// channeldb's top-level-bucket-per-concern layout and version-zero
// migration bookkeeping.
type KVStore struct {
	db kvdb.Backend
}

// Open opens (creating if necessary) the bolt-backed store at dbPath and
// ensures every top-level bucket this store needs exists.
func Open(dbPath string) (*KVStore, error) {
	db, err := kvdb.Create(kvdb.BoltBackendName, dbPath, true, kvdb.DefaultDBTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to open trustee store: %w", err)
	}

	s := &KVStore{db: db}
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *KVStore) initBuckets() error {
	return kvdb.Update(s.db, func(tx kvdb.RwTx) error {
		for _, name := range [][]byte{sessionBucket, proposalBucket, recordBucket, metaBucket} {
			if _, err := tx.CreateTopLevelBucket(name); err != nil {
				return err
			}
		}

		meta := tx.ReadWriteBucket(metaBucket)
		if meta.Get(dbVersionKey) == nil {
			var buf [4]byte
			byteOrder.PutUint32(buf[:], dbVersion)
			return meta.Put(dbVersionKey, buf[:])
		}
		return nil
	}, func() {})
}

// Close releases the underlying backend.
func (s *KVStore) Close() error {
	return s.db.Close()
}

// -- sessions ---------------------------------------------------------

// PutSession stores session as the current trustee session, demoting any
// previously-current session to "last" in the same transaction.
func (s *KVStore) PutSession(session *trustee.Session) error {
	buf, err := serializeSession(session)
	if err != nil {
		return err
	}

	return kvdb.Update(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(sessionBucket)
		if cur := bucket.Get(currentSessionKey); cur != nil {
			if err := bucket.Put(lastSessionKey, cur); err != nil {
				return err
			}
		}
		return bucket.Put(currentSessionKey, buf)
	}, func() {})
}

// CurrentSession implements chainio.SessionProvider.
func (s *KVStore) CurrentSession() (*trustee.Session, error) {
	var session *trustee.Session
	err := kvdb.View(s.db, func(tx kvdb.RTx) error {
		raw := tx.ReadBucket(sessionBucket).Get(currentSessionKey)
		if raw == nil {
			return chainerr.ErrNoSession
		}
		sess, err := deserializeSession(raw)
		if err != nil {
			return err
		}
		session = sess
		return nil
	}, func() {})
	return session, err
}

// LastSession implements chainio.SessionProvider.
func (s *KVStore) LastSession() (*trustee.Session, error) {
	var session *trustee.Session
	err := kvdb.View(s.db, func(tx kvdb.RTx) error {
		raw := tx.ReadBucket(sessionBucket).Get(lastSessionKey)
		if raw == nil {
			return nil
		}
		sess, err := deserializeSession(raw)
		if err != nil {
			return err
		}
		session = sess
		return nil
	}, func() {})
	return session, err
}

// -- proposal -----------------------------------------------------------

// PutProposal persists p as the current proposal. The coordinator keeps
// its proposal in memory and never calls this; cmd/trusteed does not call
// it either.
func (s *KVStore) PutProposal(p *withdrawal.Proposal) error {
	buf, err := serializeProposal(p)
	if err != nil {
		return err
	}
	return kvdb.Update(s.db, func(tx kvdb.RwTx) error {
		return tx.ReadWriteBucket(proposalBucket).Put(proposalKey, buf)
	}, func() {})
}

// CurrentProposal returns the persisted proposal, or nil if none exists.
func (s *KVStore) CurrentProposal() (*withdrawal.Proposal, error) {
	var p *withdrawal.Proposal
	err := kvdb.View(s.db, func(tx kvdb.RTx) error {
		raw := tx.ReadBucket(proposalBucket).Get(proposalKey)
		if raw == nil {
			return nil
		}
		parsed, err := deserializeProposal(raw)
		if err != nil {
			return err
		}
		p = parsed
		return nil
	}, func() {})
	return p, err
}

// DeleteProposal clears the persisted proposal, mirroring a dropped or
// finished proposal being removed from the process-wide singleton slot.
func (s *KVStore) DeleteProposal() error {
	return kvdb.Update(s.db, func(tx kvdb.RwTx) error {
		return tx.ReadWriteBucket(proposalBucket).Delete(proposalKey)
	}, func() {})
}

// -- withdrawal records ---------------------------------------------------

func recordKey(id uint32) []byte {
	var key [4]byte
	byteOrder.PutUint32(key[:], id)
	return key[:]
}

// PutRecord inserts or overwrites a pending withdrawal record. Records
// originate from the surrounding chain runtime; this store only persists
// them and tracks their lock state across proposals.
func (s *KVStore) PutRecord(rec *chainio.WithdrawalRecord) error {
	buf, err := serializeRecord(rec)
	if err != nil {
		return err
	}
	return kvdb.Update(s.db, func(tx kvdb.RwTx) error {
		return tx.ReadWriteBucket(recordBucket).Put(recordKey(rec.ID), buf)
	}, func() {})
}

// Pending implements chainio.WithdrawalRecords.
func (s *KVStore) Pending(id uint32) (*chainio.WithdrawalRecord, bool) {
	var rec *chainio.WithdrawalRecord
	var locked bool
	_ = kvdb.View(s.db, func(tx kvdb.RTx) error {
		raw := tx.ReadBucket(recordBucket).Get(recordKey(id))
		if raw == nil {
			return nil
		}
		r, status, err := deserializeRecord(raw)
		if err != nil {
			return err
		}
		rec = r
		locked = status == recordStatusLocked
		return nil
	}, func() {})

	if rec == nil || locked {
		return nil, false
	}
	return rec, true
}

// ProcessWithdrawal implements chainio.WithdrawalRecords: it locks every
// id in one transaction, failing (and changing nothing) if any id is
// missing or already locked.
func (s *KVStore) ProcessWithdrawal(ids []uint32) error {
	return kvdb.Update(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(recordBucket)
		for _, id := range ids {
			raw := bucket.Get(recordKey(id))
			if raw == nil {
				return chainerr.ErrNoWithdrawalRecord
			}
			rec, status, err := deserializeRecord(raw)
			if err != nil {
				return err
			}
			if status == recordStatusLocked {
				return chainerr.ErrNoWithdrawalRecord
			}
			buf, err := serializeRecordStatus(rec, recordStatusLocked)
			if err != nil {
				return err
			}
			if err := bucket.Put(recordKey(id), buf); err != nil {
				return err
			}
		}
		return nil
	}, func() {})
}

// RecoverWithdrawalByTrustee implements chainio.WithdrawalRecords.
func (s *KVStore) RecoverWithdrawalByTrustee(id uint32) error {
	return kvdb.Update(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(recordBucket)
		raw := bucket.Get(recordKey(id))
		if raw == nil {
			return nil
		}
		rec, _, err := deserializeRecord(raw)
		if err != nil {
			return err
		}
		buf, err := serializeRecordStatus(rec, recordStatusPending)
		if err != nil {
			return err
		}
		return bucket.Put(recordKey(id), buf)
	}, func() {})
}

// -- serialization --------------------------------------------------------
//
// A hand-rolled length-prefixed binary encoding, matching the teacher's
// own avoidance of reflection-based encoders for persisted records.

func writeVarBytes(buf *bytes.Buffer, b []byte) error {
	if err := binary.Write(buf, byteOrder, uint32(len(b))); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readVarBytes(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, byteOrder, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeAddrInfo(buf *bytes.Buffer, a btcpk.AddrInfo) error {
	if err := writeVarBytes(buf, a.AddrBytes); err != nil {
		return err
	}
	return writeVarBytes(buf, a.RedeemScript)
}

func readAddrInfo(r *bytes.Reader) (btcpk.AddrInfo, error) {
	addrBytes, err := readVarBytes(r)
	if err != nil {
		return btcpk.AddrInfo{}, err
	}
	script, err := readVarBytes(r)
	if err != nil {
		return btcpk.AddrInfo{}, err
	}
	return btcpk.AddrInfo{AddrBytes: addrBytes, RedeemScript: script}, nil
}

func serializeSession(s *trustee.Session) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, byteOrder, uint32(len(s.Members))); err != nil {
		return nil, err
	}
	for _, m := range s.Members {
		if err := writeVarBytes(&buf, []byte(m)); err != nil {
			return nil, err
		}
	}
	if err := binary.Write(&buf, byteOrder, s.Threshold); err != nil {
		return nil, err
	}
	if err := writeAddrInfo(&buf, s.Hot); err != nil {
		return nil, err
	}
	if err := writeAddrInfo(&buf, s.Cold); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deserializeSession(raw []byte) (*trustee.Session, error) {
	r := bytes.NewReader(raw)

	var n uint32
	if err := binary.Read(r, byteOrder, &n); err != nil {
		return nil, err
	}
	members := make([]trustee.Account, n)
	for i := range members {
		b, err := readVarBytes(r)
		if err != nil {
			return nil, err
		}
		members[i] = trustee.Account(b)
	}

	var threshold uint16
	if err := binary.Read(r, byteOrder, &threshold); err != nil {
		return nil, err
	}
	hot, err := readAddrInfo(r)
	if err != nil {
		return nil, err
	}
	cold, err := readAddrInfo(r)
	if err != nil {
		return nil, err
	}

	return &trustee.Session{
		Members:   members,
		Threshold: threshold,
		Hot:       hot,
		Cold:      cold,
	}, nil
}

func serializeProposal(p *withdrawal.Proposal) ([]byte, error) {
	var buf bytes.Buffer

	if err := buf.WriteByte(byte(p.SigState)); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, byteOrder, uint32(len(p.WithdrawalIDs))); err != nil {
		return nil, err
	}
	for _, id := range p.WithdrawalIDs {
		if err := binary.Write(&buf, byteOrder, id); err != nil {
			return nil, err
		}
	}

	var txBuf bytes.Buffer
	if p.Tx != nil {
		if err := p.Tx.Serialize(&txBuf); err != nil {
			return nil, err
		}
	}
	if err := writeVarBytes(&buf, txBuf.Bytes()); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, byteOrder, uint32(len(p.Votes))); err != nil {
		return nil, err
	}
	for _, v := range p.Votes {
		if err := writeVarBytes(&buf, []byte(v.Who)); err != nil {
			return nil, err
		}
		approve := byte(0)
		if v.Approve {
			approve = 1
		}
		if err := buf.WriteByte(approve); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func deserializeProposal(raw []byte) (*withdrawal.Proposal, error) {
	r := bytes.NewReader(raw)

	sigState, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	var n uint32
	if err := binary.Read(r, byteOrder, &n); err != nil {
		return nil, err
	}
	ids := make([]uint32, n)
	for i := range ids {
		if err := binary.Read(r, byteOrder, &ids[i]); err != nil {
			return nil, err
		}
	}

	txBytes, err := readVarBytes(r)
	if err != nil {
		return nil, err
	}
	var tx *wire.MsgTx
	if len(txBytes) > 0 {
		tx = wire.NewMsgTx(wire.TxVersion)
		if err := tx.Deserialize(bytes.NewReader(txBytes)); err != nil {
			return nil, err
		}
	}

	if err := binary.Read(r, byteOrder, &n); err != nil {
		return nil, err
	}
	votes := make([]withdrawal.Vote, n)
	for i := range votes {
		who, err := readVarBytes(r)
		if err != nil {
			return nil, err
		}
		approve, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		votes[i] = withdrawal.Vote{Who: trustee.Account(who), Approve: approve == 1}
	}

	return &withdrawal.Proposal{
		SigState:      withdrawal.SigState(sigState),
		WithdrawalIDs: ids,
		Tx:            tx,
		Votes:         votes,
	}, nil
}

func serializeRecordStatus(rec *chainio.WithdrawalRecord, status byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := buf.WriteByte(status); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, byteOrder, rec.ID); err != nil {
		return nil, err
	}
	if err := writeVarBytes(&buf, rec.BeneficiaryAddr); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, byteOrder, rec.Amount); err != nil {
		return nil, err
	}
	if err := buf.WriteByte(byte(rec.Chain)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func serializeRecord(rec *chainio.WithdrawalRecord) ([]byte, error) {
	return serializeRecordStatus(rec, recordStatusPending)
}

func deserializeRecord(raw []byte) (*chainio.WithdrawalRecord, byte, error) {
	r := bytes.NewReader(raw)

	status, err := r.ReadByte()
	if err != nil {
		return nil, 0, err
	}

	rec := &chainio.WithdrawalRecord{}
	if err := binary.Read(r, byteOrder, &rec.ID); err != nil {
		return nil, 0, err
	}
	addr, err := readVarBytes(r)
	if err != nil {
		return nil, 0, err
	}
	rec.BeneficiaryAddr = addr
	if err := binary.Read(r, byteOrder, &rec.Amount); err != nil {
		return nil, 0, err
	}
	chainByte, err := r.ReadByte()
	if err != nil {
		return nil, 0, err
	}
	rec.Chain = chainio.Chain(chainByte)

	return rec, status, nil
}
