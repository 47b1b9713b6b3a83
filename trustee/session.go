// Package trustee builds canonical trustee sessions from a set of
// candidate members and their declared hot/cold public keys.
package trustee

import (
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/gateway-chain/btc-trustee/btcpk"
	"github.com/gateway-chain/btc-trustee/chainerr"
)

// Account identifies a governance participant. The coordinator never
// interprets it beyond equality comparison; it is whatever account
// identifier the surrounding chain runtime uses.
type Account string

// Config bounds the size of a trustee committee. Bitcoin's multisig
// opcode set limits MaxTrustees to btcpk.MaxTrustees (15).
type Config struct {
	MinTrustees uint32
	MaxTrustees uint32
}

// Intent is a single candidate's declared hot/cold key pair.
type Intent struct {
	Account    Account
	HotPubKey  btcpk.RawKey
	ColdPubKey btcpk.RawKey
}

// Session is the immutable result of a successful build: the member list,
// the signing threshold, and the hot/cold P2SH address pair. A new session
// replaces the previous one atomically at the runtime's governance
// boundary; Session values themselves are never mutated in place.
type Session struct {
	Members   []Account
	Threshold uint16
	Hot       btcpk.AddrInfo
	Cold      btcpk.AddrInfo
}

// IsMember reports whether who is part of the session's trustee list.
func (s *Session) IsMember(who Account) bool {
	for _, m := range s.Members {
		if m == who {
			return true
		}
	}
	return false
}

// HotRedeemScript returns the redeem script backing the session's hot
// address.
func (s *Session) HotRedeemScript() []byte {
	return s.Hot.RedeemScript
}

// TwoThirds computes ceil(2*n/3) using the exact integer formula the
// protocol requires: (2n + 2) / 3. All replicas must compute this
// identically for determinism.
func TwoThirds(n int) int {
	return (2*n + 2) / 3
}

// Build validates candidates against cfg and produces a TrusteeSession.
// It is pure: it performs no storage writes, the caller commits the
// result.
func Build(candidates []Intent, cfg Config, net *chaincfg.Params) (*Session, error) {
	n := len(candidates)

	members := make([]Account, n)
	hotRaw := make([]btcpk.RawKey, n)
	coldRaw := make([]btcpk.RawKey, n)
	for i, c := range candidates {
		members[i] = c.Account
		hotRaw[i] = c.HotPubKey
		coldRaw[i] = c.ColdPubKey
	}

	hotKeys, err := validateAll(hotRaw)
	if err != nil {
		return nil, err
	}
	coldKeys, err := validateAll(coldRaw)
	if err != nil {
		return nil, err
	}

	if btcpk.HasDuplicateKeys(hotKeys) || btcpk.HasDuplicateKeys(coldKeys) {
		log.Errorf("trustee candidates contain duplicate pubkeys")
		return nil, chainerr.ErrDuplicatedKeys
	}

	if uint32(n) < cfg.MinTrustees || uint32(n) > cfg.MaxTrustees {
		log.Errorf("trustee count %d outside [%d, %d]", n, cfg.MinTrustees, cfg.MaxTrustees)
		return nil, chainerr.ErrInvalidTrusteeCounts
	}

	threshold := TwoThirds(n)

	hot, err := btcpk.BuildAddrInfo(hotKeys, threshold, net)
	if err != nil {
		log.Errorf("unable to build hot address: %v", err)
		return nil, chainerr.ErrGenerateMultisigFailed
	}
	cold, err := btcpk.BuildAddrInfo(coldKeys, threshold, net)
	if err != nil {
		log.Errorf("unable to build cold address: %v", err)
		return nil, chainerr.ErrGenerateMultisigFailed
	}

	log.Infof("built trustee session: %d members, threshold %d, hot=%s, cold=%s",
		n, threshold, hot.AddrBytes, cold.AddrBytes)

	return &Session{
		Members:   members,
		Threshold: uint16(threshold),
		Hot:       hot,
		Cold:      cold,
	}, nil
}

func validateAll(raw []btcpk.RawKey) ([]btcpk.PublicKey, error) {
	keys := make([]btcpk.PublicKey, len(raw))
	for i, r := range raw {
		k, err := btcpk.ValidateKey(r)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}
