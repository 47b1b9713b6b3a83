// Package btcpk validates compressed secp256k1 public keys and builds the
// canonical Bitcoin M-of-N P2SH multisig redeem script and address from
// them. It never verifies that a key lies on the curve -- that is left to
// the signature-verification layer the keys are eventually used with.
package btcpk

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/gateway-chain/btc-trustee/chainerr"
)

// MaxTrustees is the hard ceiling Bitcoin's multisig opcode set imposes on
// the number of keys in a redeem script.
const MaxTrustees = 15

// ecP holds the secp256k1 field prime as a 32-byte big-endian value,
// sourced from the curve parameters rather than a second hand-copied
// constant.
var ecP = fieldPrime()

func fieldPrime() [32]byte {
	var out [32]byte
	p := btcec.S256().Params().P.Bytes()
	copy(out[32-len(p):], p)
	return out
}

// KeyKind tags whether a raw key was given in compressed or uncompressed
// (normal) form.
type KeyKind uint8

const (
	KeyCompressed KeyKind = iota
	KeyUncompressed
)

// RawKey is the as-declared public key before validation: either a
// 33-byte compressed point or a 65-byte uncompressed one. Uncompressed
// keys are always rejected by ValidateKey; the tag exists so callers can
// report *why* a key was rejected.
type RawKey struct {
	Kind KeyKind
	Data []byte
}

// ParseRawKey classifies a raw key blob by its length. It does not
// validate field membership; call ValidateKey for that.
func ParseRawKey(b []byte) (RawKey, error) {
	switch len(b) {
	case 33:
		return RawKey{Kind: KeyCompressed, Data: append([]byte(nil), b...)}, nil
	case 65:
		return RawKey{Kind: KeyUncompressed, Data: append([]byte(nil), b...)}, nil
	default:
		return RawKey{}, chainerr.ErrInvalidPublicKey
	}
}

// PublicKey is a validated 33-byte compressed secp256k1 public key.
type PublicKey struct {
	raw [33]byte
}

// Bytes returns the 33-byte compressed encoding.
func (k PublicKey) Bytes() []byte {
	out := make([]byte, 33)
	copy(out, k.raw[:])
	return out
}

// String returns the hex encoding of the key, for logging.
func (k PublicKey) String() string {
	return hex.EncodeToString(k.raw[:])
}

// Equal reports whether two keys carry the same bytes.
func (k PublicKey) Equal(other PublicKey) bool {
	return k.raw == other.raw
}

// ValidateCompressed parses and validates a raw 33-byte compressed key in
// one step.
func ValidateCompressed(raw []byte) (PublicKey, error) {
	key, err := ParseRawKey(raw)
	if err != nil {
		return PublicKey{}, err
	}
	return ValidateKey(key)
}

// ValidateKey checks that key is a compressed point whose X-coordinate is
// non-zero and strictly less than the secp256k1 field prime. Normal
// (uncompressed) keys are rejected outright. This rejects the point at
// infinity and encodings outside the field; it does not check that the
// point lies on the curve.
func ValidateKey(key RawKey) (PublicKey, error) {
	if key.Kind != KeyCompressed || len(key.Data) != 33 {
		log.Debugf("rejecting key: not a compressed 33-byte point")
		return PublicKey{}, chainerr.ErrInvalidPublicKey
	}

	b := key.Data
	if b[0] != 0x02 && b[0] != 0x03 {
		log.Debugf("rejecting key: prefix byte %#x not 0x02/0x03", b[0])
		return PublicKey{}, chainerr.ErrInvalidPublicKey
	}

	x := b[1:33]
	if allZero(x) {
		log.Debugf("rejecting key: zero X-coordinate")
		return PublicKey{}, chainerr.ErrInvalidPublicKey
	}
	if bytes.Compare(x, ecP[:]) >= 0 {
		log.Debugf("rejecting key: X-coordinate >= field prime")
		return PublicKey{}, chainerr.ErrInvalidPublicKey
	}

	var pk PublicKey
	copy(pk.raw[:], b)
	return pk, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// HasDuplicateKeys reports whether any key appears more than once in keys.
func HasDuplicateKeys(keys []PublicKey) bool {
	seen := make(map[[33]byte]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k.raw]; ok {
			return true
		}
		seen[k.raw] = struct{}{}
	}
	return false
}
