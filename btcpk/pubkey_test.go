package btcpk

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
)

// genCompressedKey returns a real on-curve compressed pubkey derived from
// seed, so tests exercise actual secp256k1 points rather than hand-typed
// byte strings.
func genCompressedKey(t *testing.T, seed byte) []byte {
	t.Helper()

	buf := make([]byte, 32)
	buf[31] = seed + 1
	priv := btcec.PrivKeyFromBytes(buf)
	return priv.PubKey().SerializeCompressed()
}

func TestValidateCompressedAccepts(t *testing.T) {
	t.Parallel()

	raw := genCompressedKey(t, 1)
	if _, err := ValidateCompressed(raw); err != nil {
		t.Fatalf("expected valid compressed key, got %v", err)
	}
}

func TestValidateCompressedRejectsUncompressed(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 32)
	buf[31] = 7
	priv := btcec.PrivKeyFromBytes(buf)
	raw := priv.PubKey().SerializeUncompressed()

	if len(raw) != 65 {
		t.Fatalf("test setup: expected 65-byte uncompressed key, got %d", len(raw))
	}
	if _, err := ValidateCompressed(raw); err == nil {
		t.Fatalf("expected uncompressed key to be rejected")
	}
}

func TestValidateCompressedBoundaries(t *testing.T) {
	t.Parallel()

	mkKey := func(prefix byte, x [32]byte) []byte {
		out := make([]byte, 33)
		out[0] = prefix
		copy(out[1:], x[:])
		return out
	}

	zero := [32]byte{}
	atP := ecP
	belowP := ecP
	// EC_P - 1: decrement the last byte (no borrow needed, last byte
	// of EC_P is 0x2f).
	belowP[31]--

	tests := []struct {
		name    string
		raw     []byte
		wantErr bool
	}{
		{"wrong length", append(mkKey(0x02, zero), 0x00), true},
		{"bad prefix", mkKey(0x04, belowP), true},
		{"zero X", mkKey(0x02, zero), true},
		{"X equals EC_P", mkKey(0x02, atP), true},
		{"X is EC_P - 1", mkKey(0x02, belowP), false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ValidateCompressed(tc.raw)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestHasDuplicateKeys(t *testing.T) {
	t.Parallel()

	k1, err := ValidateCompressed(genCompressedKey(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	k2, err := ValidateCompressed(genCompressedKey(t, 2))
	if err != nil {
		t.Fatal(err)
	}
	k3, err := ValidateCompressed(genCompressedKey(t, 3))
	if err != nil {
		t.Fatal(err)
	}

	if HasDuplicateKeys([]PublicKey{k1, k2, k3}) {
		t.Fatalf("expected no duplicates")
	}
	if !HasDuplicateKeys([]PublicKey{k1, k2, k1}) {
		t.Fatalf("expected duplicate to be detected")
	}
}
