package btcpk

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
)

func genKeys(t *testing.T, n int) []PublicKey {
	t.Helper()

	keys := make([]PublicKey, n)
	for i := 0; i < n; i++ {
		k, err := ValidateCompressed(genCompressedKey(t, byte(i+1)))
		if err != nil {
			t.Fatalf("unable to generate key %d: %v", i, err)
		}
		keys[i] = k
	}
	return keys
}

// TestBuildRedeemScriptShape asserts P1: for every trustee count in
// [1,15] with m = two_thirds(n), the script starts with OP_M, ends with
// OP_N OP_CHECKMULTISIG, and contains each key exactly once in order.
func TestBuildRedeemScriptShape(t *testing.T) {
	t.Parallel()

	for n := 1; n <= MaxTrustees; n++ {
		n := n
		m := (2*n + 2) / 3
		t.Run("", func(t *testing.T) {
			t.Parallel()

			keys := genKeys(t, n)
			script, err := BuildRedeemScript(keys, m)
			if err != nil {
				t.Fatalf("n=%d m=%d: unexpected error: %v", n, m, err)
			}

			if script[0] != txscript.OP_1+byte(m-1) {
				t.Fatalf("n=%d m=%d: wrong leading opcode %#x", n, m, script[0])
			}
			if script[len(script)-1] != txscript.OP_CHECKMULTISIG {
				t.Fatalf("n=%d: script doesn't end in OP_CHECKMULTISIG", n)
			}
			// Each 33-byte key is pushed as a single OP_DATA_33 (1
			// length-prefix byte + 33 data bytes); OP_N directly
			// precedes the final OP_CHECKMULTISIG.
			opN := script[1+n*34]
			if opN != txscript.OP_1+byte(n-1) {
				t.Fatalf("n=%d: wrong OP_N %#x", n, opN)
			}

			pushed, err := txscript.PushedData(script)
			if err != nil {
				t.Fatalf("unable to extract pushed data: %v", err)
			}
			if len(pushed) != n {
				t.Fatalf("n=%d: expected %d pushed keys, got %d", n, n, len(pushed))
			}
			for i, key := range keys {
				if string(pushed[i]) != string(key.Bytes()) {
					t.Fatalf("n=%d: key %d not in order", n, i)
				}
			}
		})
	}
}

// TestTwoThirdsTable asserts P2.
func TestTwoThirdsTable(t *testing.T) {
	t.Parallel()

	cases := map[int]int{4: 3, 5: 4, 6: 4, 7: 5, 10: 7, 15: 10}
	for n, want := range cases {
		got := (2*n + 2) / 3
		if got != want {
			t.Errorf("two_thirds(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestBuildRedeemScriptRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	keys := genKeys(t, 3)

	if _, err := BuildRedeemScript(keys, 4); err == nil {
		t.Fatalf("expected error when m > n")
	}
	if _, err := BuildRedeemScript(genKeys(t, 16), 11); err == nil {
		t.Fatalf("expected error when n > 15")
	}
	if _, err := BuildRedeemScript(keys, 0); err == nil {
		t.Fatalf("expected error when m < 1")
	}
}
