package btcpk

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/gateway-chain/btc-trustee/chainerr"
)

// Address wraps a decoded Bitcoin address (P2SH or P2PKH -- the two kinds
// this coordinator ever needs to compare or sort by) so callers never have
// to reach past this package for hash/byte-serialized comparisons.
type Address struct {
	addr btcutil.Address
}

// Hash returns the 20-byte RIPEMD160(SHA256(...)) hash the address
// commits to.
func (a *Address) Hash() [20]byte {
	switch v := a.addr.(type) {
	case *btcutil.AddressScriptHash:
		return *v.Hash160()
	case *btcutil.AddressPubKeyHash:
		return *v.Hash160()
	default:
		return [20]byte{}
	}
}

// Bytes returns the base58check-encoded address, the canonical sort key
// for withdrawal-output comparisons.
func (a *Address) Bytes() []byte {
	return []byte(a.addr.EncodeAddress())
}

func (a *Address) String() string {
	return a.addr.EncodeAddress()
}

// ParseAddress decodes a base58check address, accepting only P2SH and
// P2PKH -- the address kinds a Bitcoin withdrawal can ever target.
func ParseAddress(base58 string, net *chaincfg.Params) (*Address, error) {
	addr, err := btcutil.DecodeAddress(base58, net)
	if err != nil {
		return nil, chainerr.ErrOutputAddrNotFound
	}
	switch addr.(type) {
	case *btcutil.AddressScriptHash, *btcutil.AddressPubKeyHash:
		return &Address{addr: addr}, nil
	default:
		return nil, chainerr.ErrOutputAddrNotFound
	}
}

// ParseOutputAddress recovers the destination address of a transaction
// output directly from its script_pubkey. Bitcoin script codecs are
// assumed available as a library (this package uses txscript directly)
// rather than crossing an external collaborator boundary.
func ParseOutputAddress(pkScript []byte, net *chaincfg.Params) (*Address, error) {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, net)
	if err != nil || len(addrs) != 1 {
		return nil, chainerr.ErrOutputAddrNotFound
	}
	switch class {
	case txscript.ScriptHashTy, txscript.PubKeyHashTy:
		return &Address{addr: addrs[0]}, nil
	default:
		return nil, chainerr.ErrOutputAddrNotFound
	}
}

// NewP2SHAddress derives the P2SH address committing to redeemScript:
// hash = RIPEMD160(SHA256(redeemScript)).
func NewP2SHAddress(redeemScript []byte, net *chaincfg.Params) (*Address, error) {
	addr, err := btcutil.NewAddressScriptHash(redeemScript, net)
	if err != nil {
		return nil, chainerr.ErrGenerateMultisigFailed
	}
	return &Address{addr: addr}, nil
}

// AddrInfo is the persisted form of a derived multisig address: the
// base58-encoded address bytes plus the redeem script they commit to.
// AddrInfo owns its bytes; a TrusteeSession stores it verbatim and callers
// derive an Address value on each read.
type AddrInfo struct {
	AddrBytes    []byte
	RedeemScript []byte
}

// Address re-derives the Address value from the stored bytes.
func (a AddrInfo) Address(net *chaincfg.Params) (*Address, error) {
	return ParseAddress(string(a.AddrBytes), net)
}

// BuildAddrInfo builds the multisig redeem script for keys/m and derives
// its P2SH AddrInfo in one step. Fails with ErrGenerateMultisigFailed if
// m/n are out of range.
func BuildAddrInfo(keys []PublicKey, m int, net *chaincfg.Params) (AddrInfo, error) {
	script, err := BuildRedeemScript(keys, m)
	if err != nil {
		return AddrInfo{}, err
	}
	addr, err := NewP2SHAddress(script, net)
	if err != nil {
		return AddrInfo{}, err
	}
	return AddrInfo{AddrBytes: addr.Bytes(), RedeemScript: script}, nil
}
