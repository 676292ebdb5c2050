package domain

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SwapTxIDKind tells how a parent chain encodes its transaction ids.
type SwapTxIDKind int

const (
	// SwapTxIDFixedHash32 is used by chains whose txid is a 32-byte hash.
	SwapTxIDFixedHash32 SwapTxIDKind = iota
	// SwapTxIDVariableHash is used by chains with any other id encoding.
	SwapTxIDVariableHash
)

// SwapTxID is the reference to an L1 transaction paying a swap. It is a
// closed union of a fixed 32-byte hash or a variable length byte sequence,
// the two can only be built with the constructors below.
type SwapTxID struct {
	kind  SwapTxIDKind
	fixed chainhash.Hash
	raw   []byte
}

// NewFixedSwapTxID returns a 32-byte txid.
func NewFixedSwapTxID(hash chainhash.Hash) SwapTxID {
	return SwapTxID{kind: SwapTxIDFixedHash32, fixed: hash}
}

// NewVariableSwapTxID returns a txid of arbitrary non-zero length.
func NewVariableSwapTxID(buf []byte) (SwapTxID, error) {
	if len(buf) <= 0 {
		return SwapTxID{}, ErrSwapMissingL1TxID
	}
	raw := make([]byte, len(buf))
	copy(raw, buf)
	return SwapTxID{kind: SwapTxIDVariableHash, raw: raw}, nil
}

// SwapTxIDFromBytes picks the variant by length: exactly 32 bytes make a
// fixed hash, anything else a variable one.
func SwapTxIDFromBytes(buf []byte) (SwapTxID, error) {
	if len(buf) == chainhash.HashSize {
		var hash chainhash.Hash
		copy(hash[:], buf)
		return NewFixedSwapTxID(hash), nil
	}
	return NewVariableSwapTxID(buf)
}

// SwapTxIDFromString decodes a hex string into a SwapTxID. The string is
// taken as is, no byte order reversal is applied.
func SwapTxIDFromString(str string) (SwapTxID, error) {
	buf, err := hex.DecodeString(str)
	if err != nil {
		return SwapTxID{}, fmt.Errorf("%w: %s", ErrInvalidL1TxID, err)
	}
	return SwapTxIDFromBytes(buf)
}

// Kind returns the variant of the txid.
func (t SwapTxID) Kind() SwapTxIDKind {
	return t.kind
}

// Bytes returns a copy of the underlying bytes.
func (t SwapTxID) Bytes() []byte {
	switch t.kind {
	case SwapTxIDFixedHash32:
		buf := make([]byte, chainhash.HashSize)
		copy(buf, t.fixed[:])
		return buf
	case SwapTxIDVariableHash:
		buf := make([]byte, len(t.raw))
		copy(buf, t.raw)
		return buf
	default:
		return nil
	}
}

// Equal returns whether the two txids are of the same kind and carry the
// same bytes.
func (t SwapTxID) Equal(other SwapTxID) bool {
	return t.kind == other.kind && bytes.Equal(t.Bytes(), other.Bytes())
}

func (t SwapTxID) String() string {
	return hex.EncodeToString(t.Bytes())
}

// IsZero returns whether the txid was never set.
func (t SwapTxID) IsZero() bool {
	switch t.kind {
	case SwapTxIDFixedHash32:
		return t.fixed == chainhash.Hash{}
	case SwapTxIDVariableHash:
		return len(t.raw) <= 0
	default:
		return true
	}
}
