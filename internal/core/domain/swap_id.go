package domain

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SwapIDSize is the length in bytes of a SwapID.
const SwapIDSize = chainhash.HashSize

// SwapID uniquely identifies a swap. It is derived from the outpoints consumed
// by the transaction that creates the swap, therefore it cannot be known
// before the inputs of that transaction are chosen and never needs any
// coordination to be unique.
type SwapID [SwapIDSize]byte

// NewSwapID mints the id of a swap created by a transaction spending the
// given outpoints, in transaction input order.
func NewSwapID(inputs []Outpoint) (SwapID, error) {
	if len(inputs) <= 0 {
		return SwapID{}, ErrSwapMissingInputs
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(inputs)*(chainhash.HashSize+4)))
	for _, in := range inputs {
		hash, err := in.Hash()
		if err != nil {
			return SwapID{}, err
		}
		buf.Write(hash[:])

		var vout [4]byte
		binary.LittleEndian.PutUint32(vout[:], in.VOut)
		buf.Write(vout[:])
	}

	return SwapID(chainhash.DoubleHashH(buf.Bytes())), nil
}

// SwapIDFromString parses the hex representation returned by String.
func SwapIDFromString(str string) (SwapID, error) {
	buf, err := hex.DecodeString(str)
	if err != nil {
		return SwapID{}, fmt.Errorf("%w: %s", ErrInvalidSwapID, err)
	}
	if len(buf) != SwapIDSize {
		return SwapID{}, fmt.Errorf(
			"%w: expected %d bytes, got %d", ErrInvalidSwapID, SwapIDSize, len(buf),
		)
	}

	var id SwapID
	copy(id[:], buf)
	return id, nil
}

func (id SwapID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero returns whether the id was never minted.
func (id SwapID) IsZero() bool {
	return id == SwapID{}
}
