package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Outpoint references an output of a sidechain transaction.
type Outpoint struct {
	TxID string
	VOut uint32
}

// OutpointFromString parses the txid:vout representation returned by String.
func OutpointFromString(str string) (Outpoint, error) {
	parts := strings.Split(str, ":")
	if len(parts) != 2 {
		return Outpoint{}, fmt.Errorf("%w: %q", ErrInvalidOutpoint, str)
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Outpoint{}, fmt.Errorf("%w: %s", ErrInvalidOutpoint, err)
	}

	op := Outpoint{TxID: parts[0], VOut: uint32(vout)}
	if _, err := op.Hash(); err != nil {
		return Outpoint{}, err
	}
	return op, nil
}

// Hash returns the txid of the outpoint as a chainhash.
func (o Outpoint) Hash() (*chainhash.Hash, error) {
	if len(o.TxID) != chainhash.MaxHashStringSize {
		return nil, fmt.Errorf("%w: txid must be %d hex chars", ErrInvalidOutpoint, chainhash.MaxHashStringSize)
	}
	hash, err := chainhash.NewHashFromStr(o.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOutpoint, err)
	}
	return hash, nil
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.VOut)
}

// Utxo is an unspent sidechain output along with the info required to spend
// it in a new transaction. Script is the output script of the utxo.
type Utxo struct {
	Outpoint Outpoint
	Value    uint64
	Script   []byte
}

// OutputLock encumbers an output to a swap. While the lock exists the output
// can be spent only by the claim transaction of that swap.
type OutputLock struct {
	Outpoint Outpoint
	SwapID   SwapID
	Value    uint64
}

// SpentInput records that an output was consumed by the creation transaction
// of a swap.
type SpentInput struct {
	Outpoint Outpoint
	SwapID   SwapID
}
