package swap

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/vulpemventures/go-elements/address"
	"github.com/vulpemventures/go-elements/elementsutil"
	"github.com/vulpemventures/go-elements/network"
	"github.com/vulpemventures/go-elements/transaction"
)

const txVersion = 2

var swapLockTag = []byte("swap")

// SwapLockScript returns the output script of the value-bearing output of a
// swap creation transaction. The script commits to the swap id, it's the
// output lock index that restricts who can spend it.
func SwapLockScript(id domain.SwapID) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(swapLockTag).
		AddData(id[:]).
		AddOp(txscript.OP_2DROP).
		AddOp(txscript.OP_TRUE).
		Script()
}

// ParseSwapLockScript returns the id of the swap the given output script is
// locked to, if any.
func ParseSwapLockScript(script []byte) (domain.SwapID, bool) {
	tokenizer := txscript.MakeScriptTokenizer(0, script)

	pushes := make([][]byte, 0, 2)
	ops := make([]byte, 0, 2)
	for tokenizer.Next() {
		if data := tokenizer.Data(); data != nil {
			pushes = append(pushes, data)
			continue
		}
		ops = append(ops, tokenizer.Opcode())
	}
	if tokenizer.Err() != nil {
		return domain.SwapID{}, false
	}

	if len(pushes) != 2 || len(ops) != 2 ||
		!bytes.Equal(pushes[0], swapLockTag) ||
		len(pushes[1]) != domain.SwapIDSize ||
		ops[0] != txscript.OP_2DROP || ops[1] != txscript.OP_TRUE {
		return domain.SwapID{}, false
	}

	var id domain.SwapID
	copy(id[:], pushes[1])
	return id, true
}

// AssetFromHex returns the explicit asset prefixed serialization of the given
// asset id.
func AssetFromHex(asset string) ([]byte, error) {
	buf, err := hex.DecodeString(asset)
	if err != nil || len(buf) != chainhash.HashSize {
		return nil, ErrInvalidL2Asset
	}
	return append([]byte{0x01}, elementsutil.ReverseBytes(buf)...), nil
}

func l2OutputScript(addr string, net *network.Network) ([]byte, error) {
	addrNet, err := address.NetworkForAddress(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidL2Recipient, err)
	}
	if addrNet.Name != net.Name {
		return nil, fmt.Errorf(
			"%w: address is for network %s, expected %s",
			ErrInvalidL2Recipient, addrNet.Name, net.Name,
		)
	}
	script, err := address.ToOutputScript(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidL2Recipient, err)
	}
	return script, nil
}

// checkWitnessUtxos makes sure that all the given utxos are locked by
// witness programs. Spending them leaves the scriptSig of every input empty,
// so the txid of an unsigned transaction is the one of the signed one.
func checkWitnessUtxos(utxos []domain.Utxo) error {
	for _, u := range utxos {
		if !txscript.IsWitnessProgram(u.Script) {
			return fmt.Errorf("%w: %s", ErrNonWitnessInput, u.Outpoint)
		}
	}
	return nil
}

func newTxInput(outpoint domain.Outpoint) (*transaction.TxInput, error) {
	hash, err := outpoint.Hash()
	if err != nil {
		return nil, err
	}
	return transaction.NewTxInput(hash[:], outpoint.VOut), nil
}

func newTxOutput(asset []byte, value uint64, script []byte) (*transaction.TxOutput, error) {
	val, err := elementsutil.ValueToBytes(value)
	if err != nil {
		return nil, err
	}
	return transaction.NewTxOutput(asset, val, script), nil
}

func outpointsFromUtxos(utxos []domain.Utxo) []domain.Outpoint {
	outpoints := make([]domain.Outpoint, 0, len(utxos))
	for _, u := range utxos {
		outpoints = append(outpoints, u.Outpoint)
	}
	return outpoints
}
