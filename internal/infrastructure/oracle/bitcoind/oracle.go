package bitcoind

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/pkg/circuitbreaker"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

const defaultRequestsPerSecond = 10

var (
	// ErrUnsupportedTxID is returned when observing a txid that is not a
	// 32-byte hash.
	ErrUnsupportedTxID = errors.New("txid must be a 32-byte hash")
	// ErrTxNotPayingAddress is returned when the observed transaction has no
	// output paying the expected address.
	ErrTxNotPayingAddress = errors.New("tx does not pay the given address")
)

// rpcNode is satisfied by *rpcclient.Client.
type rpcNode interface {
	GetBlockCount() (int64, error)
	GetRawTransactionVerbose(txHash *chainhash.Hash) (*btcjson.TxRawResult, error)
}

type Config struct {
	// Host is the host:port of the node's RPC server.
	Host              string
	User              string
	Password          string
	ParentChain       domain.ParentChain
	RequestsPerSecond int
}

// Oracle observes the parent chain through the JSON-RPC interface of a
// bitcoind-compatible node. Requests are rate limited and guarded by a
// circuit breaker.
type Oracle struct {
	client      *rpcclient.Client
	node        rpcNode
	parentChain domain.ParentChain
	limiter     ratelimit.Limiter
	cb          *gobreaker.CircuitBreaker
}

func NewOracle(cfg Config) (*Oracle, error) {
	if len(cfg.Host) <= 0 {
		return nil, fmt.Errorf("missing rpc host")
	}
	if !cfg.ParentChain.IsValid() {
		return nil, domain.ErrUnknownParentChain
	}

	client, err := rpcclient.New(&rpcclient.ConnConfig{
		HTTPPostMode: true,
		DisableTLS:   true,
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Password,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating %s rpc client: %w", cfg.ParentChain, err)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	return &Oracle{
		client:      client,
		node:        client,
		parentChain: cfg.ParentChain,
		limiter:     ratelimit.New(rps),
		cb:          circuitbreaker.NewCircuitBreaker(fmt.Sprintf("%s node", cfg.ParentChain)),
	}, nil
}

func (o *Oracle) ParentChain() domain.ParentChain {
	return o.parentChain
}

func (o *Oracle) GetBlockCount(ctx context.Context) (uint64, error) {
	res, err := o.call(ctx, func() (interface{}, error) {
		return o.node.GetBlockCount()
	})
	if err != nil {
		return 0, err
	}
	return uint64(res.(int64)), nil
}

// ObserveTransaction returns the number of confirmations of the given
// transaction and the amount it pays to address. A nil observation is
// returned if the node doesn't know the transaction yet.
func (o *Oracle) ObserveTransaction(
	ctx context.Context, txid domain.SwapTxID, address string,
) (*domain.L1Observation, error) {
	if txid.Kind() != domain.SwapTxIDFixedHash32 {
		return nil, ErrUnsupportedTxID
	}
	hash, err := chainhash.NewHashFromStr(txid.String())
	if err != nil {
		return nil, err
	}

	res, err := o.call(ctx, func() (interface{}, error) {
		tx, err := o.node.GetRawTransactionVerbose(hash)
		if err != nil {
			if isTxNotFoundErr(err) {
				return (*btcjson.TxRawResult)(nil), nil
			}
			return nil, err
		}
		return tx, nil
	})
	if err != nil {
		return nil, err
	}

	tx := res.(*btcjson.TxRawResult)
	if tx == nil {
		log.Debugf("%s tx %s not found", o.parentChain, hash)
		return nil, nil
	}

	amount, err := amountPaidTo(tx, address)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTxNotPayingAddress, address)
	}

	return &domain.L1Observation{
		TxID:          txid,
		Confirmations: uint32(tx.Confirmations),
		Amount:        &amount,
	}, nil
}

func (o *Oracle) Close() {
	if o.client != nil {
		o.client.Shutdown()
	}
}

func (o *Oracle) call(
	ctx context.Context, fn func() (interface{}, error),
) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.limiter.Take()
	return o.cb.Execute(fn)
}

func amountPaidTo(tx *btcjson.TxRawResult, address string) (uint64, error) {
	var total btcutil.Amount
	for _, out := range tx.Vout {
		if !paysTo(out.ScriptPubKey, address) {
			continue
		}
		value, err := btcutil.NewAmount(out.Value)
		if err != nil {
			return 0, err
		}
		total += value
	}
	return uint64(total), nil
}

// paysTo supports both the address field of recent nodes and the deprecated
// addresses list.
func paysTo(script btcjson.ScriptPubKeyResult, address string) bool {
	if len(address) <= 0 {
		return false
	}
	if script.Address == address {
		return true
	}
	for _, addr := range script.Addresses {
		if addr == address {
			return true
		}
	}
	return false
}

func isTxNotFoundErr(err error) bool {
	var rpcErr *btcjson.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == btcjson.ErrRPCInvalidAddressOrKey
}
