package domain

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// ParentChain identifies the L1 chain a swap settles payment on.
type ParentChain int

const (
	ParentChainBTC ParentChain = iota
	ParentChainSignet
	ParentChainRegtest
	ParentChainBCH
	ParentChainLTC
)

// ParentChains lists every supported parent chain.
var ParentChains = []ParentChain{
	ParentChainBTC,
	ParentChainSignet,
	ParentChainRegtest,
	ParentChainBCH,
	ParentChainLTC,
}

// DefaultConfirmations returns the number of L1 confirmations required by a
// swap when its creator does not set one explicitly.
func (c ParentChain) DefaultConfirmations() uint32 {
	switch c {
	case ParentChainBTC:
		return 6
	case ParentChainSignet:
		return 3
	case ParentChainRegtest:
		return 1
	case ParentChainBCH:
		return 6
	case ParentChainLTC:
		return 4
	default:
		return 0
	}
}

func (c ParentChain) String() string {
	switch c {
	case ParentChainBTC:
		return "BTC"
	case ParentChainSignet:
		return "Signet"
	case ParentChainRegtest:
		return "Regtest"
	case ParentChainBCH:
		return "BCH"
	case ParentChainLTC:
		return "LTC"
	default:
		return fmt.Sprintf("ParentChain(%d)", int(c))
	}
}

// IsValid returns whether the chain belongs to the supported set.
func (c ParentChain) IsValid() bool {
	return c >= ParentChainBTC && c <= ParentChainLTC
}

// ParseParentChain is the case insensitive inverse of String.
func ParseParentChain(name string) (ParentChain, error) {
	for _, c := range ParentChains {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParentChain, name)
}

// ValidateAddress makes sure addr is usable as an address on the parent
// chain. Bitcoin-family chains are fully decoded against their network params,
// other chains only require a non empty value since their encodings are not
// understood by this node.
func (c ParentChain) ValidateAddress(addr string) error {
	if len(strings.TrimSpace(addr)) <= 0 {
		return ErrSwapMissingL1Recipient
	}

	params := c.params()
	if params == nil {
		return nil
	}

	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSwapInvalidL1Recipient, err)
	}
	if !decoded.IsForNet(params) {
		return fmt.Errorf(
			"%w: address is not for network %s", ErrSwapInvalidL1Recipient, params.Name,
		)
	}
	return nil
}

func (c ParentChain) params() *chaincfg.Params {
	switch c {
	case ParentChainBTC:
		return &chaincfg.MainNetParams
	case ParentChainSignet:
		return &chaincfg.SigNetParams
	case ParentChainRegtest:
		return &chaincfg.RegressionNetParams
	default:
		return nil
	}
}
