// Package registry maps chain ids to the contract addresses the trader uses.
package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

// Contracts are the per-chain addresses of the native wrapper token and the
// V2 factory and router.
type Contracts struct {
	WETH    common.Address
	Factory common.Address
	Router  common.Address
}

// SepoliaChainID is the default network.
const SepoliaChainID uint64 = 11155111

// Sepolia holds the Uniswap V2 deployment on Sepolia.
var Sepolia = Contracts{
	WETH:    common.HexToAddress("0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9"),
	Factory: common.HexToAddress("0x7E0987E5b3a30e3f2828572Bb659A548460a3003"),
	Router:  common.HexToAddress("0xC532a74256D3Db42D0Bf7a0400fEFDbad7694008"),
}

// Registry is a read-only chain id lookup. It is built once and shared.
type Registry struct {
	chains map[uint64]Contracts
}

// New copies entries into a registry. Every address must be non-zero.
func New(entries map[uint64]Contracts) (*Registry, error) {
	chains := make(map[uint64]Contracts, len(entries))
	for id, c := range entries {
		if c.WETH == (common.Address{}) || c.Factory == (common.Address{}) || c.Router == (common.Address{}) {
			return nil, fmt.Errorf("chain %d: incomplete contract addresses: %w", id, errno.ErrConfig)
		}
		chains[id] = c
	}
	return &Registry{chains: chains}, nil
}

// Default returns a registry holding only Sepolia.
func Default() *Registry {
	return &Registry{chains: map[uint64]Contracts{SepoliaChainID: Sepolia}}
}

// Lookup returns the contracts for chainID.
func (r *Registry) Lookup(chainID uint64) (Contracts, error) {
	c, ok := r.chains[chainID]
	if !ok {
		return Contracts{}, fmt.Errorf("no contracts registered for chain %d: %w", chainID, errno.ErrConfig)
	}
	return c, nil
}
