// Package chain reads account and contract state from an EVM node and
// broadcasts signed transactions. Every call is a single round-trip; nothing
// is cached or retried.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/xueqianLu/ethtrader/internal/errno"
	"go.uber.org/zap"
)

// Client is the subset of node functionality the trader needs.
type Client interface {
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (uint64, error)
	Nonce(ctx context.Context, addr common.Address) (uint64, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
}

// RPCClient implements Client over JSON-RPC.
type RPCClient struct {
	ec  *ethclient.Client
	log *zap.Logger
}

var _ Client = (*RPCClient)(nil)

// Dial connects to the node at url.
func Dial(ctx context.Context, url string, log *zap.Logger) (*RPCClient, error) {
	ec, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %v: %w", url, err, errno.ErrTransport)
	}
	return NewRPCClient(ec, log), nil
}

// NewRPCClient wraps an existing ethclient.
func NewRPCClient(ec *ethclient.Client, log *zap.Logger) *RPCClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &RPCClient{ec: ec, log: log.Named("chain")}
}

func (c *RPCClient) Close() {
	c.ec.Close()
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, errno.ErrTransport)
}

func (c *RPCClient) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	bal, err := c.ec.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, transportErr("eth_getBalance", err)
	}
	return bal, nil
}

func (c *RPCClient) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.ec.SuggestGasPrice(ctx)
	if err != nil {
		return nil, transportErr("eth_gasPrice", err)
	}
	return price, nil
}

func (c *RPCClient) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.ec.BlockNumber(ctx)
	if err != nil {
		return 0, transportErr("eth_blockNumber", err)
	}
	return n, nil
}

func (c *RPCClient) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.ec.ChainID(ctx)
	if err != nil {
		return 0, transportErr("eth_chainId", err)
	}
	if !id.IsUint64() {
		return 0, fmt.Errorf("chain id %s out of range: %w", id, errno.ErrTransport)
	}
	return id.Uint64(), nil
}

// Nonce returns the pending transaction count, so a transaction still in the
// mempool is not reused.
func (c *RPCClient) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	n, err := c.ec.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, transportErr("eth_getTransactionCount", err)
	}
	return n, nil
}

func (c *RPCClient) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := c.ec.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, transportErr("eth_call", err)
	}
	return out, nil
}

// SendRawTransaction submits an encoded signed transaction. The node's hash
// is returned as is; a successful return only means the node accepted it.
func (c *RPCClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.ec.Client().CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, transportErr("eth_sendRawTransaction", err)
	}
	c.log.Debug("raw transaction accepted", zap.Stringer("hash", hash))
	return hash, nil
}
