package agent

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/xueqianLu/ethtrader/internal/contracts"
	"github.com/xueqianLu/ethtrader/internal/oracle"
)

// Request is one of Info, Swap, Send or SignMessage.
type Request interface {
	Kind() string
}

const (
	KindInfo        = "info"
	KindSwap        = "swap"
	KindSend        = "send"
	KindSignMessage = "sign-message"
)

// Info asks for the account and network status.
type Info struct{}

// Swap buys Token with AmountIn wei of native currency. MinAmountOut is
// optional; when nil the configured slippage policy decides the bound.
type Swap struct {
	Token        common.Address
	AmountIn     *big.Int
	MinAmountOut *big.Int
}

// Send transfers Amount wei to To.
type Send struct {
	To     common.Address
	Amount *big.Int
}

// SignMessage produces an EIP-191 personal signature over Message.
type SignMessage struct {
	Message []byte
}

func (Info) Kind() string        { return KindInfo }
func (Swap) Kind() string        { return KindSwap }
func (Send) Kind() string        { return KindSend }
func (SignMessage) Kind() string { return KindSignMessage }

type InfoReport struct {
	Address     common.Address `json:"address"`
	ChainID     uint64         `json:"chain_id"`
	Balance     *big.Int       `json:"balance"`
	GasPrice    *big.Int       `json:"gas_price"`
	BlockNumber uint64         `json:"block_number"`
}

type SwapReport struct {
	Token        contracts.TokenInfo `json:"token"`
	Pair         common.Address      `json:"pair"`
	Price        oracle.PriceQuote   `json:"price"`
	AmountIn     *big.Int            `json:"amount_in"`
	MinAmountOut *big.Int            `json:"min_amount_out"`
	Deadline     uint64              `json:"deadline"`
	Nonce        uint64              `json:"nonce"`
	GasPrice     *big.Int            `json:"gas_price"`
	TxHash       common.Hash         `json:"tx_hash"`
}

type SendReport struct {
	To       common.Address `json:"to"`
	Amount   *big.Int       `json:"amount"`
	Nonce    uint64         `json:"nonce"`
	GasPrice *big.Int       `json:"gas_price"`
	TxHash   common.Hash    `json:"tx_hash"`
}

type SignatureReport struct {
	Address   common.Address `json:"address"`
	Signature hexutil.Bytes  `json:"signature"`
}
