package handler

import (
	"context"

	"github.com/xueqianLu/ethtrader/internal/agent"
)

// Agent is the request surface the handlers drive.
type Agent interface {
	Info(ctx context.Context) (*agent.InfoReport, error)
	Swap(ctx context.Context, req agent.Swap) (*agent.SwapReport, error)
	Send(ctx context.Context, req agent.Send) (*agent.SendReport, error)
	Sign(ctx context.Context, req agent.SignMessage) (*agent.SignatureReport, error)
}

// SwapRequest represents the request to buy a token with native currency.
// Amounts are decimal wei strings.
type SwapRequest struct {
	Token        string `json:"token"`
	AmountIn     string `json:"amountIn"`
	MinAmountOut string `json:"minAmountOut,omitempty"`
}

// SendRequest represents the request to transfer native currency.
type SendRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// SignMessageRequest represents the request to sign a message.
type SignMessageRequest struct {
	Message string `json:"message"`
}

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// HealthResponse reports liveness and the wallet lifecycle state.
type HealthResponse struct {
	Status string `json:"status"`
	Wallet string `json:"wallet,omitempty"`
}
