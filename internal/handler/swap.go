package handler

import (
	"net/http"

	"github.com/xueqianLu/ethtrader/internal/agent"
	"github.com/xueqianLu/ethtrader/internal/logger"
	"go.uber.org/zap"
)

// SwapHandler buys a token with native currency through the V2 router.
type SwapHandler struct {
	agent Agent
	log   *zap.Logger
}

func NewSwapHandler(a Agent, log *zap.Logger) *SwapHandler {
	return &SwapHandler{agent: a, log: logger.OrNop(log)}
}

// ServeHTTP implements the http.Handler interface.
func (h *SwapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	var body SwapRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}
	req, err := body.toAgent()
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	rep, err := h.agent.Swap(r.Context(), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, rep)
}

func (b SwapRequest) toAgent() (agent.Swap, error) {
	var req agent.Swap
	token, err := parseAddress("token", b.Token)
	if err != nil {
		return req, err
	}
	amountIn, err := parseWei("amountIn", b.AmountIn)
	if err != nil {
		return req, err
	}
	req = agent.Swap{Token: token, AmountIn: amountIn}
	if b.MinAmountOut != "" {
		if req.MinAmountOut, err = parseWei("minAmountOut", b.MinAmountOut); err != nil {
			return agent.Swap{}, err
		}
	}
	return req, nil
}
