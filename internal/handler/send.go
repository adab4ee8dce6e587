package handler

import (
	"net/http"

	"github.com/xueqianLu/ethtrader/internal/agent"
	"github.com/xueqianLu/ethtrader/internal/logger"
	"go.uber.org/zap"
)

// SendHandler transfers native currency from the wallet.
type SendHandler struct {
	agent Agent
	log   *zap.Logger
}

func NewSendHandler(a Agent, log *zap.Logger) *SendHandler {
	return &SendHandler{agent: a, log: logger.OrNop(log)}
}

// ServeHTTP implements the http.Handler interface.
func (h *SendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	var body SendRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}
	to, err := parseAddress("to", body.To)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	amount, err := parseWei("amount", body.Amount)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	rep, err := h.agent.Send(r.Context(), agent.Send{To: to, Amount: amount})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, rep)
}
