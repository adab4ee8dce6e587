package handler

import (
	"net/http"

	"github.com/xueqianLu/ethtrader/internal/agent"
	"github.com/xueqianLu/ethtrader/internal/logger"
	"go.uber.org/zap"
)

// SignMessageHandler handles message signing requests.
type SignMessageHandler struct {
	agent Agent
	log   *zap.Logger
}

// NewSignMessageHandler creates a new SignMessageHandler.
func NewSignMessageHandler(a Agent, log *zap.Logger) *SignMessageHandler {
	return &SignMessageHandler{agent: a, log: logger.OrNop(log)}
}

// ServeHTTP implements the http.Handler interface.
func (h *SignMessageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	var req SignMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	rep, err := h.agent.Sign(r.Context(), agent.SignMessage{Message: []byte(req.Message)})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, rep)
}
