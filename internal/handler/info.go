package handler

import (
	"net/http"

	"github.com/xueqianLu/ethtrader/internal/logger"
	"go.uber.org/zap"
)

// InfoHandler reports the account balance and network status.
type InfoHandler struct {
	agent Agent
	log   *zap.Logger
}

func NewInfoHandler(a Agent, log *zap.Logger) *InfoHandler {
	return &InfoHandler{agent: a, log: logger.OrNop(log)}
}

// ServeHTTP implements the http.Handler interface.
func (h *InfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	rep, err := h.agent.Info(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, rep)
}
