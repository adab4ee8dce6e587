package handler

import (
	"fmt"
	"net/http"

	"github.com/xueqianLu/ethtrader/internal/logger"
	"go.uber.org/zap"
)

// HealthHandler handles health checks.
type HealthHandler struct {
	state func() fmt.Stringer
	log   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. state reports the wallet
// lifecycle state and may be nil.
func NewHealthHandler(state func() fmt.Stringer, log *zap.Logger) *HealthHandler {
	return &HealthHandler{state: state, log: logger.OrNop(log)}
}

// ServeHTTP implements the http.Handler interface.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.state != nil {
		resp.Wallet = h.state().String()
	}
	writeJSON(w, h.log, http.StatusOK, resp)
}
