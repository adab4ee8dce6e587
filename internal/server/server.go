package server

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/xueqianLu/ethtrader/internal/handler"
	"github.com/xueqianLu/ethtrader/internal/logger"
	"github.com/xueqianLu/ethtrader/internal/middleware"
	"go.uber.org/zap"
)

// Routes are the dependencies of the HTTP surface.
type Routes struct {
	Agent   handler.Agent
	State   func() fmt.Stringer
	Auth    *middleware.AuthMiddleware
	Metrics http.Handler
	Log     *zap.Logger
}

// NewRouter wires the handlers. Everything except health and metrics
// requires a signed request.
func NewRouter(r Routes) http.Handler {
	log := logger.OrNop(r.Log).Named("http")
	mux := http.NewServeMux()
	mux.Handle("/health", handler.NewHealthHandler(r.State, log))
	if r.Metrics != nil {
		mux.Handle("/metrics", r.Metrics)
	}
	mux.Handle("/info", r.Auth.Wrap(handler.NewInfoHandler(r.Agent, log)))
	mux.Handle("/swap", r.Auth.Wrap(handler.NewSwapHandler(r.Agent, log)))
	mux.Handle("/send", r.Auth.Wrap(handler.NewSendHandler(r.Agent, log)))
	mux.Handle("/sign-message", r.Auth.Wrap(handler.NewSignMessageHandler(r.Agent, log)))
	return middleware.Logging(log, mux)
}

// NewServer creates and configures an HTTP server. Write timeouts leave room
// for a swap, which makes several chain round-trips.
func NewServer(handler http.Handler, address, port string) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(address, port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
