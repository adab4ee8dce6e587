package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xueqianLu/ethtrader/internal/errno"
	"github.com/xueqianLu/ethtrader/internal/metrics"
	"github.com/xueqianLu/ethtrader/internal/middleware"
	"github.com/xueqianLu/ethtrader/internal/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Unlock the wallet and serve the signed HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Auth.APIKey == "" || cfg.Auth.APISecret == "" {
			return fmt.Errorf("auth.api_key and auth.api_secret must be set to serve: %w", errno.ErrConfig)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		kr, err := unlockedKeyring(ctx)
		if err != nil {
			return err
		}
		m := metrics.New()
		a, closeClient, err := newAgent(ctx, kr, m)
		if err != nil {
			return err
		}
		defer closeClient()

		router := server.NewRouter(server.Routes{
			Agent:   a,
			State:   func() fmt.Stringer { return kr.State() },
			Auth:    middleware.NewAuthMiddleware(cfg.Auth.APIKey, cfg.Auth.APISecret),
			Metrics: m.Handler(),
			Log:     log,
		})
		srv := server.NewServer(router, cfg.Server.Address, cfg.Server.Port)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			err := a.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			log.Info("server starting", zap.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("could not listen on %s: %w", srv.Addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("server shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
