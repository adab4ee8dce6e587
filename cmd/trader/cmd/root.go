package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xueqianLu/ethtrader/internal/config"
	"github.com/xueqianLu/ethtrader/internal/logger"
	"go.uber.org/zap"
)

var (
	cfgFile string
	cfg     config.Config
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Single-key EVM wallet agent",
	Long: `trader custodies one encrypted private key and uses it to query the chain,
send native currency and buy tokens through a Uniswap V2 style router.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.LoadConfig(cfgFile); err != nil {
			return err
		}
		if log, err = logger.New(cfg.App.Env); err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or ./config/config.yaml)")
}
