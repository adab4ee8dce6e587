package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/xueqianLu/ethtrader/internal/agent"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

// runLocal unlocks the wallet, executes one request against the configured
// node and prints the report.
func runLocal(cmd *cobra.Command, req agent.Request) error {
	ctx := cmd.Context()
	kr, err := unlockedKeyring(ctx)
	if err != nil {
		return err
	}
	a, closeClient, err := newAgent(ctx, kr, nil)
	if err != nil {
		return err
	}
	defer closeClient()

	report, err := a.Handle(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	s, _ := cmd.Flags().GetString(name)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q: %w", name, s, errno.ErrBadRequest)
	}
	return common.HexToAddress(s), nil
}

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Unlock the wallet and print its address",
	RunE: func(cmd *cobra.Command, args []string) error {
		kr, err := unlockedKeyring(cmd.Context())
		if err != nil {
			return err
		}
		w, err := kr.Wallet()
		if err != nil {
			return err
		}
		fmt.Println(w.Address().Hex())
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show address, chain, balance, gas price and block height",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocal(cmd, agent.Info{})
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Buy a token with native currency through the router",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := addressFlag(cmd, "token")
		if err != nil {
			return err
		}
		amount, _ := cmd.Flags().GetString("amount")
		amountIn, err := parseEther(amount)
		if err != nil {
			return err
		}
		req := agent.Swap{Token: token, AmountIn: amountIn}
		if minOut, _ := cmd.Flags().GetString("min-out"); minOut != "" {
			if req.MinAmountOut, err = parseWei(minOut); err != nil {
				return err
			}
		}
		return runLocal(cmd, req)
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transfer native currency",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := addressFlag(cmd, "to")
		if err != nil {
			return err
		}
		amount, _ := cmd.Flags().GetString("amount")
		wei, err := parseEther(amount)
		if err != nil {
			return err
		}
		return runLocal(cmd, agent.Send{To: to, Amount: wei})
	},
}

var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with the wallet key (EIP-191)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocal(cmd, agent.SignMessage{Message: []byte(args[0])})
	},
}

func init() {
	swapCmd.Flags().String("token", "", "token contract address")
	swapCmd.Flags().StringP("amount", "a", "", "native amount to spend, in ether")
	swapCmd.Flags().String("min-out", "", "minimum tokens to receive, in base units (default: slippage policy)")
	_ = swapCmd.MarkFlagRequired("token")
	_ = swapCmd.MarkFlagRequired("amount")

	sendCmd.Flags().String("to", "", "recipient address")
	sendCmd.Flags().StringP("amount", "a", "", "amount to send, in ether")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")

	rootCmd.AddCommand(addressCmd, infoCmd, swapCmd, sendCmd, signCmd)
}
