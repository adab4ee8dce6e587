package cmd

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"github.com/xueqianLu/ethtrader/pkg/client"
)

var remoteURL string

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Drive a running trader over its signed HTTP API",
}

func remoteClient() *client.Client {
	url := remoteURL
	if url == "" {
		host := cfg.Server.Address
		if host == "" {
			host = "127.0.0.1"
		}
		url = "http://" + net.JoinHostPort(host, cfg.Server.Port)
	}
	return client.NewClient(url, cfg.Auth.APIKey, cfg.Auth.APISecret)
}

var remoteHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show server and wallet state",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := remoteClient().Health(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var remoteInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the served wallet's status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := remoteClient().Info(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Address:      %s\n", resp.Address)
		fmt.Printf("Chain ID:     %d\n", resp.ChainID)
		fmt.Printf("Balance:      %s ETH\n", formatEther(resp.Balance))
		fmt.Printf("Gas price:    %s wei\n", resp.GasPrice)
		fmt.Printf("Block number: %d\n", resp.BlockNumber)
		return nil
	},
}

var remoteSwapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Buy a token through the served wallet",
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
		req := client.SwapRequest{Token: token.Hex(), AmountIn: amountIn.String()}
		if minOut, _ := cmd.Flags().GetString("min-out"); minOut != "" {
			v, err := parseWei(minOut)
			if err != nil {
				return err
			}
			req.MinAmountOut = v.String()
		}
		resp, err := remoteClient().Swap(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var remoteSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transfer native currency from the served wallet",
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
		resp, err := remoteClient().Send(cmd.Context(), client.SendRequest{To: to.Hex(), Amount: wei.String()})
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var remoteSignCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with the served wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := remoteClient().SignMessage(cmd.Context(), client.SignMessageRequest{Message: args[0]})
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	remoteCmd.PersistentFlags().StringVar(&remoteURL, "url", "", "trader base URL (default from server config)")

	remoteSwapCmd.Flags().String("token", "", "token contract address")
	remoteSwapCmd.Flags().StringP("amount", "a", "", "native amount to spend, in ether")
	remoteSwapCmd.Flags().String("min-out", "", "minimum tokens to receive, in base units")
	_ = remoteSwapCmd.MarkFlagRequired("token")
	_ = remoteSwapCmd.MarkFlagRequired("amount")

	remoteSendCmd.Flags().String("to", "", "recipient address")
	remoteSendCmd.Flags().StringP("amount", "a", "", "amount to send, in ether")
	_ = remoteSendCmd.MarkFlagRequired("to")
	_ = remoteSendCmd.MarkFlagRequired("amount")

	remoteCmd.AddCommand(remoteHealthCmd, remoteInfoCmd, remoteSwapCmd, remoteSendCmd, remoteSignCmd)
	rootCmd.AddCommand(remoteCmd)
}
