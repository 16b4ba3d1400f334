package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lborres/walletbind/pkg/wallet"
)

var messageNonce string

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Print the text a wallet must sign for a nonce",
	Args:  cobra.NoArgs,
	RunE:  runMessage,
}

func init() {
	messageCmd.Flags().StringVar(&messageNonce, "nonce", "", "Nonce to embed in the message")
	_ = messageCmd.MarkFlagRequired("nonce")
	rootCmd.AddCommand(messageCmd)
}

func runMessage(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := wallet.ValidateNonce(messageNonce); err != nil {
		return err
	}

	v := wallet.NewVerifier(wallet.Config{MessagePrefix: cfg.MessagePrefix})
	fmt.Fprint(cmd.OutOrStdout(), v.BuildSignableMessage(messageNonce))
	return nil
}
