package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lborres/walletbind/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "walletbindd",
	Short:         "Wallet sign-in and account binding service",
	Long:          "walletbindd serves wallet signature sign-in, binds Ethereum wallets to email identities and issues sessions.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func loadConfig() (config.File, error) {
	return config.Load(configPath)
}
