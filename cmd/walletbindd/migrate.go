package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pgxadapter "github.com/lborres/walletbind/adapters/pgx"
	"github.com/lborres/walletbind/core"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("%w: database url is required", core.ErrMisconfigured)
	}

	pool, err := pgxadapter.Connect(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pgxadapter.Migrate(cmd.Context(), pool); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
	return nil
}
