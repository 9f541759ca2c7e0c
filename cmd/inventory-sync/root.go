package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "inventory-sync",
		Short:         "Warehouse inventory reconciliation: Excel intake to Postgres",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newLoadCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
