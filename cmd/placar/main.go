package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/placar/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "placar",
		Short: "Placar - match-entry forms for sports championships",
		Long: `Placar serves live match-entry forms. Each form derives which inputs are
visible, required and read-only from its values and guards irreversible
transitions such as starting, declaring a tie and closing a match.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.DeriveCmd())
	rootCmd.AddCommand(cli.ReplayCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
