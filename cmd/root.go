package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "kleos",
	Short: "Binary prediction market client",
	Long: `Client for binary prediction markets settled in a 6-decimal
stable token. Markets come in three variants: two-party challenge
escrows with fixed odds, constant-product AMMs, and LMSR AMMs.

The client quotes trades, sequences the approve/act/persist transaction
flows, derives market lifecycle state from contract reads, and keeps
descriptive metadata in sync with an off-chain bridge service. Oracle
resolution binds markets to FTSO price feeds by feed ID, threshold and
epoch.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Skip transaction confirmation prompts")
}
