package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var mintCmd = &cobra.Command{
	Use:   "mint <amount>",
	Short: "Mint test tokens to your address",
	Long: `Call the settlement token's faucet. Only works on test
deployments where the token exposes a public mint.`,
	Args: cobra.ExactArgs(1),
	RunE: runMint,
}

func init() {
	rootCmd.AddCommand(mintCmd)
}

func runMint(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	amount, err := parseTokenAmount(args[0])
	if err != nil {
		return err
	}

	s, err := newStack(ctx, true)
	if err != nil {
		return err
	}
	defer s.close()

	fmt.Printf("Minting %s to %s...\n", formatTokenAmount(amount), s.client.From().Hex())

	tx, err := s.token.Mint(ctx, s.client.From(), amount)
	if err != nil {
		return err
	}
	if _, err := s.client.WaitForReceipt(ctx, tx); err != nil {
		return err
	}

	fmt.Printf("Mint complete!\n")
	fmt.Printf("  TX: %s\n", tx.Hex())

	return nil
}
