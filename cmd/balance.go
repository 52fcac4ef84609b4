package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show your token balance and factory allowance",
	RunE:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := newStack(ctx, true)
	if err != nil {
		return err
	}
	defer s.close()

	owner := s.client.From()
	balance, err := s.token.Balance(ctx, owner)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	allowance, err := s.views.Allowance(ctx, owner, s.factory.Address())
	if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}

	fmt.Printf("Address:            %s\n", owner.Hex())
	fmt.Printf("Balance:            %s\n", formatTokenAmount(balance))
	fmt.Printf("Factory allowance:  %s\n", formatTokenAmount(allowance))

	return nil
}
