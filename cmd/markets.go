package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List all markets",
	Long: `List every market the factory has deployed, in creation order,
with its derived lifecycle state and display title. Titles come from
the metadata bridge; markets without a stored question show a numbered
placeholder.`,
	RunE: runMarkets,
}

func init() {
	rootCmd.AddCommand(marketsCmd)
}

func runMarkets(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := newStack(ctx, false)
	if err != nil {
		return err
	}
	defer s.close()

	views, err := s.views.Markets(ctx, s.client.From())
	if err != nil {
		return fmt.Errorf("list markets: %w", err)
	}

	if len(views) == 0 {
		fmt.Printf("No markets deployed.\n")
		return nil
	}

	fmt.Printf("%-5s %-42s %-16s %-20s %s\n", "IDX", "ADDRESS", "TYPE", "STATE", "TITLE")
	for _, v := range views {
		fmt.Printf("%-5d %-42s %-16s %-20s %s\n",
			v.Snapshot.Index,
			v.Snapshot.Address.Hex(),
			v.Snapshot.Type.String(),
			v.State.String(),
			v.Title)
	}
	fmt.Printf("\n%d market(s)\n", len(views))

	return nil
}
