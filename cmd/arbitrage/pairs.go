package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fd1az/arbitrage-scanner/business/pricing/app"
	pricingDI "github.com/fd1az/arbitrage-scanner/business/pricing/di"
)

func newPairsCommand(root *rootOptions) *cobra.Command {
	var (
		refresh bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "List the trading pairs common to every enabled exchange",
		Long: `Print the cached common pair catalog, resolving it on a cache miss.

Examples:
  arbitrage pairs
  arbitrage pairs --refresh`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSession(cmd.Context(), root, sessionOptions{logOut: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := s.commandContext(cmd.Context())
			defer cancel()

			catalog := pricingDI.GetPairCatalog(s.app.Services())
			if refresh {
				if err := catalog.Forget(ctx); err != nil {
					return err
				}
			}

			pairs, err := catalog.ResolveCommonPairs(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), pairs)
			}

			out := cmd.OutOrStdout()
			for _, p := range pairs {
				fmt.Fprintln(out, p)
			}
			sources := app.SourceNames(pricingDI.GetSources(s.app.Services()))
			fmt.Fprintf(out, "%d common pairs across %d exchanges.\n", len(pairs), len(sources))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Drop the cached catalog and resolve it again")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the pairs as JSON")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "arbitrage-scanner %s (commit: %s, built: %s)\n", version, commit, buildDate)
		},
	}
}
