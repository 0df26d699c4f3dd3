package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	arbitrageApp "github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/arbitrage-scanner/business/arbitrage/di"
	"github.com/fd1az/arbitrage-scanner/business/arbitrage/infra"
	"github.com/fd1az/arbitrage-scanner/internal/config"
)

// filterFlags are shared by opportunities and watch.
type filterFlags struct {
	minProfit string
	top       int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.minProfit, "min-profit", arbitrageApp.DefaultMinProfit.String(),
		"Minimum profit percentage, inclusive")
	cmd.Flags().IntVar(&f.top, "top", 0, "Show only the N most profitable opportunities")
}

// validate checks the flags before any network call.
func (f *filterFlags) validate(cmd *cobra.Command) error {
	if cmd.Flags().Changed("min-profit") {
		v, err := decimal.NewFromString(f.minProfit)
		if err != nil {
			return usageErrorf("invalid --min-profit %q: must be a number", f.minProfit)
		}
		if v.IsNegative() {
			return usageErrorf("invalid --min-profit %s: must be >= 0", f.minProfit)
		}
	}
	if cmd.Flags().Changed("top") && f.top <= 0 {
		return usageErrorf("invalid --top %d: must be > 0", f.top)
	}
	return nil
}

// filters resolves flags over the arbitrage config defaults.
func (f *filterFlags) filters(cmd *cobra.Command, cfg config.ArbitrageConfig) arbitrageApp.Filters {
	filters := arbitrageApp.Filters{MinProfit: cfg.MinProfitDecimal()}
	if cmd.Flags().Changed("min-profit") {
		filters.MinProfit = decimal.RequireFromString(f.minProfit)
	}

	top := cfg.Top
	if cmd.Flags().Changed("top") {
		top = f.top
	}
	if top > 0 {
		filters.Top = &top
	}
	return filters
}

func newOpportunitiesCommand(root *rootOptions) *cobra.Command {
	var (
		flags  filterFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "opportunities",
		Short: "Rank buy-low/sell-high opportunities across exchanges",
		Long: `Fetch every ticker from every enabled exchange once, keep the pairs listed on
all of them, and rank the spreads at or above the minimum profit.

Examples:
  arbitrage opportunities
  arbitrage opportunities --min-profit 0.5 --top 10`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(cmd); err != nil {
				return err
			}

			s, err := startSession(cmd.Context(), root, sessionOptions{logOut: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := s.commandContext(cmd.Context())
			defer cancel()

			fmt.Fprintln(cmd.ErrOrStderr(), "Searching for arbitrage opportunities...")

			scanner := arbitrageDI.GetScanner(s.app.Services())
			result, err := scanner.Execute(ctx, flags.filters(cmd, s.cfg.Arbitrage))
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			infra.WriteScanResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}
