package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fd1az/arbitrage-scanner/business/pricing/app"
	pricingDI "github.com/fd1az/arbitrage-scanner/business/pricing/di"
	"github.com/fd1az/arbitrage-scanner/internal/asset"
)

var headingStyle = lipgloss.NewStyle().Bold(true)

func newPriceCommand(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "price <PAIR>",
		Short: "Find the lowest and highest price of a pair across exchanges",
		Long: `Fetch the latest price of one trading pair from every enabled exchange and
report where it is cheapest and most expensive.

Examples:
  arbitrage price BTC/USDT
  arbitrage price eth/btc --json`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := asset.ParsePair(args[0])
			if err != nil {
				return usageError(err)
			}

			s, err := startSession(cmd.Context(), root, sessionOptions{logOut: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := s.commandContext(cmd.Context())
			defer cancel()

			fmt.Fprintf(cmd.ErrOrStderr(), "Fetching prices for %s...\n", pair)

			result, err := pricingDI.GetBestPrice(s.app.Services()).Execute(ctx, pair.String())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			writeBestPrice(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func writeBestPrice(w io.Writer, r *app.BestPriceResult) {
	rule := strings.Repeat("=", 55)
	const timeLayout = "2006-01-02 15:04:05"

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Best prices for %s\n", r.Pair)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintln(w, headingStyle.Render("Lowest Price:"))
	fmt.Fprintf(w, "  Exchange:  %s\n", r.Min.Source)
	fmt.Fprintf(w, "  Price:     %s\n", r.Min.Price.String())
	fmt.Fprintf(w, "  Time:      %s\n", r.Min.ObservedAt.Local().Format(timeLayout))
	fmt.Fprintln(w)

	fmt.Fprintln(w, headingStyle.Render("Highest Price:"))
	fmt.Fprintf(w, "  Exchange:  %s\n", r.Max.Source)
	fmt.Fprintf(w, "  Price:     %s\n", r.Max.Price.String())
	fmt.Fprintf(w, "  Time:      %s\n", r.Max.ObservedAt.Local().Format(timeLayout))
	fmt.Fprintln(w)

	fmt.Fprintln(w, headingStyle.Render("Price Difference:"))
	fmt.Fprintf(w, "  Absolute:  %s\n", r.Difference.Absolute.String())
	fmt.Fprintf(w, "  Percent:   %s%%\n", r.Difference.Percent.StringFixed(2))
	fmt.Fprintln(w)

	fmt.Fprintln(w, headingStyle.Render("Statistics:"))
	fmt.Fprintf(w, "  Exchanges checked: %d\n", r.SourcesChecked)
	if len(r.FailedSources) > 0 {
		fmt.Fprintf(w, "  Failed exchanges: %s\n", strings.Join(r.FailedSources, ", "))
	}
	fmt.Fprintln(w, rule)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
