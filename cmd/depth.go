package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

var depthCmd = &cobra.Command{
	Use:     "depth",
	Short:   "Prints the order book of a pair",
	Example: "  krakentools depth --pair XXBTZEUR --count 30",
}

func init() {
	pairName := depthCmd.Flags().StringP("pair", "p", "XXBTZEUR", "name or altname of the pair")
	count := depthCmd.Flags().Int32("count", 30, "number of levels per side")

	depthCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("depth")
		defer logPanic(l, true)

		exchange, e := makeExchange(context.Background(), l, cfg, false)
		if e != nil {
			logger.Fatal(l, e)
		}
		pairs, e := exchange.GetTradablePairs()
		if e != nil {
			logger.Fatal(l, e)
		}
		pair, e := findPair(pairs, *pairName)
		if e != nil {
			logger.Fatal(l, e)
		}

		book, e := exchange.GetOrderBook(*pair, *count)
		if e != nil {
			logger.Fatal(l, e)
		}
		fmt.Print(formatDepth(pair.Name, book))
	}
}

// formatDepth prints asks above bids, both with the best level next to the spread
func formatDepth(pairName string, book *model.OrderBook) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %s (%s)\n", pairName, book.Pair()))
	b.WriteString(fmt.Sprintf("  %-6s%20s%20s%20s\n", "Side", "Price", "Volume", "Cumulative"))
	b.WriteString("  " + strings.Repeat("-", 66) + "\n")

	asks := book.Asks()
	cumulative := make([]float64, len(asks))
	total := 0.0
	for i, o := range asks {
		total += o.Volume.AsFloat()
		cumulative[i] = total
	}
	for i := len(asks) - 1; i >= 0; i-- {
		b.WriteString(formatDepthLevel("ask", asks[i], cumulative[i]))
	}

	b.WriteString("  " + strings.Repeat("-", 66) + "\n")
	total = 0.0
	for _, o := range book.Bids() {
		total += o.Volume.AsFloat()
		b.WriteString(formatDepthLevel("bid", o, total))
	}
	return b.String()
}

func formatDepthLevel(side string, o model.Order, cumulative float64) string {
	return fmt.Sprintf("  %-6s%20s%20s%20.8f\n", side, o.Price.AsString(), o.Volume.AsString(), cumulative)
}
