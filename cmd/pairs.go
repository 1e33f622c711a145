package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "Lists the tradable pairs with the fees of the configured 30 day volume",
}

func init() {
	pairsCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("pairs")
		defer logPanic(l, true)

		exchange, e := makeExchange(context.Background(), l, cfg, false)
		if e != nil {
			logger.Fatal(l, e)
		}
		pairs, e := exchange.GetTradablePairs()
		if e != nil {
			logger.Fatal(l, e)
		}
		fmt.Print(formatPairs(pairs))
	}
}

func formatPairs(pairs []model.TradablePair) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %-14s%-14s%10s%10s\n", "Pair", "Assets", "Taker", "Maker"))
	b.WriteString("  " + strings.Repeat("-", 48) + "\n")
	for _, p := range pairs {
		b.WriteString(fmt.Sprintf("  %-14s%-14s%9.2f%%%9.2f%%\n", p.Name, p.Pair.String(), p.TakerFee*100, p.MakerFee*100))
	}
	return b.String()
}
