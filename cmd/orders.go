package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Lists the open orders of the account",
}

func init() {
	ordersCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("orders")
		defer logPanic(l, true)

		exchange, e := makeExchange(context.Background(), l, cfg, true)
		if e != nil {
			logger.Fatal(l, e)
		}
		orders, e := exchange.GetOpenOrders()
		if e != nil {
			logger.Fatal(l, e)
		}
		fmt.Print(formatOpenOrders(orders))
	}
}

func formatOpenOrders(orders []model.OpenOrder) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %-10s%-6s%-8s%18s%18s%18s  %-22s%-8s\n", "Pair", "Type", "Order", "Price", "Volume", "Executed", "ID", "Status"))
	b.WriteString("  " + strings.Repeat("-", 108) + "\n")
	for _, o := range orders {
		b.WriteString(fmt.Sprintf("  %-10s%-6s%-8s%18s%18s%18s  %-22s%-8s\n",
			o.PairName,
			o.OrderAction.String(),
			o.OrderType.String(),
			numberString(o.Price),
			numberString(o.Volume),
			numberString(o.VolumeExecuted),
			o.ID,
			o.Status,
		))
	}
	return b.String()
}

func numberString(n *model.Number) string {
	if n == nil {
		return "-"
	}
	return n.AsString()
}
