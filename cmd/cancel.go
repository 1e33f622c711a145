package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

var cancelCmd = &cobra.Command{
	Use:     "cancel",
	Short:   "Cancels an open order",
	Example: "  krakentools cancel --txid OQCLML-BW3P3-BUCMWZ",
}

func init() {
	txid := cancelCmd.Flags().String("txid", "", "(required) transaction id of the order to cancel")
	requiredFlag(cancelCmd, "txid")

	cancelCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("cancel")
		defer logPanic(l, true)

		exchange, e := makeExchange(context.Background(), l, cfg, true)
		if e != nil {
			logger.Fatal(l, e)
		}

		result, e := exchange.CancelOrder(model.MakeTransactionID(*txid))
		if e != nil {
			logger.Fatal(l, e)
		}
		if result == model.CancelResultFailed {
			logger.Fatal(l, fmt.Errorf("could not cancel order %s, no open order has this txid", *txid))
		}
		l.Infof("order %s: %s\n", *txid, result)
	}
}
