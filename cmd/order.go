package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Places an order, only validated by Kraken unless --validate=false",
	Example: `  krakentools order --pair XXBTZEUR --side buy --type limit --volume 0.01 --price 25000
  krakentools order --pair XXBTZEUR --side sell --type market --volume 0.01 --validate=false`,
}

type orderInputs struct {
	pair      *string
	side      *string
	orderType *string
	volume    *string
	price     *string
	validate  *bool
}

func init() {
	inputs := orderInputs{
		pair:      orderCmd.Flags().String("pair", "", "(required) name or altname of the pair, e.g. XXBTZEUR or XBTEUR"),
		side:      orderCmd.Flags().String("side", "", "(required) buy or sell"),
		orderType: orderCmd.Flags().String("type", "limit", "limit or market"),
		volume:    orderCmd.Flags().String("volume", "", "(required) order volume in the base asset"),
		price:     orderCmd.Flags().String("price", "", "limit price in the quote asset"),
		validate:  orderCmd.Flags().Bool("validate", true, "only validate the order, set to false to place it"),
	}
	requiredFlag(orderCmd, "pair")
	requiredFlag(orderCmd, "side")
	requiredFlag(orderCmd, "volume")

	orderCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("order")
		defer logPanic(l, true)

		exchange, e := makeExchange(context.Background(), l, cfg, true)
		if e != nil {
			logger.Fatal(l, e)
		}
		pairs, e := exchange.GetTradablePairs()
		if e != nil {
			logger.Fatal(l, e)
		}
		pair, e := findPair(pairs, *inputs.pair)
		if e != nil {
			logger.Fatal(l, e)
		}

		order, e := makeOrder(pair, *inputs.side, *inputs.orderType, *inputs.volume, *inputs.price)
		if e != nil {
			logger.Fatal(l, e)
		}

		txID, e := exchange.AddOrder(pair.Name, order, *inputs.validate)
		if e != nil {
			logger.Fatal(l, e)
		}
		if *inputs.validate {
			l.Infof("order was validated and not placed: %s\n", order)
			return
		}
		l.Infof("placed order with txid %s\n", txID.String())
	}
}

// makeOrder parses the order flags, market orders ignore the price
func makeOrder(pair *model.TradablePair, side string, orderType string, volume string, price string) (*model.Order, error) {
	action, e := model.OrderActionFromString(side)
	if e != nil {
		return nil, e
	}
	ot, e := model.OrderTypeFromString(orderType)
	if e != nil {
		return nil, e
	}

	vol, e := model.NumberFromString(volume)
	if e != nil {
		return nil, fmt.Errorf("invalid volume '%s': %s", volume, e)
	}
	if vol.AsFloat() <= 0 {
		return nil, fmt.Errorf("volume needs to be positive, was %s", volume)
	}

	var p *model.Number
	if ot.IsLimit() {
		if price == "" {
			return nil, fmt.Errorf("limit orders need a --price")
		}
		p, e = model.NumberFromString(price)
		if e != nil {
			return nil, fmt.Errorf("invalid price '%s': %s", price, e)
		}
		if p.AsFloat() <= 0 {
			return nil, fmt.Errorf("price needs to be positive, was %s", price)
		}
	}

	tp := pair.Pair
	return &model.Order{
		Pair:        &tp,
		OrderAction: action,
		OrderType:   ot,
		Price:       p,
		Volume:      vol,
	}, nil
}
