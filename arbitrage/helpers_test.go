package arbitrage

import (
	"github.com/krakentools/krakentools/model"
)

// level is a (price, volume) tuple as quoted by the exchange
type level [2]float64

func makeOrders(pair *model.TradingPair, action model.OrderAction, levels []level) []model.Order {
	orders := []model.Order{}
	for _, l := range levels {
		orders = append(orders, model.Order{
			Pair:        pair,
			OrderAction: action,
			OrderType:   model.OrderTypeLimit,
			Price:       model.NumberFromFloat(l[0], 8),
			Volume:      model.NumberFromFloat(l[1], 8),
		})
	}
	return orders
}

func makeBook(base model.Asset, quote model.Asset, asks []level, bids []level) *model.OrderBook {
	pair := model.MakeTradingPair(base, quote)
	return model.MakeOrderBook(pair, makeOrders(pair, model.OrderActionSell, asks), makeOrders(pair, model.OrderActionBuy, bids))
}

func makePair(base model.Asset, quote model.Asset, fee float64) model.TradablePair {
	return *model.MakeTradablePair(string(base)+string(quote), base, quote, fee, fee/2)
}

// triangleSnapshot has a single profitable cycle EUR -> XBT -> ETH -> EUR on the best levels
func triangleSnapshot() *Snapshot {
	return &Snapshot{
		Pairs: []PairSnapshot{
			{
				Pair: makePair(model.XBT, model.EUR, 0.001),
				Book: makeBook(model.XBT, model.EUR, []level{{100, 1}, {101, 5}}, []level{{99.9, 1}, {99, 5}}),
			}, {
				Pair: makePair(model.ETH, model.EUR, 0.001),
				Book: makeBook(model.ETH, model.EUR, []level{{10.06, 10}, {10.2, 50}}, []level{{10.05, 10}, {9.9, 50}}),
			}, {
				Pair: makePair(model.ETH, model.XBT, 0.002),
				Book: makeBook(model.ETH, model.XBT, []level{{0.10002, 10}, {0.103, 50}}, []level{{0.09998, 10}, {0.097, 50}}),
			},
		},
	}
}
