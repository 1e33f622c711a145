package cmd

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/krakentools/krakentools/api"
	"github.com/krakentools/krakentools/model"
)

// fakeExchange serves fixed pairs, books, trades and ledger entries
type fakeExchange struct {
	mutex       sync.Mutex
	pairs       []model.TradablePair
	books       map[string]*model.OrderBook
	trades      map[string]*api.TradesResult
	balances    map[model.Asset]model.Number
	ledger      []model.LedgerEntry
	ledgerCalls []float64
}

var _ api.Exchange = &fakeExchange{}

func (f *fakeExchange) GetServerTime() (time.Time, error) {
	return time.Now(), nil
}

func (f *fakeExchange) GetTradablePairs() ([]model.TradablePair, error) {
	return f.pairs, nil
}

func (f *fakeExchange) GetOrderBook(pair model.TradablePair, maxCount int32) (*model.OrderBook, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	book, ok := f.books[pair.Name]
	if !ok {
		return nil, fmt.Errorf("EQuery:Unknown asset pair")
	}
	return book, nil
}

func (f *fakeExchange) GetTrades(pair model.TradablePair, maybeCursor *string) (*api.TradesResult, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	result, ok := f.trades[pair.Name]
	if !ok {
		return nil, fmt.Errorf("EQuery:Unknown asset pair")
	}
	return result, nil
}

func (f *fakeExchange) GetAccountBalances() (map[model.Asset]model.Number, error) {
	return f.balances, nil
}

func (f *fakeExchange) GetOpenOrders() ([]model.OpenOrder, error) {
	return []model.OpenOrder{}, nil
}

func (f *fakeExchange) AddOrder(pairName string, order *model.Order, validateOnly bool) (*model.TransactionID, error) {
	return nil, fmt.Errorf("not supported")
}

func (f *fakeExchange) CancelOrder(txID *model.TransactionID) (model.CancelOrderResult, error) {
	return model.CancelResultFailed, fmt.Errorf("not supported")
}

func (f *fakeExchange) GetLedgerEntries(startExclusive float64) ([]model.LedgerEntry, error) {
	f.ledgerCalls = append(f.ledgerCalls, startExclusive)
	entries := []model.LedgerEntry{}
	for _, entry := range f.ledger {
		if entry.Time > startExclusive {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i int, j int) bool {
		return entries[i].Time < entries[j].Time
	})
	return entries, nil
}

func makeTestOrders(pair *model.TradingPair, action model.OrderAction, levels [][2]float64) []model.Order {
	orders := []model.Order{}
	for _, l := range levels {
		orders = append(orders, model.Order{
			Pair:        pair,
			OrderAction: action,
			OrderType:   model.OrderTypeLimit,
			Price:       model.NumberFromFloat(l[0], 8),
			Volume:      model.NumberFromFloat(l[1], 8),
			Timestamp:   model.MakeTimestampFromUnixSeconds(1688671830),
		})
	}
	return orders
}

func makeTestBook(base model.Asset, quote model.Asset, asks [][2]float64, bids [][2]float64) *model.OrderBook {
	pair := model.MakeTradingPair(base, quote)
	return model.MakeOrderBook(pair, makeTestOrders(pair, model.OrderActionSell, asks), makeTestOrders(pair, model.OrderActionBuy, bids))
}

// makeTriangleExchange quotes a profitable cycle EUR -> XBT -> ETH -> EUR on the best levels
func makeTriangleExchange() *fakeExchange {
	return &fakeExchange{
		pairs: []model.TradablePair{
			*model.MakeTradablePair("XXBTZEUR", model.XBT, model.EUR, 0.001, 0.0005),
			*model.MakeTradablePair("XETHZEUR", model.ETH, model.EUR, 0.001, 0.0005),
			*model.MakeTradablePair("XETHXXBT", model.ETH, model.XBT, 0.002, 0.001),
			*model.MakeTradablePair("XLTCZEUR", model.LTC, model.EUR, 0.002, 0.001),
		},
		books: map[string]*model.OrderBook{
			"XXBTZEUR": makeTestBook(model.XBT, model.EUR, [][2]float64{{100, 1}, {101, 5}}, [][2]float64{{99.9, 1}, {99, 5}}),
			"XETHZEUR": makeTestBook(model.ETH, model.EUR, [][2]float64{{10.06, 10}, {10.2, 50}}, [][2]float64{{10.05, 10}, {9.9, 50}}),
			"XETHXXBT": makeTestBook(model.ETH, model.XBT, [][2]float64{{0.10002, 10}, {0.103, 50}}, [][2]float64{{0.09998, 10}, {0.097, 50}}),
		},
		trades:   map[string]*api.TradesResult{},
		balances: map[model.Asset]model.Number{},
	}
}
