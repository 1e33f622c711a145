package api

import (
	"time"

	"github.com/krakentools/krakentools/model"
)

// TradesResult is the result of a GetTrades call
type TradesResult struct {
	// Cursor is passed to the next call to only fetch newer trades
	Cursor string
	Trades []model.Trade
}

// MarketDataAPI is the public part of the exchange API
type MarketDataAPI interface {
	GetServerTime() (time.Time, error)

	GetTradablePairs() ([]model.TradablePair, error)

	GetOrderBook(pair model.TradablePair, maxCount int32) (*model.OrderBook, error)

	GetTrades(pair model.TradablePair, maybeCursor *string) (*TradesResult, error)
}

// AccountAPI gives access to the balances of the account
type AccountAPI interface {
	GetAccountBalances() (map[model.Asset]model.Number, error)
}

// TradeAPI is the interface we use to manage orders
type TradeAPI interface {
	GetOpenOrders() ([]model.OpenOrder, error)

	// AddOrder places an order on the pair with the given exchange symbol, it is only validated by the exchange when validateOnly is set
	AddOrder(pairName string, order *model.Order, validateOnly bool) (*model.TransactionID, error)

	CancelOrder(txID *model.TransactionID) (model.CancelOrderResult, error)
}

// LedgerAPI gives access to the movements of funds on the account
type LedgerAPI interface {
	// GetLedgerEntries returns every entry strictly newer than startExclusive (unix seconds), oldest first
	GetLedgerEntries(startExclusive float64) ([]model.LedgerEntry, error)
}

// Exchange is the interface of the Kraken exchange used by the commands
type Exchange interface {
	MarketDataAPI
	AccountAPI
	TradeAPI
	LedgerAPI
}
