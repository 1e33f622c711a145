package model

import (
	"fmt"
)

// OrderAction is the action of buy / sell
type OrderAction bool

// OrderActionBuy and OrderActionSell are the two actions
const (
	OrderActionBuy  OrderAction = false
	OrderActionSell OrderAction = true
)

// IsBuy returns true for buy actions
func (a OrderAction) IsBuy() bool {
	return a == OrderActionBuy
}

// IsSell returns true for sell actions
func (a OrderAction) IsSell() bool {
	return a == OrderActionSell
}

// String is the stringer function
func (a OrderAction) String() string {
	if a == OrderActionBuy {
		return "buy"
	}
	return "sell"
}

// OrderActionFromString converts "buy"/"sell" (or Kraken's "b"/"s") to the corresponding OrderAction
func OrderActionFromString(s string) (OrderAction, error) {
	switch s {
	case "buy", "b":
		return OrderActionBuy, nil
	case "sell", "s":
		return OrderActionSell, nil
	}
	return OrderActionBuy, fmt.Errorf("unrecognized order action: '%s'", s)
}

// OrderType represents a type of an order, example market, limit, etc.
type OrderType int8

// These are the available order types
const (
	OrderTypeMarket OrderType = 0
	OrderTypeLimit  OrderType = 1
)

// IsLimit returns true for limit orders
func (o OrderType) IsLimit() bool {
	return o == OrderTypeLimit
}

// String is the stringer function
func (o OrderType) String() string {
	if o == OrderTypeMarket {
		return "market"
	} else if o == OrderTypeLimit {
		return "limit"
	}
	return "error, unrecognized order type"
}

// OrderTypeFromString converts "market"/"limit" (or Kraken's "m"/"l") to the corresponding OrderType
func OrderTypeFromString(s string) (OrderType, error) {
	switch s {
	case "market", "m":
		return OrderTypeMarket, nil
	case "limit", "l":
		return OrderTypeLimit, nil
	}
	return OrderTypeLimit, fmt.Errorf("unrecognized order type: '%s'", s)
}

// Order represents an order in the orderbook
type Order struct {
	Pair        *TradingPair
	OrderAction OrderAction
	OrderType   OrderType
	Price       *Number
	Volume      *Number
	Timestamp   *Timestamp
}

// String is the stringer function
func (o Order) String() string {
	tsString := "<nil>"
	if o.Timestamp != nil {
		tsString = fmt.Sprintf("%d", o.Timestamp.AsInt64())
	}

	return fmt.Sprintf("Order[pair=%s, action=%s, type=%s, price=%s, vol=%s, ts=%s]",
		o.Pair,
		o.OrderAction,
		o.OrderType,
		o.Price,
		o.Volume,
		tsString,
	)
}

// OrderBook encapsulates the concept of an orderbook on a market.
// Asks are sorted by ascending price and bids by descending price so that walking either side consumes
// increasingly unfavorable prices.
type OrderBook struct {
	pair *TradingPair
	asks []Order
	bids []Order
}

// Pair returns trading pair
func (o OrderBook) Pair() *TradingPair {
	return o.pair
}

// Asks returns the asks in an orderbook
func (o OrderBook) Asks() []Order {
	return o.asks
}

// Bids returns the bids in an orderbook
func (o OrderBook) Bids() []Order {
	return o.bids
}

// MakeOrderBook creates a new OrderBook from the asks and the bids
func MakeOrderBook(pair *TradingPair, asks []Order, bids []Order) *OrderBook {
	return &OrderBook{
		pair: pair,
		asks: asks,
		bids: bids,
	}
}

// TransactionID is typed for the concept of a transaction ID of an order
type TransactionID string

// String is the stringer function
func (t *TransactionID) String() string {
	return string(*t)
}

// MakeTransactionID is a factory method for convenience
func MakeTransactionID(s string) *TransactionID {
	t := TransactionID(s)
	return &t
}

// OpenOrder represents an open order for a trading account
type OpenOrder struct {
	Order
	ID             string
	PairName       string
	Status         string
	VolumeExecuted *Number
}

// String is the stringer function
func (o OpenOrder) String() string {
	return fmt.Sprintf("OpenOrder[order=%s, ID=%s, status=%s, volumeExecuted=%s]",
		o.Order.String(),
		o.ID,
		o.Status,
		o.VolumeExecuted,
	)
}

// CancelOrderResult is the result of a CancelOrder call
type CancelOrderResult int8

// These are the available types
const (
	CancelResultCancelSuccessful CancelOrderResult = 0
	CancelResultPending          CancelOrderResult = 1
	CancelResultFailed           CancelOrderResult = 2
)

// String is the stringer function
func (r CancelOrderResult) String() string {
	if r == CancelResultCancelSuccessful {
		return "cancelled"
	} else if r == CancelResultPending {
		return "pending"
	} else if r == CancelResultFailed {
		return "failed"
	}
	return "error, unrecognized CancelOrderResult"
}

// Trade is a public trade printed on the exchange
type Trade struct {
	Order
	Misc string
}
