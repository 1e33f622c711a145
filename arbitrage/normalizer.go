package arbitrage

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

// FeeConvention decides how the trading fee is applied to an effective rate
type FeeConvention int8

// FeeOnReceived takes the fee out of the currency received, FeeOnGiven charges it on top of the currency given
const (
	FeeOnReceived FeeConvention = iota
	FeeOnGiven
)

// String is the stringer function
func (c FeeConvention) String() string {
	if c == FeeOnGiven {
		return "given"
	}
	return "received"
}

// FeeConventionFromString parses the config value of a FeeConvention
func FeeConventionFromString(s string) (FeeConvention, error) {
	switch s {
	case "", "received":
		return FeeOnReceived, nil
	case "given":
		return FeeOnGiven, nil
	}
	return FeeOnReceived, fmt.Errorf("unrecognized fee convention '%s', use 'received' or 'given'", s)
}

// FeeKind selects the fee of the schedule that applies
type FeeKind int8

// taker fees apply to orders crossing the book, which is what an arbitrage does
const (
	FeeTaker FeeKind = iota
	FeeMaker
)

// NormalizeOptions configures the fee handling of the normalizer
type NormalizeOptions struct {
	Convention FeeConvention
	Fee        FeeKind
}

func (o NormalizeOptions) fee(pair model.TradablePair) float64 {
	if o.Fee == FeeMaker {
		return pair.MakerFee
	}
	return pair.TakerFee
}

// effectiveRate applies the fee to a raw rate (units received per unit given)
func (o NormalizeOptions) effectiveRate(rate float64, fee float64) float64 {
	if o.Convention == FeeOnGiven {
		return rate / (1 + fee)
	}
	return rate * (1 - fee)
}

// Level is one price level of one trade direction, in consumption order
type Level struct {
	// Rate is the amount of currency received per unit of currency given, after fees
	Rate float64
	// Price is the quoted price (quote per base) before fees
	Price float64
	// Volume is denominated in the currency given
	Volume float64
	// BaseVolume is denominated in the base currency of the pair
	BaseVolume float64
	// Source is the index of the level this one was cut from during reconciliation
	Source int
}

// NormalizedPair holds both trade directions of a pair
type NormalizedPair struct {
	Pair model.TradablePair
	// Sell gives base and receives quote, it walks the bids
	Sell []Level
	// Buy gives quote and receives base, it walks the asks
	Buy []Level
}

// SellEdge is the Base->Quote edge
func (n NormalizedPair) SellEdge() Edge {
	return Edge{From: n.Pair.Pair.Base, To: n.Pair.Pair.Quote}
}

// BuyEdge is the Quote->Base edge
func (n NormalizedPair) BuyEdge() Edge {
	return Edge{From: n.Pair.Pair.Quote, To: n.Pair.Pair.Base}
}

// Normalize converts the order book of a pair into fee adjusted levels for both trade directions
func Normalize(l logger.Logger, pair model.TradablePair, book *model.OrderBook, opts NormalizeOptions) (*NormalizedPair, error) {
	e := pair.Validate()
	if e != nil {
		return nil, errors.Wrap(ErrInvalidPair, e.Error())
	}
	if book == nil {
		return nil, errors.Wrapf(ErrEmptyOrderBook, "no order book for pair %s", pair.Name)
	}

	fee := opts.fee(pair)
	// bids: we give base and receive price units of quote for each unit of base
	sell := normalizeSide(l, pair.Name, "bid", book.Bids(), true, func(price float64, volume float64) Level {
		return Level{
			Rate:       opts.effectiveRate(price, fee),
			Price:      price,
			Volume:     volume,
			BaseVolume: volume,
		}
	})
	// asks: we give price units of quote for each unit of base, so volumes are expressed in quote
	buy := normalizeSide(l, pair.Name, "ask", book.Asks(), false, func(price float64, volume float64) Level {
		return Level{
			Rate:       opts.effectiveRate(1/price, fee),
			Price:      price,
			Volume:     volume * price,
			BaseVolume: volume,
		}
	})

	if len(sell) == 0 || len(buy) == 0 {
		return nil, errors.Wrapf(ErrEmptyOrderBook, "pair %s has %d usable bids and %d usable asks", pair.Name, len(sell), len(buy))
	}

	return &NormalizedPair{
		Pair: pair,
		Sell: sell,
		Buy:  buy,
	}, nil
}

func normalizeSide(
	l logger.Logger,
	pairName string,
	sideName string,
	orders []model.Order,
	descending bool,
	makeLevel func(price float64, volume float64) Level,
) []Level {
	usable := []model.Order{}
	for i, o := range orders {
		if o.Price == nil || o.Volume == nil || !o.Price.IsUsable() || !o.Volume.IsUsable() {
			l.Errorf("dropping degenerate %s at index %d for pair %s: price=%s, volume=%s\n", sideName, i, pairName, o.Price, o.Volume)
			continue
		}
		usable = append(usable, o)
	}

	less := func(i int, j int) bool {
		if descending {
			return usable[i].Price.AsFloat() > usable[j].Price.AsFloat()
		}
		return usable[i].Price.AsFloat() < usable[j].Price.AsFloat()
	}
	if !sort.SliceIsSorted(usable, less) {
		l.Infof("%ss for pair %s were not in consumption order, sorting them\n", sideName, pairName)
		sort.SliceStable(usable, less)
	}

	levels := make([]Level, 0, len(usable))
	for i, o := range usable {
		level := makeLevel(o.Price.AsFloat(), o.Volume.AsFloat())
		level.Source = i
		levels = append(levels, level)
	}
	return levels
}
