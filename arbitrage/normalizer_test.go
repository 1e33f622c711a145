package arbitrage

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

func TestNormalizeRates(t *testing.T) {
	book := makeBook(model.XBT, model.EUR, []level{{100, 1}, {101, 5}}, []level{{99, 2}, {98, 3}})
	testCases := []struct {
		name         string
		opts         NormalizeOptions
		wantSellRate float64
		wantBuyRate  float64
	}{
		{
			name:         "fee on received",
			opts:         NormalizeOptions{},
			wantSellRate: 99 * 0.99,
			wantBuyRate:  0.01 * 0.99,
		}, {
			name:         "fee on given",
			opts:         NormalizeOptions{Convention: FeeOnGiven},
			wantSellRate: 99 / 1.01,
			wantBuyRate:  0.01 / 1.01,
		}, {
			name:         "maker fee",
			opts:         NormalizeOptions{Fee: FeeMaker},
			wantSellRate: 99 * 0.995,
			wantBuyRate:  0.01 * 0.995,
		},
	}

	for _, kase := range testCases {
		t.Run(kase.name, func(t *testing.T) {
			pair := *model.MakeTradablePair("XXBTZEUR", model.XBT, model.EUR, 0.01, 0.005)
			n, e := Normalize(logger.MakeRecordingLogger(), pair, book, kase.opts)
			if !assert.NoError(t, e) {
				return
			}

			assert.Equal(t, Edge{From: model.XBT, To: model.EUR}, n.SellEdge())
			assert.Equal(t, Edge{From: model.EUR, To: model.XBT}, n.BuyEdge())
			assert.InDelta(t, kase.wantSellRate, n.Sell[0].Rate, 1e-12)
			assert.InDelta(t, kase.wantBuyRate, n.Buy[0].Rate, 1e-12)

			// volumes are in the currency given
			assert.Equal(t, 2.0, n.Sell[0].Volume)
			assert.Equal(t, 2.0, n.Sell[0].BaseVolume)
			assert.InDelta(t, 100.0, n.Buy[0].Volume, 1e-9)
			assert.Equal(t, 1.0, n.Buy[0].BaseVolume)

			// walking deeper never improves the rate
			for i := 1; i < len(n.Sell); i++ {
				assert.True(t, n.Sell[i].Rate <= n.Sell[i-1].Rate)
			}
			for i := 1; i < len(n.Buy); i++ {
				assert.True(t, n.Buy[i].Rate <= n.Buy[i-1].Rate)
			}
		})
	}
}

func TestNormalizeDropsDegenerateLevels(t *testing.T) {
	pair := model.MakeTradingPair(model.XBT, model.EUR)
	asks := []model.Order{
		{Pair: pair, Price: model.NumberFromFloat(100, 2), Volume: model.NumberFromFloat(0, 2)},
		{Pair: pair, Price: model.NumberFromFloat(math.NaN(), 2), Volume: model.NumberFromFloat(1, 2)},
		{Pair: pair, Price: model.NumberFromFloat(101, 2), Volume: model.NumberFromFloat(1, 2)},
	}
	bids := []model.Order{
		{Pair: pair, Price: model.NumberFromFloat(-1, 2), Volume: model.NumberFromFloat(1, 2)},
		{Pair: pair, Price: model.NumberFromFloat(99, 2), Volume: model.NumberFromFloat(1, 2)},
	}

	l := logger.MakeRecordingLogger()
	n, e := Normalize(l, makePair(model.XBT, model.EUR, 0.001), model.MakeOrderBook(pair, asks, bids), NormalizeOptions{})
	if !assert.NoError(t, e) {
		return
	}
	assert.Equal(t, 1, len(n.Buy))
	assert.Equal(t, 101.0, n.Buy[0].Price)
	assert.Equal(t, 1, len(n.Sell))
	assert.Equal(t, 99.0, n.Sell[0].Price)

	dropped := 0
	for _, m := range l.Messages {
		if strings.Contains(m, "dropping degenerate") {
			dropped++
		}
	}
	assert.Equal(t, 3, dropped)
}

func TestNormalizeSortsLevels(t *testing.T) {
	book := makeBook(model.XBT, model.EUR, []level{{101, 5}, {100, 1}}, []level{{98, 3}, {99, 2}})
	n, e := Normalize(logger.MakeRecordingLogger(), makePair(model.XBT, model.EUR, 0), book, NormalizeOptions{})
	if !assert.NoError(t, e) {
		return
	}
	assert.Equal(t, 100.0, n.Buy[0].Price)
	assert.Equal(t, 99.0, n.Sell[0].Price)
}

func TestNormalizeErrors(t *testing.T) {
	testCases := []struct {
		name string
		pair model.TradablePair
		book *model.OrderBook
	}{
		{
			name: "no asks",
			pair: makePair(model.XBT, model.EUR, 0.001),
			book: makeBook(model.XBT, model.EUR, []level{}, []level{{99, 1}}),
		}, {
			name: "no bids",
			pair: makePair(model.XBT, model.EUR, 0.001),
			book: makeBook(model.XBT, model.EUR, []level{{100, 1}}, []level{}),
		}, {
			name: "only degenerate bids",
			pair: makePair(model.XBT, model.EUR, 0.001),
			book: makeBook(model.XBT, model.EUR, []level{{100, 1}}, []level{{0, 1}}),
		}, {
			name: "nil book",
			pair: makePair(model.XBT, model.EUR, 0.001),
			book: nil,
		}, {
			name: "base equals quote",
			pair: makePair(model.XBT, model.XBT, 0.001),
			book: makeBook(model.XBT, model.XBT, []level{{1, 1}}, []level{{1, 1}}),
		}, {
			name: "fee out of range",
			pair: makePair(model.XBT, model.EUR, 1.5),
			book: makeBook(model.XBT, model.EUR, []level{{100, 1}}, []level{{99, 1}}),
		},
	}

	for _, kase := range testCases {
		t.Run(kase.name, func(t *testing.T) {
			_, e := Normalize(logger.MakeRecordingLogger(), kase.pair, kase.book, NormalizeOptions{})
			if !assert.Error(t, e) {
				return
			}
			assert.True(t, IsDataQuality(e))
			assert.False(t, IsStructural(e))
		})
	}
}

func TestFeeConventionFromString(t *testing.T) {
	c, e := FeeConventionFromString("")
	assert.NoError(t, e)
	assert.Equal(t, FeeOnReceived, c)

	c, e = FeeConventionFromString("given")
	assert.NoError(t, e)
	assert.Equal(t, FeeOnGiven, c)
	assert.Equal(t, "given", c.String())

	_, e = FeeConventionFromString("both")
	assert.Error(t, e)
}
