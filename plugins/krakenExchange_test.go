package plugins

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krakentools/krakentools/model"
)

type fakeCall struct {
	method string
	args   map[string]string
}

// fakeQuerier answers queries with canned JSON results, decoded the way the kraken client decodes them
type fakeQuerier struct {
	results map[string][]string
	calls   []fakeCall
}

var _ KrakenQuerier = &fakeQuerier{}

func makeFakeQuerier(results map[string][]string) *fakeQuerier {
	return &fakeQuerier{results: results}
}

func (f *fakeQuerier) Query(method string, data map[string]string) (interface{}, error) {
	f.calls = append(f.calls, fakeCall{method: method, args: data})

	queue := f.results[method]
	if len(queue) == 0 {
		return nil, fmt.Errorf("EGeneral:Unknown method %s", method)
	}
	raw := queue[0]
	if len(queue) > 1 {
		f.results[method] = queue[1:]
	}

	var result interface{}
	e := json.Unmarshal([]byte(raw), &result)
	if e != nil {
		panic(e)
	}
	return result, nil
}

const assetPairsJSON = `{
	"XXBTZEUR": {"altname": "XBTEUR", "base": "XXBT", "quote": "ZEUR", "fees": [[0, 0.26], [50000, 0.24], [100000, 0.22]], "fees_maker": [[0, 0.16], [50000, 0.14], [100000, 0.12]]},
	"XXBTZEUR.d": {"altname": "XBTEUR.d", "base": "XXBT", "quote": "ZEUR", "fees": [[0, 0.36]]},
	"XETHXXBT": {"altname": "ETHXBT", "base": "XETH", "quote": "XXBT", "fees": [[0, 0.26]]},
	"DOTEUR": {"altname": "DOTEUR", "base": "DOT", "quote": "ZEUR", "fees": [[0, 0.26]], "fees_maker": [[0, 0.16]]}
}`

func TestGetTradablePairs(t *testing.T) {
	testCases := []struct {
		volume        float64
		wantXBTTaker  float64
		wantXBTMaker  float64
		wantETHXBTFee float64
	}{
		{
			volume:        0,
			wantXBTTaker:  0.0026,
			wantXBTMaker:  0.0016,
			wantETHXBTFee: 0.0026,
		}, {
			volume:        75000,
			wantXBTTaker:  0.0024,
			wantXBTMaker:  0.0014,
			wantETHXBTFee: 0.0026,
		}, {
			volume:        100000,
			wantXBTTaker:  0.0022,
			wantXBTMaker:  0.0012,
			wantETHXBTFee: 0.0026,
		},
	}

	for _, kase := range testCases {
		t.Run(fmt.Sprintf("%.0f", kase.volume), func(t *testing.T) {
			k := MakeKrakenExchange(makeFakeQuerier(map[string][]string{"AssetPairs": {assetPairsJSON}}), kase.volume)
			pairs, e := k.GetTradablePairs()
			if !assert.NoError(t, e) {
				return
			}

			// the dark pool listing is skipped, the rest is sorted by name
			if !assert.Equal(t, 3, len(pairs)) {
				return
			}
			assert.Equal(t, "DOTEUR", pairs[0].Name)
			assert.Equal(t, model.TradingPair{Base: model.Asset("DOT"), Quote: model.EUR}, pairs[0].Pair)
			assert.Equal(t, "XETHXXBT", pairs[1].Name)
			assert.Equal(t, model.TradingPair{Base: model.ETH, Quote: model.XBT}, pairs[1].Pair)
			assert.InDelta(t, kase.wantETHXBTFee, pairs[1].TakerFee, 1e-12)
			// without a maker schedule the taker fee applies
			assert.InDelta(t, kase.wantETHXBTFee, pairs[1].MakerFee, 1e-12)
			assert.Equal(t, "XXBTZEUR", pairs[2].Name)
			assert.InDelta(t, kase.wantXBTTaker, pairs[2].TakerFee, 1e-12)
			assert.InDelta(t, kase.wantXBTMaker, pairs[2].MakerFee, 1e-12)
		})
	}
}

func TestGetOrderBook(t *testing.T) {
	q := makeFakeQuerier(map[string][]string{
		"Depth": {`{"XXBTZEUR": {
			"asks": [["27000.10000", "1.500", 1688671834], ["27001.00000", "bad", 1688671835], ["27002.00000", "2.000", 1688671836]],
			"bids": [["26999.90000", "0.250", 1688671830], ["26999.00000", "3.000", 1688671831]]
		}}`},
	})
	k := MakeKrakenExchange(q, 0)
	pair := *model.MakeTradablePair("XXBTZEUR", model.XBT, model.EUR, 0.0026, 0.0016)

	book, e := k.GetOrderBook(pair, 100)
	if !assert.NoError(t, e) {
		return
	}

	assert.Equal(t, "Depth", q.calls[0].method)
	assert.Equal(t, map[string]string{"pair": "XXBTZEUR", "count": "100"}, q.calls[0].args)

	// the unparsable level is dropped
	if !assert.Equal(t, 2, len(book.Asks())) {
		return
	}
	assert.Equal(t, 27000.1, book.Asks()[0].Price.AsFloat())
	assert.Equal(t, 1.5, book.Asks()[0].Volume.AsFloat())
	assert.Equal(t, int64(1688671834000), book.Asks()[0].Timestamp.AsInt64())
	assert.Equal(t, 27002.0, book.Asks()[1].Price.AsFloat())
	assert.True(t, book.Asks()[0].OrderAction.IsSell())

	if !assert.Equal(t, 2, len(book.Bids())) {
		return
	}
	assert.Equal(t, 26999.9, book.Bids()[0].Price.AsFloat())
	assert.True(t, book.Bids()[0].OrderAction.IsBuy())
	assert.Equal(t, model.TradingPair{Base: model.XBT, Quote: model.EUR}, *book.Pair())
}

func TestGetOrderBookByAltname(t *testing.T) {
	q := makeFakeQuerier(map[string][]string{
		"Depth": {`{"XXBTZEUR": {"asks": [["27000.1", "1.5", 1688671834]], "bids": [["26999.9", "0.25", 1688671830]]}}`},
	})
	k := MakeKrakenExchange(q, 0)

	book, e := k.GetOrderBook(*model.MakeTradablePair("XBTEUR", model.XBT, model.EUR, 0.0026, 0.0016), 10)
	if !assert.NoError(t, e) {
		return
	}
	assert.Equal(t, 1, len(book.Asks()))
}

func TestGetTrades(t *testing.T) {
	q := makeFakeQuerier(map[string][]string{
		"Trades": {`{"XXBTZEUR": [
			["27000.1", "0.01", 1688671834.1234, "b", "l", ""],
			["26999.0", "0.50", 1688671835.5, "s", "m", ""],
			["oops"]
		], "last": "1688671835500000000"}`},
	})
	k := MakeKrakenExchange(q, 0)
	cursor := "1688671800000000000"

	result, e := k.GetTrades(*model.MakeTradablePair("XXBTZEUR", model.XBT, model.EUR, 0.0026, 0.0016), &cursor)
	if !assert.NoError(t, e) {
		return
	}

	assert.Equal(t, cursor, q.calls[0].args["since"])
	assert.Equal(t, "1688671835500000000", result.Cursor)
	if !assert.Equal(t, 2, len(result.Trades)) {
		return
	}
	assert.True(t, result.Trades[0].OrderAction.IsBuy())
	assert.True(t, result.Trades[0].OrderType.IsLimit())
	assert.Equal(t, int64(1688671834123), result.Trades[0].Timestamp.AsInt64())
	assert.True(t, result.Trades[1].OrderAction.IsSell())
	assert.False(t, result.Trades[1].OrderType.IsLimit())
}

func TestGetAccountBalances(t *testing.T) {
	k := MakeKrakenExchange(makeFakeQuerier(map[string][]string{
		"Balance": {`{"XXBT": "0.5000000000", "ZEUR": "1200.1234", "DOT": "10"}`},
	}), 0)

	balances, e := k.GetAccountBalances()
	if !assert.NoError(t, e) {
		return
	}
	assert.Equal(t, 3, len(balances))
	assert.Equal(t, 0.5, balances[model.XBT].AsFloat())
	assert.Equal(t, 1200.1234, balances[model.EUR].AsFloat())
	assert.Equal(t, 10.0, balances[model.Asset("DOT")].AsFloat())
}

func TestGetOpenOrders(t *testing.T) {
	k := MakeKrakenExchange(makeFakeQuerier(map[string][]string{
		"OpenOrders": {`{"open": {
			"OB5VMB-B4U2U-DK2WRW": {"status": "open", "opentm": 1688671900.5, "vol": "0.50000000", "vol_exec": "0.10000000",
				"descr": {"pair": "XBTEUR", "type": "sell", "ordertype": "limit", "price": "28000.0"}},
			"OQCLML-BW3P3-BUCMWZ": {"status": "open", "opentm": 1688671800.25, "vol": "1.00000000", "vol_exec": "0.00000000",
				"descr": {"pair": "ETHEUR", "type": "buy", "ordertype": "limit", "price": "1800.00"}}
		}}`},
	}), 0)

	orders, e := k.GetOpenOrders()
	if !assert.NoError(t, e) {
		return
	}
	if !assert.Equal(t, 2, len(orders)) {
		return
	}
	// oldest first
	assert.Equal(t, "OQCLML-BW3P3-BUCMWZ", orders[0].ID)
	assert.Equal(t, "ETHEUR", orders[0].PairName)
	assert.True(t, orders[0].OrderAction.IsBuy())
	assert.Equal(t, 1800.0, orders[0].Price.AsFloat())
	assert.Equal(t, "OB5VMB-B4U2U-DK2WRW", orders[1].ID)
	assert.True(t, orders[1].OrderAction.IsSell())
	assert.Equal(t, 0.1, orders[1].VolumeExecuted.AsFloat())
	assert.Equal(t, "open", orders[1].Status)
}

func TestAddOrder(t *testing.T) {
	testCases := []struct {
		name         string
		order        model.Order
		validateOnly bool
		result       string
		wantArgs     map[string]string
		wantTxID     string
		wantErr      bool
	}{
		{
			name: "limit",
			order: model.Order{
				OrderAction: model.OrderActionBuy,
				OrderType:   model.OrderTypeLimit,
				Price:       model.MustNumberFromString("27000.1"),
				Volume:      model.MustNumberFromString("0.01"),
			},
			result:   `{"descr": {"order": "buy 0.01 XBTEUR @ limit 27000.1"}, "txid": ["OUF4EM-FRGI2-MQMWZD"]}`,
			wantArgs: map[string]string{"pair": "XXBTZEUR", "type": "buy", "ordertype": "limit", "volume": "0.01", "price": "27000.1"},
			wantTxID: "OUF4EM-FRGI2-MQMWZD",
		}, {
			name: "validate market",
			order: model.Order{
				OrderAction: model.OrderActionSell,
				OrderType:   model.OrderTypeMarket,
				Volume:      model.MustNumberFromString("0.5"),
			},
			validateOnly: true,
			result:       `{"descr": {"order": "sell 0.5 XBTEUR @ market"}}`,
			wantArgs:     map[string]string{"pair": "XXBTZEUR", "type": "sell", "ordertype": "market", "volume": "0.5", "validate": "true"},
		}, {
			name: "no txid",
			order: model.Order{
				OrderAction: model.OrderActionSell,
				OrderType:   model.OrderTypeMarket,
				Volume:      model.MustNumberFromString("0.5"),
			},
			result:   `{"descr": {"order": "sell 0.5 XBTEUR @ market"}}`,
			wantArgs: map[string]string{"pair": "XXBTZEUR", "type": "sell", "ordertype": "market", "volume": "0.5"},
			wantErr:  true,
		},
	}

	for _, kase := range testCases {
		t.Run(kase.name, func(t *testing.T) {
			q := makeFakeQuerier(map[string][]string{"AddOrder": {kase.result}})
			k := MakeKrakenExchange(q, 0)

			txID, e := k.AddOrder("XXBTZEUR", &kase.order, kase.validateOnly)
			assert.Equal(t, kase.wantArgs, q.calls[0].args)
			if kase.wantErr {
				assert.Error(t, e)
				return
			}
			if !assert.NoError(t, e) {
				return
			}
			if kase.wantTxID == "" {
				assert.Nil(t, txID)
			} else {
				assert.Equal(t, kase.wantTxID, txID.String())
			}
		})
	}
}

func TestCancelOrder(t *testing.T) {
	testCases := []struct {
		result string
		want   model.CancelOrderResult
	}{
		{result: `{"count": 1}`, want: model.CancelResultCancelSuccessful},
		{result: `{"count": 1, "pending": true}`, want: model.CancelResultPending},
		{result: `{"count": 0}`, want: model.CancelResultFailed},
	}

	for _, kase := range testCases {
		t.Run(kase.result, func(t *testing.T) {
			k := MakeKrakenExchange(makeFakeQuerier(map[string][]string{"CancelOrder": {kase.result}}), 0)
			result, e := k.CancelOrder(model.MakeTransactionID("OUF4EM-FRGI2-MQMWZD"))
			if !assert.NoError(t, e) {
				return
			}
			assert.Equal(t, kase.want, result)
		})
	}
}

func TestGetLedgerEntries(t *testing.T) {
	q := makeFakeQuerier(map[string][]string{
		"Ledgers": {
			`{"ledger": {
				"L4UESK-KG3EQ-UFO4T5": {"refid": "TJKLXX-PGMUI-4NTLXU", "time": 1688672000.5, "type": "trade", "asset": "ZEUR", "amount": "-270.0010", "fee": "0.4320", "balance": "930.1234"},
				"LQ3KJD-SHOO5-3UZU6T": {"refid": "TJKLXX-PGMUI-4NTLXU", "time": 1688672000.5, "type": "trade", "asset": "XXBT", "amount": "0.0100000000", "fee": "0.0000000000", "balance": "0.5100000000"}
			}, "count": 3}`,
			`{"ledger": {
				"LDN3VC-Z5NLD-ZXJ4OP": {"refid": "QCCTKE4-XUXSQA-ZALV7M", "time": 1688600000, "type": "deposit", "asset": "ZEUR", "amount": "1200.0000", "fee": "0.0000", "balance": "1200.1244"}
			}, "count": 3}`,
		},
	})
	k := MakeKrakenExchange(q, 0)

	entries, e := k.GetLedgerEntries(1688500000)
	if !assert.NoError(t, e) {
		return
	}

	if !assert.Equal(t, 2, len(q.calls)) {
		return
	}
	assert.Equal(t, "0", q.calls[0].args["ofs"])
	assert.Equal(t, "2", q.calls[1].args["ofs"])
	assert.Equal(t, "1688500000", q.calls[1].args["start"])

	if !assert.Equal(t, 3, len(entries)) {
		return
	}
	assert.Equal(t, "LDN3VC-Z5NLD-ZXJ4OP", entries[0].ID)
	assert.Equal(t, "deposit", entries[0].Type)
	assert.Equal(t, "L4UESK-KG3EQ-UFO4T5", entries[1].ID)
	assert.Equal(t, "TJKLXX-PGMUI-4NTLXU", entries[1].RefID)
	assert.Equal(t, "-270.0010", entries[1].Amount)
	assert.True(t, entries[2].IsTrade())
}

func TestGetServerTime(t *testing.T) {
	k := MakeKrakenExchange(makeFakeQuerier(map[string][]string{
		"Time": {`{"unixtime": 1688671834, "rfc1123": "Thu,  6 Jul 23 19:30:34 +0000"}`},
	}), 0)

	ts, e := k.GetServerTime()
	if !assert.NoError(t, e) {
		return
	}
	assert.Equal(t, int64(1688671834), ts.Unix())
}

func TestFeeForVolume(t *testing.T) {
	_, e := feeForVolume([][]float64{}, 0)
	assert.Error(t, e)

	// volume below the first tier still gets the first tier
	fee, e := feeForVolume([][]float64{{10, 0.3}, {100, 0.2}}, 0)
	if !assert.NoError(t, e) {
		return
	}
	assert.InDelta(t, 0.003, fee, 1e-12)
}
