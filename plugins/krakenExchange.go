package plugins

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/krakentools/krakentools/api"
	"github.com/krakentools/krakentools/model"
)

// ensure that krakenExchange conforms to the Exchange interface
var _ api.Exchange = &krakenExchange{}

const precisionBalances = 10

// darkPoolSuffix marks the dark pool listings of AssetPairs, they have no public order book
const darkPoolSuffix = ".d"

// krakenExchange is the implementation for the Kraken Exchange
type krakenExchange struct {
	querier KrakenQuerier
	// thirtyDayVolume selects the tier of the fee schedule
	thirtyDayVolume float64
}

// MakeKrakenExchange is a factory method, the querier is usually a rate limited *krakenapi.KrakenApi
func MakeKrakenExchange(querier KrakenQuerier, thirtyDayVolume float64) api.Exchange {
	return &krakenExchange{
		querier:         querier,
		thirtyDayVolume: thirtyDayVolume,
	}
}

// decode converts the generic JSON result of a query into a typed struct, numbers sent as strings are converted
func decode(input interface{}, output interface{}) error {
	decoder, e := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if e != nil {
		return fmt.Errorf("could not make decoder: %s", e)
	}
	return decoder.Decode(input)
}

// GetServerTime impl.
func (k *krakenExchange) GetServerTime() (time.Time, error) {
	resp, e := k.querier.Query("Time", map[string]string{})
	if e != nil {
		return time.Time{}, fmt.Errorf("could not fetch kraken server time: %s", e)
	}

	var result struct {
		Unixtime int64 `mapstructure:"unixtime"`
	}
	e = decode(resp, &result)
	if e != nil {
		return time.Time{}, fmt.Errorf("could not decode kraken server time: %s", e)
	}
	return time.Unix(result.Unixtime, 0).UTC(), nil
}

type krakenAssetPair struct {
	Altname   string      `mapstructure:"altname"`
	Base      string      `mapstructure:"base"`
	Quote     string      `mapstructure:"quote"`
	Fees      [][]float64 `mapstructure:"fees"`
	FeesMaker [][]float64 `mapstructure:"fees_maker"`
}

// GetTradablePairs impl.
func (k *krakenExchange) GetTradablePairs() ([]model.TradablePair, error) {
	resp, e := k.querier.Query("AssetPairs", map[string]string{})
	if e != nil {
		return nil, fmt.Errorf("could not fetch kraken asset pairs: %s", e)
	}

	krakenPairs := map[string]krakenAssetPair{}
	e = decode(resp, &krakenPairs)
	if e != nil {
		return nil, fmt.Errorf("could not decode kraken asset pairs: %s", e)
	}

	pairs := []model.TradablePair{}
	for name, p := range krakenPairs {
		if strings.HasSuffix(name, darkPoolSuffix) {
			continue
		}

		takerFee, e := feeForVolume(p.Fees, k.thirtyDayVolume)
		if e != nil {
			log.Printf("skipping pair %s: %s\n", name, e)
			continue
		}
		makerFee := takerFee
		if len(p.FeesMaker) > 0 {
			makerFee, e = feeForVolume(p.FeesMaker, k.thirtyDayVolume)
			if e != nil {
				log.Printf("skipping pair %s: %s\n", name, e)
				continue
			}
		}

		pairs = append(pairs, *model.MakeTradablePair(name, model.KrakenAsset(p.Base), model.KrakenAsset(p.Quote), takerFee, makerFee))
	}

	sort.Slice(pairs, func(i int, j int) bool {
		return pairs[i].Name < pairs[j].Name
	})
	return pairs, nil
}

// feeForVolume picks the tier of a fee schedule ([[volume, percent], ...]) and converts it to a fraction
func feeForVolume(schedule [][]float64, volume float64) (float64, error) {
	if len(schedule) == 0 {
		return 0, fmt.Errorf("empty fee schedule")
	}

	tiers := make([][]float64, len(schedule))
	copy(tiers, schedule)
	sort.Slice(tiers, func(i int, j int) bool {
		return tiers[i][0] < tiers[j][0]
	})

	fee := -1.0
	for _, tier := range tiers {
		if len(tier) != 2 {
			return 0, fmt.Errorf("invalid fee tier: %v", tier)
		}
		if tier[0] <= volume || fee < 0 {
			fee = tier[1]
		}
	}
	return fee / 100, nil
}

// GetOrderBook impl.
func (k *krakenExchange) GetOrderBook(pair model.TradablePair, maxCount int32) (*model.OrderBook, error) {
	resp, e := k.querier.Query("Depth", map[string]string{
		"pair":  pair.Name,
		"count": strconv.Itoa(int(maxCount)),
	})
	if e != nil {
		return nil, fmt.Errorf("could not fetch kraken order book for %s: %s", pair.Name, e)
	}

	result := map[string]struct {
		Asks [][]interface{} `mapstructure:"asks"`
		Bids [][]interface{} `mapstructure:"bids"`
	}{}
	e = decode(resp, &result)
	if e != nil {
		return nil, fmt.Errorf("could not decode kraken order book for %s: %s", pair.Name, e)
	}
	book, ok := result[pair.Name]
	if !ok {
		// kraken answers with its own name of the pair when it was requested by altname
		if len(result) != 1 {
			return nil, fmt.Errorf("kraken order book response does not contain pair %s", pair.Name)
		}
		for _, v := range result {
			book = v
		}
	}

	tradingPair := pair.Pair
	asks := readOrders(pair.Name, book.Asks, &tradingPair, model.OrderActionSell)
	bids := readOrders(pair.Name, book.Bids, &tradingPair, model.OrderActionBuy)
	return model.MakeOrderBook(&tradingPair, asks, bids), nil
}

// readOrders parses [price, volume, timestamp] levels, levels that do not parse are dropped
func readOrders(pairName string, items [][]interface{}, pair *model.TradingPair, orderAction model.OrderAction) []model.Order {
	orders := []model.Order{}
	for i, item := range items {
		if len(item) < 2 {
			log.Printf("dropping %s level %d of %s: expected at least 2 fields, got %v\n", orderAction, i, pairName, item)
			continue
		}
		price, e := numberFromJSON(item[0])
		if e != nil {
			log.Printf("dropping %s level %d of %s: invalid price: %s\n", orderAction, i, pairName, e)
			continue
		}
		volume, e := numberFromJSON(item[1])
		if e != nil {
			log.Printf("dropping %s level %d of %s: invalid volume: %s\n", orderAction, i, pairName, e)
			continue
		}

		var ts *model.Timestamp
		if len(item) > 2 {
			if seconds, ok := item[2].(float64); ok {
				ts = model.MakeTimestampFromUnixSeconds(seconds)
			}
		}
		orders = append(orders, model.Order{
			Pair:        pair,
			OrderAction: orderAction,
			OrderType:   model.OrderTypeLimit,
			Price:       price,
			Volume:      volume,
			Timestamp:   ts,
		})
	}
	return orders
}

func numberFromJSON(v interface{}) (*model.Number, error) {
	switch n := v.(type) {
	case string:
		return model.NumberFromString(n)
	case float64:
		return model.NumberFromFloat(n, precisionBalances), nil
	}
	return nil, fmt.Errorf("unexpected type %T for value %v", v, v)
}

// GetTrades impl.
func (k *krakenExchange) GetTrades(pair model.TradablePair, maybeCursor *string) (*api.TradesResult, error) {
	args := map[string]string{"pair": pair.Name}
	if maybeCursor != nil {
		args["since"] = *maybeCursor
	}
	resp, e := k.querier.Query("Trades", args)
	if e != nil {
		return nil, fmt.Errorf("could not fetch kraken trades for %s: %s", pair.Name, e)
	}

	m, ok := resp.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected kraken trades response type %T", resp)
	}

	result := &api.TradesResult{Trades: []model.Trade{}}
	switch last := m["last"].(type) {
	case string:
		result.Cursor = last
	case float64:
		result.Cursor = strconv.FormatFloat(last, 'f', -1, 64)
	}

	var items [][]interface{}
	for name, v := range m {
		if name == "last" {
			continue
		}
		e = decode(v, &items)
		if e != nil {
			return nil, fmt.Errorf("could not decode kraken trades for %s: %s", pair.Name, e)
		}
	}

	tradingPair := pair.Pair
	for i, item := range items {
		trade, e := readTrade(item, &tradingPair)
		if e != nil {
			log.Printf("dropping trade %d of %s: %s\n", i, pair.Name, e)
			continue
		}
		result.Trades = append(result.Trades, *trade)
	}
	return result, nil
}

// readTrade parses [price, volume, time, buy/sell, market/limit, misc]
func readTrade(item []interface{}, pair *model.TradingPair) (*model.Trade, error) {
	if len(item) < 6 {
		return nil, fmt.Errorf("expected 6 fields, got %v", item)
	}
	price, e := numberFromJSON(item[0])
	if e != nil {
		return nil, fmt.Errorf("invalid price: %s", e)
	}
	volume, e := numberFromJSON(item[1])
	if e != nil {
		return nil, fmt.Errorf("invalid volume: %s", e)
	}
	seconds, ok := item[2].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid time: %v", item[2])
	}
	action, e := model.OrderActionFromString(fmt.Sprintf("%v", item[3]))
	if e != nil {
		return nil, e
	}
	orderType, e := model.OrderTypeFromString(fmt.Sprintf("%v", item[4]))
	if e != nil {
		return nil, e
	}

	return &model.Trade{
		Order: model.Order{
			Pair:        pair,
			OrderAction: action,
			OrderType:   orderType,
			Price:       price,
			Volume:      volume,
			Timestamp:   model.MakeTimestampFromUnixSeconds(seconds),
		},
		Misc: fmt.Sprintf("%v", item[5]),
	}, nil
}

// GetAccountBalances impl.
func (k *krakenExchange) GetAccountBalances() (map[model.Asset]model.Number, error) {
	resp, e := k.querier.Query("Balance", map[string]string{})
	if e != nil {
		return nil, fmt.Errorf("could not fetch kraken balances: %s", e)
	}

	balances := map[string]float64{}
	e = decode(resp, &balances)
	if e != nil {
		return nil, fmt.Errorf("could not decode kraken balances: %s", e)
	}

	m := map[model.Asset]model.Number{}
	for symbol, balance := range balances {
		m[model.KrakenAsset(symbol)] = *model.NumberFromFloat(balance, precisionBalances)
	}
	return m, nil
}

type krakenOrderInfo struct {
	Status         string  `mapstructure:"status"`
	OpenTime       float64 `mapstructure:"opentm"`
	Volume         string  `mapstructure:"vol"`
	VolumeExecuted string  `mapstructure:"vol_exec"`
	Description    struct {
		Pair      string `mapstructure:"pair"`
		Type      string `mapstructure:"type"`
		OrderType string `mapstructure:"ordertype"`
		Price     string `mapstructure:"price"`
	} `mapstructure:"descr"`
}

// GetOpenOrders impl.
func (k *krakenExchange) GetOpenOrders() ([]model.OpenOrder, error) {
	resp, e := k.querier.Query("OpenOrders", map[string]string{})
	if e != nil {
		return nil, fmt.Errorf("cannot load open orders for Kraken: %s", e)
	}

	var result struct {
		Open map[string]krakenOrderInfo `mapstructure:"open"`
	}
	e = decode(resp, &result)
	if e != nil {
		return nil, fmt.Errorf("could not decode kraken open orders: %s", e)
	}

	orders := []model.OpenOrder{}
	for ID, o := range result.Open {
		action, e := model.OrderActionFromString(o.Description.Type)
		if e != nil {
			return nil, fmt.Errorf("open order %s: %s", ID, e)
		}
		orderType, e := model.OrderTypeFromString(o.Description.OrderType)
		if e != nil {
			return nil, fmt.Errorf("open order %s: %s", ID, e)
		}
		price, e := model.NumberFromString(o.Description.Price)
		if e != nil {
			return nil, fmt.Errorf("open order %s has an invalid price: %s", ID, e)
		}
		volume, e := model.NumberFromString(o.Volume)
		if e != nil {
			return nil, fmt.Errorf("open order %s has an invalid volume: %s", ID, e)
		}
		volumeExecuted, e := model.NumberFromString(o.VolumeExecuted)
		if e != nil {
			return nil, fmt.Errorf("open order %s has an invalid executed volume: %s", ID, e)
		}

		orders = append(orders, model.OpenOrder{
			Order: model.Order{
				OrderAction: action,
				OrderType:   orderType,
				Price:       price,
				Volume:      volume,
				Timestamp:   model.MakeTimestampFromUnixSeconds(o.OpenTime),
			},
			ID:             ID,
			PairName:       o.Description.Pair,
			Status:         o.Status,
			VolumeExecuted: volumeExecuted,
		})
	}

	sort.Slice(orders, func(i int, j int) bool {
		ti, tj := orders[i].Timestamp.AsInt64(), orders[j].Timestamp.AsInt64()
		if ti != tj {
			return ti < tj
		}
		return orders[i].ID < orders[j].ID
	})
	return orders, nil
}

// AddOrder impl.
func (k *krakenExchange) AddOrder(pairName string, order *model.Order, validateOnly bool) (*model.TransactionID, error) {
	args := map[string]string{
		"pair":      pairName,
		"type":      order.OrderAction.String(),
		"ordertype": order.OrderType.String(),
		"volume":    order.Volume.AsString(),
	}
	if order.OrderType.IsLimit() {
		if order.Price == nil {
			return nil, fmt.Errorf("limit orders need a price")
		}
		args["price"] = order.Price.AsString()
	}
	if validateOnly {
		args["validate"] = "true"
	}

	log.Printf("kraken is submitting order: pair=%s, orderAction=%s, orderType=%s, volume=%s, price=%s, validateOnly=%v\n",
		pairName, order.OrderAction, order.OrderType, order.Volume, order.Price, validateOnly)
	resp, e := k.querier.Query("AddOrder", args)
	if e != nil {
		return nil, fmt.Errorf("could not add order: %s", e)
	}

	var result struct {
		Description struct {
			Order string `mapstructure:"order"`
		} `mapstructure:"descr"`
		TransactionIds []string `mapstructure:"txid"`
	}
	e = decode(resp, &result)
	if e != nil {
		return nil, fmt.Errorf("could not decode add order response: %s", e)
	}
	log.Printf("kraken accepted order: %s\n", result.Description.Order)

	if validateOnly {
		return nil, nil
	}
	// expected case for production orders
	if len(result.TransactionIds) == 1 {
		return model.MakeTransactionID(result.TransactionIds[0]), nil
	}
	if len(result.TransactionIds) > 1 {
		return nil, fmt.Errorf("there was more than 1 transctionId: %s", result.TransactionIds)
	}
	return nil, fmt.Errorf("no transactionIds returned from order creation")
}

// CancelOrder impl.
func (k *krakenExchange) CancelOrder(txID *model.TransactionID) (model.CancelOrderResult, error) {
	log.Printf("kraken is canceling order: ID=%s\n", txID.String())
	resp, e := k.querier.Query("CancelOrder", map[string]string{"txid": txID.String()})
	if e != nil {
		return model.CancelResultFailed, fmt.Errorf("could not cancel order: %s", e)
	}

	var result struct {
		Count   int  `mapstructure:"count"`
		Pending bool `mapstructure:"pending"`
	}
	e = decode(resp, &result)
	if e != nil {
		return model.CancelResultFailed, fmt.Errorf("could not decode cancel order response: %s", e)
	}

	if result.Count > 1 {
		log.Printf("warning: count from a cancelled order is greater than 1: %d\n", result.Count)
	}
	if result.Count == 0 {
		return model.CancelResultFailed, nil
	}
	if result.Pending {
		return model.CancelResultPending, nil
	}
	return model.CancelResultCancelSuccessful, nil
}

// GetLedgerEntries impl, kraken pages the ledger newest first so all pages are fetched before sorting
func (k *krakenExchange) GetLedgerEntries(startExclusive float64) ([]model.LedgerEntry, error) {
	entries := []model.LedgerEntry{}
	for {
		resp, e := k.querier.Query("Ledgers", map[string]string{
			"start": strconv.FormatFloat(startExclusive, 'f', -1, 64),
			"ofs":   strconv.Itoa(len(entries)),
		})
		if e != nil {
			return nil, fmt.Errorf("could not fetch kraken ledger at offset %d: %s", len(entries), e)
		}

		var page struct {
			Ledger map[string]model.LedgerEntry `mapstructure:"ledger"`
			Count  int                          `mapstructure:"count"`
		}
		e = decode(resp, &page)
		if e != nil {
			return nil, fmt.Errorf("could not decode kraken ledger: %s", e)
		}

		for id, entry := range page.Ledger {
			entry.ID = id
			entries = append(entries, entry)
		}
		log.Printf("fetched %d of %d ledger entries\n", len(entries), page.Count)
		if len(page.Ledger) == 0 || len(entries) >= page.Count {
			break
		}
	}

	sort.Slice(entries, func(i int, j int) bool {
		if entries[i].Time != entries[j].Time {
			return entries[i].Time < entries[j].Time
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}
