package ledger

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/utils"
)

// PairKey names the two assets of a trade, ordered by their Kraken symbol
type PairKey struct {
	First  model.Asset
	Second model.Asset
}

// String is the stringer function
func (k PairKey) String() string {
	return fmt.Sprintf("%s/%s", k.First, k.Second)
}

// Fill is one trade seen from the first asset of its PairKey. A positive Volume bought the first asset,
// a negative one sold it. Price is the amount of the second asset paid per unit of the first, after fees.
type Fill struct {
	RefID  string
	Time   float64
	Volume decimal.Decimal
	Price  decimal.Decimal
}

// String is the stringer function
func (f Fill) String() string {
	return fmt.Sprintf("Fill[refid=%s, time=%.4f, volume=%s, price=%s]", f.RefID, f.Time, f.Volume, f.Price)
}

// TradeFills makes one fill per refid that has exactly two trade entries, grouped by pair and kept in time order
func TradeFills(entries []model.LedgerEntry) (map[PairKey][]Fill, error) {
	fills := map[PairKey][]Fill{}
	for _, g := range groupByRefID(entries) {
		if len(g.entries) != 2 || !g.entries[0].IsTrade() || !g.entries[1].IsTrade() {
			continue
		}

		p0, e := parseEntry(g.entries[0])
		if e != nil {
			return nil, e
		}
		p1, e := parseEntry(g.entries[1])
		if e != nil {
			return nil, e
		}
		net0 := p0.amount.Sub(p0.fee)
		net1 := p1.amount.Sub(p1.fee)
		if net0.IsZero() {
			return nil, fmt.Errorf("trade %s moved no %s after fees, cannot compute a price", g.refID, p0.currency)
		}

		t := g.entries[0].Time
		if g.entries[1].Time > t {
			t = g.entries[1].Time
		}
		key := PairKey{First: p0.currency, Second: p1.currency}
		fills[key] = append(fills[key], Fill{
			RefID:  g.refID,
			Time:   t,
			Volume: net0,
			Price:  net1.Div(net0).Abs(),
		})
	}
	return fills, nil
}

// EntryNet is the amount of the entry that reached the account
func EntryNet(entry model.LedgerEntry) (decimal.Decimal, error) {
	p, e := parseEntry(entry)
	if e != nil {
		return decimal.Zero, e
	}
	return p.amount.Sub(p.fee), nil
}

// Transfers groups the deposits, withdrawals and other single entry movements by asset, lonely trade legs are left out
func Transfers(entries []model.LedgerEntry) map[model.Asset][]model.LedgerEntry {
	transfers := map[model.Asset][]model.LedgerEntry{}
	for _, g := range groupByRefID(entries) {
		if len(g.entries) != 1 || g.entries[0].IsTrade() {
			continue
		}
		asset := model.KrakenAsset(g.entries[0].Asset)
		transfers[asset] = append(transfers[asset], g.entries[0])
	}
	return transfers
}

// NetFills nets sells against the oldest open buys (first in, first out). Fills that were netted away completely
// are dropped, the result is the open position in time order. The input is not modified.
func NetFills(fills []Fill) []Fill {
	sorted := make([]Fill, len(fills))
	copy(sorted, fills)
	sort.SliceStable(sorted, func(i int, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	buys := []int{}
	sells := []int{}
	for i, f := range sorted {
		if f.Volume.IsNegative() {
			sells = append(sells, i)
		} else {
			buys = append(buys, i)
		}
	}

	closed := map[int]bool{}
	for b, s := 0, 0; b < len(buys) && s < len(sells); {
		buy := &sorted[buys[b]]
		sell := &sorted[sells[s]]
		if buy.Volume.GreaterThan(sell.Volume.Abs()) {
			buy.Volume = buy.Volume.Add(sell.Volume)
			sell.Volume = decimal.Zero
			closed[sells[s]] = true
			s++
		} else {
			sell.Volume = sell.Volume.Add(buy.Volume)
			buy.Volume = decimal.Zero
			closed[buys[b]] = true
			b++
		}
	}

	open := []Fill{}
	for i, f := range sorted {
		if !closed[i] {
			open = append(open, f)
		}
	}
	return open
}

// Portfolio is the open position of every traded pair
func Portfolio(entries []model.LedgerEntry) (map[PairKey][]Fill, error) {
	fills, e := TradeFills(entries)
	if e != nil {
		return nil, e
	}
	for k, f := range fills {
		fills[k] = NetFills(f)
	}
	return fills, nil
}

// ReadEntries loads the ledger entries cached by WriteEntries ordered by time, a missing file has no entries
func ReadEntries(path string) ([]model.LedgerEntry, error) {
	data, e := ioutil.ReadFile(path)
	if os.IsNotExist(e) {
		return []model.LedgerEntry{}, nil
	}
	if e != nil {
		return nil, fmt.Errorf("could not read ledger entries file '%s': %s", path, e)
	}

	byID := map[string]model.LedgerEntry{}
	e = json.Unmarshal(data, &byID)
	if e != nil {
		return nil, fmt.Errorf("could not parse ledger entries file '%s': %s", path, e)
	}
	entries := []model.LedgerEntry{}
	for id, entry := range byID {
		entry.ID = id
		entries = append(entries, entry)
	}
	sortEntries(entries)
	return entries, nil
}

// WriteEntries stores the entries keyed by their ledger id, the way Kraken returns them
func WriteEntries(path string, entries []model.LedgerEntry) error {
	byID := map[string]model.LedgerEntry{}
	for _, entry := range entries {
		byID[entry.ID] = entry
	}
	data, e := json.MarshalIndent(byID, "", "  ")
	if e != nil {
		return fmt.Errorf("could not encode ledger entries: %s", e)
	}

	e = utils.WriteFileAtomic(path, data, 0644)
	if e != nil {
		return fmt.Errorf("could not write ledger entries file: %s", e)
	}
	return nil
}

// MergeEntries adds the fetched entries to the stored ones, an entry fetched again replaces the stored one
func MergeEntries(stored []model.LedgerEntry, fetched []model.LedgerEntry) []model.LedgerEntry {
	byID := map[string]model.LedgerEntry{}
	for _, entry := range stored {
		byID[entry.ID] = entry
	}
	for _, entry := range fetched {
		byID[entry.ID] = entry
	}

	merged := make([]model.LedgerEntry, 0, len(byID))
	for _, entry := range byID {
		merged = append(merged, entry)
	}
	sortEntries(merged)
	return merged
}

func sortEntries(entries []model.LedgerEntry) {
	sort.Slice(entries, func(i int, j int) bool {
		if entries[i].Time != entries[j].Time {
			return entries[i].Time < entries[j].Time
		}
		return entries[i].ID < entries[j].ID
	})
}
