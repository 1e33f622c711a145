// Package ledger converts Kraken ledger entries into plain text double entry transactions (ledger-cli format)
package ledger

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

const (
	dateFormat      = "2006/01/02"
	amountDecimals  = 9
	postingTemplate = "    %-26s%22s %-3s"
)

// initialTimestamp is the sync start when no timestamp file exists yet, Kraken's start parameter is exclusive
const initialTimestamp = 1.0

// Accounts names the ledger accounts the postings go to
type Accounts struct {
	Account    string
	FeeAccount string
}

// Validate checks that both accounts are set
func (a Accounts) Validate() error {
	if a.Account == "" || a.FeeAccount == "" {
		return fmt.Errorf("ledger account and fee account need to be set, were '%s' and '%s'", a.Account, a.FeeAccount)
	}
	return nil
}

// Posting is one line of a transaction, an empty Amount lets ledger balance the transaction
type Posting struct {
	Account  string
	Amount   string
	Currency model.Asset
	Comment  string
}

func (p Posting) String() string {
	line := fmt.Sprintf(postingTemplate, p.Account, p.Amount, string(p.Currency))
	if p.Comment != "" {
		return line + " ; " + p.Comment
	}
	return strings.TrimRight(line, " ")
}

// Transaction is a dated group of postings sharing a Kraken refid
type Transaction struct {
	Date     time.Time
	RefID    string
	IsTrade  bool
	Postings []Posting
}

// String formats the transaction as ledger text, ending with a newline
func (t Transaction) String() string {
	var b strings.Builder
	if t.IsTrade {
		b.WriteString(fmt.Sprintf("%s Trade id: %s\n", t.Date.Format(dateFormat), t.RefID))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", t.Date.Format(dateFormat), t.RefID))
	}
	for _, p := range t.Postings {
		b.WriteString(p.String())
		b.WriteString("\n")
	}
	return b.String()
}

type group struct {
	refID   string
	time    float64
	entries []model.LedgerEntry
}

// groupByRefID keeps the groups in the order of their earliest entry
func groupByRefID(entries []model.LedgerEntry) []*group {
	byRefID := map[string]*group{}
	groups := []*group{}
	for _, entry := range entries {
		g, ok := byRefID[entry.RefID]
		if !ok {
			g = &group{refID: entry.RefID, time: entry.Time}
			byRefID[entry.RefID] = g
			groups = append(groups, g)
		}
		if entry.Time < g.time {
			g.time = entry.Time
		}
		g.entries = append(g.entries, entry)
	}

	sort.SliceStable(groups, func(i int, j int) bool {
		if groups[i].time != groups[j].time {
			return groups[i].time < groups[j].time
		}
		return groups[i].refID < groups[j].refID
	})
	for _, g := range groups {
		sort.Slice(g.entries, func(i int, j int) bool {
			return g.entries[i].Asset < g.entries[j].Asset
		})
	}
	return groups
}

// Convert turns ledger entries into transactions. Two trade entries with the same refid make a trade, a single
// non-trade entry makes a deposit, withdrawal or transfer. Trades missing their other leg are skipped.
func Convert(l logger.Logger, entries []model.LedgerEntry, accounts Accounts, loc *time.Location) ([]Transaction, error) {
	e := accounts.Validate()
	if e != nil {
		return nil, e
	}

	txs := []Transaction{}
	for _, g := range groupByRefID(entries) {
		var tx *Transaction
		switch len(g.entries) {
		case 1:
			if g.entries[0].IsTrade() {
				l.Infof("skipping lonely trade entry %s of refid %s\n", g.entries[0].ID, g.refID)
				continue
			}
			tx, e = transferTransaction(g.entries[0], accounts, loc)
		case 2:
			if !g.entries[0].IsTrade() || !g.entries[1].IsTrade() {
				return nil, fmt.Errorf("refid %s has 2 entries that are not both trades: %s, %s", g.refID, g.entries[0].Type, g.entries[1].Type)
			}
			tx, e = tradeTransaction(g.entries[0], g.entries[1], accounts, loc)
		default:
			return nil, fmt.Errorf("refid %s has %d ledger entries, expected 1 or 2", g.refID, len(g.entries))
		}
		if e != nil {
			return nil, fmt.Errorf("could not convert refid %s: %s", g.refID, e)
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

type parsedEntry struct {
	amount   decimal.Decimal
	fee      decimal.Decimal
	currency model.Asset
}

func parseEntry(entry model.LedgerEntry) (*parsedEntry, error) {
	amount, e := decimal.NewFromString(entry.Amount)
	if e != nil {
		return nil, fmt.Errorf("invalid amount '%s' in entry %s: %s", entry.Amount, entry.ID, e)
	}
	fee, e := decimal.NewFromString(entry.Fee)
	if e != nil {
		return nil, fmt.Errorf("invalid fee '%s' in entry %s: %s", entry.Fee, entry.ID, e)
	}
	return &parsedEntry{
		amount:   amount,
		fee:      fee,
		currency: model.KrakenAsset(entry.Asset),
	}, nil
}

// net is the amount that reached the account
func (p parsedEntry) net() string {
	return p.amount.Sub(p.fee).StringFixed(amountDecimals)
}

func priceComment(this *parsedEntry, other *parsedEntry) string {
	label := "SELL AT"
	if this.amount.IsPositive() {
		label = "BUY AT"
	}
	price := this.amount.Div(other.amount).Abs()
	return fmt.Sprintf("%-7s %s %s%s", label, price.StringFixed(amountDecimals), this.currency, other.currency)
}

func tradeTransaction(first model.LedgerEntry, second model.LedgerEntry, accounts Accounts, loc *time.Location) (*Transaction, error) {
	p0, e := parseEntry(first)
	if e != nil {
		return nil, e
	}
	p1, e := parseEntry(second)
	if e != nil {
		return nil, e
	}
	if p0.amount.IsZero() || p1.amount.IsZero() {
		return nil, fmt.Errorf("trade entries %s and %s need non-zero amounts to compute a price", first.ID, second.ID)
	}

	return &Transaction{
		Date:    unixTime(first.Time, loc),
		RefID:   first.RefID,
		IsTrade: true,
		Postings: []Posting{
			{Account: accounts.FeeAccount, Amount: first.Fee, Currency: p0.currency},
			{Account: accounts.FeeAccount, Amount: second.Fee, Currency: p1.currency},
			{Account: accounts.Account, Amount: p0.net(), Currency: p0.currency, Comment: priceComment(p0, p1)},
			{Account: accounts.Account, Amount: p1.net(), Currency: p1.currency, Comment: priceComment(p1, p0)},
		},
	}, nil
}

func transferTransaction(entry model.LedgerEntry, accounts Accounts, loc *time.Location) (*Transaction, error) {
	p, e := parseEntry(entry)
	if e != nil {
		return nil, e
	}

	return &Transaction{
		Date:    unixTime(entry.Time, loc),
		RefID:   entry.RefID,
		IsTrade: false,
		Postings: []Posting{
			{Account: accounts.FeeAccount, Amount: entry.Fee, Currency: p.currency},
			{Account: accounts.Account, Amount: p.net(), Currency: p.currency},
			{Account: accounts.Account + ":" + entry.Type},
		},
	}, nil
}

func unixTime(seconds float64, loc *time.Location) time.Time {
	return model.MakeTimestampFromUnixSeconds(seconds).AsTime().In(loc)
}

// Write writes the transactions separated by blank lines
func Write(w io.Writer, txs []Transaction) error {
	for _, tx := range txs {
		_, e := io.WriteString(w, "\n"+tx.String())
		if e != nil {
			return fmt.Errorf("could not write transaction %s: %s", tx.RefID, e)
		}
	}
	return nil
}

// Balances sums amount minus fee per asset
func Balances(entries []model.LedgerEntry) (map[model.Asset]decimal.Decimal, error) {
	balances := map[model.Asset]decimal.Decimal{}
	for _, entry := range entries {
		p, e := parseEntry(entry)
		if e != nil {
			return nil, e
		}
		balances[p.currency] = balances[p.currency].Add(p.amount.Sub(p.fee))
	}
	return balances, nil
}

// LatestTime is the time of the newest entry, or since when there are no entries
func LatestTime(entries []model.LedgerEntry, since float64) float64 {
	latest := since
	for _, entry := range entries {
		if entry.Time > latest {
			latest = entry.Time
		}
	}
	return latest
}

// ReadTimestamp reads the time of the last synced entry, a missing file starts the sync from the beginning
func ReadTimestamp(path string) (float64, error) {
	data, e := ioutil.ReadFile(path)
	if os.IsNotExist(e) {
		return initialTimestamp, nil
	}
	if e != nil {
		return 0, fmt.Errorf("could not read timestamp file '%s': %s", path, e)
	}

	ts, e := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if e != nil {
		return 0, fmt.Errorf("invalid timestamp in '%s': %s", path, e)
	}
	return ts, nil
}

// WriteTimestamp stores the time of the last synced entry
func WriteTimestamp(path string, ts float64) error {
	e := ioutil.WriteFile(path, []byte(strconv.FormatFloat(ts, 'f', -1, 64)), 0644)
	if e != nil {
		return fmt.Errorf("could not write timestamp file '%s': %s", path, e)
	}
	return nil
}
