package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/accounting/ledger"
	"github.com/krakentools/krakentools/api"
	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints balances, transfers and the open positions computed from the ledger entries in LEDGER_ENTRIES_FILE",
	Example: `  krakentools status
  krakentools status --no-sync`,
}

func init() {
	noSync := statusCmd.Flags().Bool("no-sync", false, "only use the ledger entries already stored in LEDGER_ENTRIES_FILE")

	statusCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("status")
		defer logPanic(l, true)

		var entries []model.LedgerEntry
		var e error
		if *noSync {
			entries, e = ledger.ReadEntries(cfg.LedgerEntriesFile)
		} else {
			exchange, e2 := makeExchange(context.Background(), l, cfg, true)
			if e2 != nil {
				logger.Fatal(l, e2)
			}
			entries, e = syncLedgerEntries(l, exchange, cfg.LedgerEntriesFile)
		}
		if e != nil {
			logger.Fatal(l, e)
		}

		out, e := formatStatus(entries)
		if e != nil {
			logger.Fatal(l, e)
		}
		fmt.Print(out)
	}
}

// syncLedgerEntries adds the entries newer than the newest stored one to the entries file and returns all of them
func syncLedgerEntries(l logger.Logger, exchange api.LedgerAPI, path string) ([]model.LedgerEntry, error) {
	stored, e := ledger.ReadEntries(path)
	if e != nil {
		return nil, e
	}

	fetched, e := exchange.GetLedgerEntries(ledger.LatestTime(stored, 1))
	if e != nil {
		return nil, fmt.Errorf("could not fetch ledger entries: %s", e)
	}
	l.Infof("fetched %d new ledger entries, %d were stored\n", len(fetched), len(stored))
	if len(fetched) == 0 {
		return stored, nil
	}

	entries := ledger.MergeEntries(stored, fetched)
	e = ledger.WriteEntries(path, entries)
	if e != nil {
		return nil, e
	}
	return entries, nil
}

func formatStatus(entries []model.LedgerEntry) (string, error) {
	balances, e := ledger.Balances(entries)
	if e != nil {
		return "", e
	}
	portfolio, e := ledger.Portfolio(entries)
	if e != nil {
		return "", e
	}
	transfers := ledger.Transfers(entries)

	var b strings.Builder
	b.WriteString("balances:\n")
	for _, a := range sortedAssets(balances) {
		b.WriteString(fmt.Sprintf("  %-8s%24s\n", a, balances[a].String()))
	}

	b.WriteString("transfers:\n")
	transferTotals := map[model.Asset]decimal.Decimal{}
	for a, list := range transfers {
		for _, entry := range list {
			amount, e := ledger.EntryNet(entry)
			if e != nil {
				return "", e
			}
			transferTotals[a] = transferTotals[a].Add(amount)
		}
	}
	for _, a := range sortedAssets(transferTotals) {
		b.WriteString(fmt.Sprintf("  %-8s%24s  (%d transfers)\n", a, transferTotals[a].String(), len(transfers[a])))
	}

	keys := []ledger.PairKey{}
	for k := range portfolio {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i int, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	b.WriteString("open positions:\n")
	for _, k := range keys {
		fills := portfolio[k]
		if len(fills) == 0 {
			continue
		}
		volume := decimal.Zero
		cost := decimal.Zero
		for _, f := range fills {
			volume = volume.Add(f.Volume)
			cost = cost.Add(f.Volume.Mul(f.Price))
		}
		avg := "-"
		if !volume.IsZero() {
			avg = cost.Div(volume).StringFixed(2)
		}
		b.WriteString(fmt.Sprintf("  %-10s%24s  avg price %s (%d fills)\n", k.String(), volume.String(), avg, len(fills)))
	}
	return b.String(), nil
}

func sortedAssets(m map[model.Asset]decimal.Decimal) []model.Asset {
	assets := []model.Asset{}
	for a := range m {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i int, j int) bool {
		return assets[i] < assets[j]
	})
	return assets
}
