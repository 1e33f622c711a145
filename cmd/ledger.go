package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/accounting/ledger"
	"github.com/krakentools/krakentools/api"
	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Appends the ledger entries since the last sync to LEDGER_FILE in ledger-cli format",
}

func init() {
	ledgerCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("ledger")
		defer logPanic(l, true)

		exchange, e := makeExchange(context.Background(), l, cfg, true)
		if e != nil {
			logger.Fatal(l, e)
		}

		n, e := syncLedger(l, exchange, cfg, time.Local)
		if e != nil {
			logger.Fatal(l, e)
		}
		l.Infof("appended %d transactions to %s\n", n, cfg.LedgerFile)
	}
}

// syncLedger appends the entries newer than the stored timestamp and then moves the timestamp forward,
// a failed append leaves the timestamp untouched so the next run retries the same entries
func syncLedger(l logger.Logger, exchange api.LedgerAPI, cfg *ToolConfig, loc *time.Location) (int, error) {
	since, e := ledger.ReadTimestamp(cfg.LedgerTimestampFile)
	if e != nil {
		return 0, e
	}
	l.Infof("fetching ledger entries newer than %s\n", model.MakeTimestampFromUnixSeconds(since).AsTime().In(loc).Format(time.RFC3339))

	entries, e := exchange.GetLedgerEntries(since)
	if e != nil {
		return 0, fmt.Errorf("could not fetch ledger entries: %s", e)
	}
	if len(entries) == 0 {
		l.Info("no new ledger entries")
		return 0, nil
	}

	txs, e := ledger.Convert(l, entries, cfg.ledgerAccounts(), loc)
	if e != nil {
		return 0, e
	}

	e = appendLedger(cfg.LedgerFile, txs)
	if e != nil {
		return 0, e
	}
	e = ledger.WriteTimestamp(cfg.LedgerTimestampFile, ledger.LatestTime(entries, since))
	if e != nil {
		return 0, e
	}

	balances, e := ledger.Balances(entries)
	if e != nil {
		return 0, e
	}
	assets := []string{}
	for a := range balances {
		assets = append(assets, string(a))
	}
	sort.Strings(assets)
	for _, a := range assets {
		l.Infof("    change of %s: %s\n", a, balances[model.Asset(a)].String())
	}
	return len(txs), nil
}

func appendLedger(path string, txs []ledger.Transaction) error {
	e := os.MkdirAll(filepath.Dir(path), 0755)
	if e != nil {
		return fmt.Errorf("could not create directory of ledger file '%s': %s", path, e)
	}

	f, e := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if e != nil {
		return fmt.Errorf("could not open ledger file '%s': %s", path, e)
	}
	defer f.Close()

	e = ledger.Write(f, txs)
	if e != nil {
		return e
	}
	return f.Sync()
}
