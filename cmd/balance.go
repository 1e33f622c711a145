package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
	"github.com/krakentools/krakentools/support/utils"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Prints the balances of the account",
	Example: `  krakentools balance
  krakentools balance --watch`,
}

func init() {
	watch := balanceCmd.Flags().Bool("watch", false, "poll the balances and print them only when they change, the last balance is kept in BALANCE_FILE")

	balanceCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("balance")
		defer logPanic(l, true)

		exchange, e := makeExchange(context.Background(), l, cfg, true)
		if e != nil {
			logger.Fatal(l, e)
		}

		if !*watch {
			balances, e := exchange.GetAccountBalances()
			if e != nil {
				logger.Fatal(l, e)
			}
			fmt.Print(formatBalances(balanceStrings(balances)))
			return
		}

		for {
			balances, e := exchange.GetAccountBalances()
			if e != nil {
				logger.Fatal(l, fmt.Errorf("cannot get balance: %s", e))
			}
			changed, e := updateBalanceFile(cfg.BalanceFile, balanceStrings(balances))
			if e != nil {
				logger.Fatal(l, e)
			}
			if changed {
				l.Info("balance has changed")
				fmt.Print(formatBalances(balanceStrings(balances)))
			}
			time.Sleep(time.Duration(cfg.BalanceWatchSeconds) * time.Second)
		}
	}
}

// balanceStrings keys balances by asset code, the values keep the precision Kraken sent
func balanceStrings(balances map[model.Asset]model.Number) map[string]string {
	m := map[string]string{}
	for asset, n := range balances {
		m[string(asset)] = n.AsString()
	}
	return m
}

func formatBalances(balances map[string]string) string {
	assets := []string{}
	for a := range balances {
		assets = append(assets, a)
	}
	sort.Strings(assets)

	var b strings.Builder
	for _, a := range assets {
		b.WriteString(fmt.Sprintf("  %-8s%24s\n", a, balances[a]))
	}
	return b.String()
}

// updateBalanceFile stores the balances and reports whether they differ from the stored ones, a missing file counts as a change
func updateBalanceFile(path string, balances map[string]string) (bool, error) {
	last := map[string]string{}
	data, e := ioutil.ReadFile(path)
	if e != nil && !os.IsNotExist(e) {
		return false, fmt.Errorf("could not read balance file '%s': %s", path, e)
	}
	if e == nil {
		e = json.Unmarshal(data, &last)
		if e != nil {
			return false, fmt.Errorf("could not parse balance file '%s': %s", path, e)
		}
	}

	changed := !reflect.DeepEqual(last, balances)
	if !changed {
		return false, nil
	}

	data, e = json.MarshalIndent(balances, "", "  ")
	if e != nil {
		return false, fmt.Errorf("could not encode balances: %s", e)
	}
	e = utils.WriteFileAtomic(path, data, 0644)
	if e != nil {
		return false, fmt.Errorf("could not write balance file: %s", e)
	}
	return true, nil
}
