package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikhilsaraf/go-tools/multithreading"
	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/api"
	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/plugins"
	"github.com/krakentools/krakentools/support/logger"
)

var logDepthCmd = &cobra.Command{
	Use:   "log-depth",
	Short: "Stores the order books and recent trades of the pairs into DEPTH_DB",
	Long:  "Stores the order books and recent trades of the pairs listed in PAIRS (all pairs when empty) into the sqlite database DEPTH_DB.",
}

func init() {
	logDepthCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("log-depth")
		defer logPanic(l, true)

		exchange, e := makeExchange(context.Background(), l, cfg, false)
		if e != nil {
			logger.Fatal(l, e)
		}

		writer, e := plugins.MakeDepthDBWriter(cfg.DepthDB, version)
		if e != nil {
			logger.Fatal(l, e)
		}
		defer writer.Close()

		failed, e := logDepth(l, exchange, writer, cfg)
		if e != nil {
			logger.Fatal(l, e)
		}
		if failed > 0 {
			l.Infof("%d syncs failed, see the log above\n", failed)
		}
	}
}

// logDepth syncs all order books first and then all recent trades, one goroutine per pair.
// Failed syncs are logged and counted, the remaining pairs are still synced.
func logDepth(l logger.Logger, exchange api.MarketDataAPI, writer *plugins.DepthDBWriter, cfg *ToolConfig) (int, error) {
	allPairs, e := exchange.GetTradablePairs()
	if e != nil {
		return 0, fmt.Errorf("could not load tradable pairs: %s", e)
	}
	pairs, e := selectPairs(allPairs, cfg.Pairs)
	if e != nil {
		return 0, e
	}
	e = writer.WritePairs(pairs)
	if e != nil {
		return 0, e
	}

	depthLogger, e := plugins.MakeDepthLogger(exchange, writer)
	if e != nil {
		return 0, e
	}

	failedDepth, e := syncPairs(l, pairs, func(pair model.TradablePair) error {
		return depthLogger.SyncOrderBook(pair, cfg.DepthCount)
	})
	if e != nil {
		return 0, e
	}
	failedTrades, e := syncPairs(l, pairs, depthLogger.SyncRecentTrades)
	if e != nil {
		return 0, e
	}
	return failedDepth + failedTrades, nil
}

func syncPairs(l logger.Logger, pairs []model.TradablePair, syncFn func(pair model.TradablePair) error) (int, error) {
	threadTracker := multithreading.MakeThreadTracker()
	counter := &failureCounter{}
	for _, p := range pairs {
		e := threadTracker.TriggerGoroutine(func(inputs []interface{}) {
			pair := inputs[0].(model.TradablePair)
			e := syncFn(pair)
			if e != nil {
				l.Errorf("%s: %s\n", pair.Name, e)
				counter.inc()
			}
		}, []interface{}{p})
		if e != nil {
			threadTracker.Wait()
			return 0, fmt.Errorf("could not start sync of %s: %s", p.Name, e)
		}
	}
	threadTracker.Wait()
	return counter.get(), nil
}

type failureCounter struct {
	mutex sync.Mutex
	n     int
}

func (c *failureCounter) inc() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.n++
}

func (c *failureCounter) get() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.n
}
