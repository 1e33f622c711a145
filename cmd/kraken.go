package cmd

import (
	"context"
	"fmt"
	"time"

	krakenapi "github.com/Beldur/kraken-go-api-client"

	"github.com/krakentools/krakentools/api"
	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/plugins"
	"github.com/krakentools/krakentools/support/logger"
)

// makeExchange builds the rate limited Kraken exchange. Without KRAKEN_COUNTER_DB the call counter is local to this process.
func makeExchange(ctx context.Context, l logger.Logger, cfg *ToolConfig, needsCredentials bool) (api.Exchange, error) {
	if needsCredentials && !cfg.hasCredentials() {
		return nil, fmt.Errorf("this command needs KRAKEN_API_KEY and KRAKEN_API_SECRET")
	}

	var counter plugins.CallCounter
	if cfg.KrakenCounterDB != "" {
		c, e := plugins.MakeSqliteCallCounter(cfg.KrakenCounterDB, time.Now)
		if e != nil {
			return nil, fmt.Errorf("could not make call counter: %s", e)
		}
		counter = c
	} else {
		l.Info("KRAKEN_COUNTER_DB is not set, the call counter is not shared with other processes")
		counter = plugins.MakeMemoryCallCounter(time.Now)
	}

	client := krakenapi.New(cfg.KrakenAPIKey, cfg.KrakenAPISecret)
	querier, e := plugins.MakeKrakenRateLimiter(ctx, client, counter, cfg.KrakenTier)
	if e != nil {
		return nil, fmt.Errorf("could not make rate limiter: %s", e)
	}
	return plugins.MakeKrakenExchange(querier, cfg.ThirtyDayVolume), nil
}

// findPair looks a pair up by its name or altname, e.g. XXBTZEUR or XBTEUR
func findPair(pairs []model.TradablePair, name string) (*model.TradablePair, error) {
	for _, p := range pairs {
		if p.Name == name {
			return &p, nil
		}
	}
	for _, p := range pairs {
		if string(p.Pair.Base)+string(p.Pair.Quote) == name {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("unknown pair '%s'", name)
}
