package plugins

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/krakentools/krakentools/api"
	"github.com/krakentools/krakentools/arbitrage"
	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

// FetchSnapshot fetches the order books of all pairs with at most workers concurrent requests.
// Pairs whose order book cannot be fetched are logged and left out of the snapshot.
func FetchSnapshot(ctx context.Context, l logger.Logger, exchange api.MarketDataAPI, pairs []model.TradablePair, depth int32, workers int) (*arbitrage.Snapshot, error) {
	if workers < 1 {
		return nil, fmt.Errorf("need at least 1 fetch worker, was %d", workers)
	}

	books := make([]*model.OrderBook, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			if e := gctx.Err(); e != nil {
				return e
			}

			book, e := exchange.GetOrderBook(p, depth)
			if e != nil {
				l.Errorf("skipping pair %s: %s\n", p.Name, e)
				return nil
			}
			books[i] = book
			return nil
		})
	}
	e := g.Wait()
	if e != nil {
		return nil, fmt.Errorf("order book fetch was interrupted: %s", e)
	}

	snapshot := &arbitrage.Snapshot{
		Time:  time.Now().UTC(),
		Pairs: []arbitrage.PairSnapshot{},
	}
	for i, p := range pairs {
		if books[i] == nil {
			continue
		}
		snapshot.Pairs = append(snapshot.Pairs, arbitrage.PairSnapshot{
			Pair: p,
			Book: books[i],
		})
	}
	l.Infof("fetched %d of %d order books\n", len(snapshot.Pairs), len(pairs))
	return snapshot, nil
}
