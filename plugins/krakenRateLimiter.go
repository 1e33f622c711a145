package plugins

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"
)

// KrakenQuerier is the part of the Kraken REST client we depend on, *krakenapi.KrakenApi implements it
type KrakenQuerier interface {
	Query(method string, data map[string]string) (interface{}, error)
}

// krakenTier is the call limit of a Kraken verification tier
type krakenTier struct {
	max            float64
	decayPerSecond float64
}

var krakenTiers = map[int]krakenTier{
	2: {max: 15, decayPerSecond: 1.0 / 3},
	3: {max: 20, decayPerSecond: 1.0 / 2},
	4: {max: 20, decayPerSecond: 1},
}

// krakenQueryCost is the number of counter units a call costs
func krakenQueryCost(method string) float64 {
	switch method {
	case "Ledgers", "QueryLedgers", "TradesHistory", "QueryTrades":
		return 2
	case "AddOrder", "CancelOrder":
		// order calls are limited by a separate matching engine counter
		return 0
	}
	return 1
}

// krakenRateLimiter decorates a KrakenQuerier so that calls block while the call counter is at its maximum
type krakenRateLimiter struct {
	inner   KrakenQuerier
	counter CallCounter
	tier    krakenTier
	ctx     context.Context
	wait    func(ctx context.Context, d time.Duration) error
}

var _ KrakenQuerier = &krakenRateLimiter{}

// MakeKrakenRateLimiter is a factory method, tier is the Kraken verification tier of the account (2, 3 or 4)
func MakeKrakenRateLimiter(ctx context.Context, inner KrakenQuerier, counter CallCounter, tier int) (KrakenQuerier, error) {
	t, ok := krakenTiers[tier]
	if !ok {
		return nil, fmt.Errorf("unsupported kraken tier %d, use 2, 3 or 4", tier)
	}

	return &krakenRateLimiter{
		inner:   inner,
		counter: counter,
		tier:    t,
		ctx:     ctx,
		wait:    sleepContext,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Query impl
func (r *krakenRateLimiter) Query(method string, data map[string]string) (interface{}, error) {
	cost := krakenQueryCost(method)
	for {
		counter, e := r.counter.Add(cost, r.tier.decayPerSecond)
		if e != nil {
			return nil, fmt.Errorf("could not update call counter before calling %s: %s", method, e)
		}
		if math.Ceil(counter) < r.tier.max {
			break
		}

		// the cost was already added, waiting only lets the counter decay
		cost = 0
		log.Printf("kraken call counter is at %.2f (max %.0f), waiting before calling %s\n", counter, r.tier.max, method)
		e = r.wait(r.ctx, time.Second)
		if e != nil {
			return nil, fmt.Errorf("stopped waiting for the call counter before calling %s: %s", method, e)
		}
	}
	return r.inner.Query(method, data)
}
