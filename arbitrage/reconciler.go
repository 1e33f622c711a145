package arbitrage

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Tolerance compares volumes and rates, it is absolute up to magnitude 1 and relative above
const Tolerance = 1e-9

func withinTolerance(a float64, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= Tolerance*scale
}

// Reconciled is a pair whose two trade directions were cut into the same volume buckets
type Reconciled struct {
	// Bounds has len(Sell)+1 cumulative base volumes, Bounds[0] == 0. Bucket k spans [Bounds[k], Bounds[k+1]).
	Bounds []float64
	Sell   []Level
	Buy    []Level
	// SellPadding and BuyPadding is the base volume appended at the worst price to the shallower side
	SellPadding float64
	BuyPadding  float64
}

// Len is the number of buckets
func (r *Reconciled) Len() int {
	return len(r.Sell)
}

// Reconcile aligns both sides of a pair on the union of their cumulative base volume breakpoints.
// Levels are split where the other side has a breakpoint, splitting keeps the price of the level.
// The shallower side is extended at its last price up to the depth of the deeper side, this padding
// only ever lands in the last bucket which is treated as unbounded downstream.
func Reconcile(sell []Level, buy []Level) (*Reconciled, error) {
	if len(sell) == 0 || len(buy) == 0 {
		return nil, errors.Wrapf(ErrEmptyOrderBook, "cannot reconcile %d sell levels with %d buy levels", len(sell), len(buy))
	}

	bounds := unionBreakpoints(cumulativeVolumes(sell), cumulativeVolumes(buy))
	if len(bounds) < 2 {
		return nil, errors.Wrapf(ErrEmptyOrderBook, "total depth of both sides is within %g of zero", Tolerance)
	}
	rSell, sellPadding, e := replay(sell, bounds)
	if e != nil {
		return nil, errors.Wrap(e, "could not reconcile sell side")
	}
	rBuy, buyPadding, e := replay(buy, bounds)
	if e != nil {
		return nil, errors.Wrap(e, "could not reconcile buy side")
	}

	r := &Reconciled{
		Bounds:      bounds,
		Sell:        rSell,
		Buy:         rBuy,
		SellPadding: sellPadding,
		BuyPadding:  buyPadding,
	}
	e = r.verify()
	if e != nil {
		return nil, e
	}
	return r, nil
}

func (r *Reconciled) verify() error {
	if len(r.Sell) != len(r.Buy) || len(r.Bounds) != len(r.Sell)+1 {
		return errors.Wrapf(ErrReconcileMismatch, "sides have %d and %d buckets for %d bounds", len(r.Sell), len(r.Buy), len(r.Bounds))
	}
	for k := range r.Sell {
		if !withinTolerance(r.Sell[k].BaseVolume, r.Buy[k].BaseVolume) {
			return errors.Wrapf(ErrReconcileMismatch, "bucket %d has base volume %f on the sell side and %f on the buy side", k, r.Sell[k].BaseVolume, r.Buy[k].BaseVolume)
		}
	}
	if !withinTolerance(r.SellPadding, 0) && !withinTolerance(r.BuyPadding, 0) {
		return errors.Wrapf(ErrReconcileMismatch, "both sides were padded (sell=%f, buy=%f)", r.SellPadding, r.BuyPadding)
	}
	return nil
}

func cumulativeVolumes(levels []Level) []float64 {
	cumulative := make([]float64, len(levels))
	total := 0.0
	for i, l := range levels {
		total += l.BaseVolume
		cumulative[i] = total
	}
	return cumulative
}

func unionBreakpoints(a []float64, b []float64) []float64 {
	all := make([]float64, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	sort.Float64s(all)

	bounds := []float64{0}
	for _, v := range all {
		if !withinTolerance(v, bounds[len(bounds)-1]) && v > bounds[len(bounds)-1] {
			bounds = append(bounds, v)
		}
	}
	return bounds
}

// replay walks the levels over the given bounds, returning one level per bucket and the padded base volume
func replay(levels []Level, bounds []float64) ([]Level, float64, error) {
	starts := make([]float64, len(levels)+1)
	for i, l := range levels {
		starts[i+1] = starts[i] + l.BaseVolume
	}
	total := starts[len(levels)]
	last := len(levels) - 1
	consumed := make([]float64, len(levels))

	out := make([]Level, 0, len(bounds)-1)
	padding := 0.0
	first := 0
	for k := 1; k < len(bounds); k++ {
		lower := bounds[k-1]
		upper := bounds[k]

		var base, given, rateSum, priceSum, largest float64
		source := -1
		contributors := 0
		for j := first; j < len(levels) && starts[j] < upper; j++ {
			overlap := math.Min(upper, starts[j+1]) - math.Max(lower, starts[j])
			if overlap <= 0 {
				continue
			}
			consumed[j] += overlap
			base += overlap
			given += overlap * levels[j].Volume / levels[j].BaseVolume
			rateSum += overlap * levels[j].Rate
			priceSum += overlap * levels[j].Price
			contributors++
			if overlap > largest {
				largest = overlap
				source = j
			}
		}
		if upper > total && !withinTolerance(upper, total) {
			pad := upper - math.Max(lower, total)
			padding += pad
			base += pad
			given += pad * levels[last].Volume / levels[last].BaseVolume
			rateSum += pad * levels[last].Rate
			priceSum += pad * levels[last].Price
			if source != last {
				contributors++
			}
			if pad > largest {
				source = last
			}
		}
		for first < len(levels) && starts[first+1] <= upper {
			first++
		}

		width := upper - lower
		if source < 0 || !withinTolerance(base, width) {
			return nil, 0, errors.Wrapf(ErrReconcileMismatch, "bucket [%f, %f) covers base volume %f", lower, upper, base)
		}

		bucket := Level{
			Rate:       rateSum / base,
			Price:      priceSum / base,
			Volume:     given,
			BaseVolume: width,
			Source:     levels[source].Source,
		}
		if contributors == 1 {
			// a bucket cut from a single level keeps the exact price of that level
			bucket.Rate = levels[source].Rate
			bucket.Price = levels[source].Price
		}
		out = append(out, bucket)
	}

	for j, l := range levels {
		if !withinTolerance(consumed[j], l.BaseVolume) {
			return nil, 0, errors.Wrapf(ErrReconcileMismatch, "level %d has base volume %f but %f was assigned to buckets", j, l.BaseVolume, consumed[j])
		}
	}
	return out, padding, nil
}
