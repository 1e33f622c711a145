package arbitrage

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

// Unbounded is the upper bound of the deepest bucket of every edge
var Unbounded = math.Inf(1)

// IsUnbounded returns true for the +Inf sentinel
func IsUnbounded(v float64) bool {
	return math.IsInf(v, 1)
}

// Edge is a directed conversion From -> To
type Edge struct {
	From model.Asset
	To   model.Asset
}

// String is the stringer function
func (e Edge) String() string {
	return fmt.Sprintf("%s->%s", e.From, e.To)
}

// Key identifies a bucket of one edge, the interval [Lower, Upper) is expressed in units of Base
type Key struct {
	Edge
	Base  model.Asset
	Lower float64
	Upper float64
}

// IsUnbounded is true for the deepest bucket of an edge
func (k Key) IsUnbounded() bool {
	return IsUnbounded(k.Upper)
}

// Width is the size of the bucket in units of Base
func (k Key) Width() float64 {
	return k.Upper - k.Lower
}

// Capacity is the amount of From currency that can be given inside this bucket
func (k Key) Capacity(q Quote) float64 {
	if k.IsUnbounded() {
		return Unbounded
	}
	if k.From == k.Base {
		return k.Width()
	}
	return k.Width() * q.Price
}

// String is the stringer function
func (k Key) String() string {
	return fmt.Sprintf("Key[%s, base=%s, [%g, %g)]", k.Edge, k.Base, k.Lower, k.Upper)
}

func (k Key) less(other Key) bool {
	if k.From != other.From {
		return k.From < other.From
	}
	if k.To != other.To {
		return k.To < other.To
	}
	if k.Base != other.Base {
		return k.Base < other.Base
	}
	return k.Lower < other.Lower
}

// Quote is the value stored for every key
type Quote struct {
	// Rate is the amount of To received per unit of From given, after fees
	Rate float64
	// Price is the quoted price of the pair (quote per base), needed to express capacities in From units
	Price float64
}

// DepthMatrix maps buckets of every edge to their effective rate
type DepthMatrix struct {
	entries map[Key]Quote
}

// MakeDepthMatrix is a factory method
func MakeDepthMatrix() *DepthMatrix {
	return &DepthMatrix{
		entries: map[Key]Quote{},
	}
}

// Add inserts a new entry, keys are never overwritten
func (m *DepthMatrix) Add(k Key, q Quote) error {
	if existing, ok := m.entries[k]; ok {
		return errors.Wrapf(ErrKeyCollision, "%s already maps to rate %g, cannot add rate %g", k, existing.Rate, q.Rate)
	}
	m.entries[k] = q
	return nil
}

// Get fetches the quote of a key
func (m *DepthMatrix) Get(k Key) (Quote, bool) {
	q, ok := m.entries[k]
	return q, ok
}

// Len is the number of entries
func (m *DepthMatrix) Len() int {
	return len(m.entries)
}

// Keys returns every key sorted by edge, base and lower bound
func (m *DepthMatrix) Keys() []Key {
	keys := make([]Key, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i int, j int) bool {
		return keys[i].less(keys[j])
	})
	return keys
}

// Currencies returns every currency that appears on an edge, sorted
func (m *DepthMatrix) Currencies() []model.Asset {
	seen := map[model.Asset]bool{}
	for k := range m.entries {
		seen[k.From] = true
		seen[k.To] = true
	}
	currencies := make([]model.Asset, 0, len(seen))
	for c := range seen {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i int, j int) bool {
		return currencies[i] < currencies[j]
	})
	return currencies
}

// HasCurrency is true when c appears on any edge
func (m *DepthMatrix) HasCurrency(c model.Asset) bool {
	for k := range m.entries {
		if k.From == c || k.To == c {
			return true
		}
	}
	return false
}

// listing groups the buckets of one edge that come from the same pair
type listing struct {
	Edge
	Base model.Asset
}

// listings returns the keys of every listing, each sorted by lower bound
func (m *DepthMatrix) listings() ([]listing, map[listing][]Key) {
	grouped := map[listing][]Key{}
	order := []listing{}
	for _, k := range m.Keys() {
		l := listing{Edge: k.Edge, Base: k.Base}
		if _, ok := grouped[l]; !ok {
			order = append(order, l)
		}
		grouped[l] = append(grouped[l], k)
	}
	return order, grouped
}

// Validate checks that the buckets of every listing partition [0, +Inf) with finite rates that get worse with depth
func (m *DepthMatrix) Validate() error {
	order, grouped := m.listings()
	for _, l := range order {
		if l.From == l.To {
			return errors.Wrapf(ErrInvalidMatrix, "edge %s is a self loop", l.Edge)
		}
		if l.Base != l.From && l.Base != l.To {
			return errors.Wrapf(ErrInvalidMatrix, "edge %s has base %s which is neither of its currencies", l.Edge, l.Base)
		}

		keys := grouped[l]
		if keys[0].Lower != 0 {
			return errors.Wrapf(ErrInvalidMatrix, "edge %s (base %s) starts at %g instead of 0", l.Edge, l.Base, keys[0].Lower)
		}
		if !keys[len(keys)-1].IsUnbounded() {
			return errors.Wrapf(ErrInvalidMatrix, "edge %s (base %s) ends at %g instead of +Inf", l.Edge, l.Base, keys[len(keys)-1].Upper)
		}
		for i, k := range keys {
			q := m.entries[k]
			if !(k.Lower < k.Upper) {
				return errors.Wrapf(ErrInvalidMatrix, "%s is an empty interval", k)
			}
			if i < len(keys)-1 {
				if k.IsUnbounded() {
					return errors.Wrapf(ErrInvalidMatrix, "%s is unbounded but is not the deepest bucket", k)
				}
				if k.Upper != keys[i+1].Lower {
					return errors.Wrapf(ErrInvalidMatrix, "%s is not contiguous with %s", k, keys[i+1])
				}
				next := m.entries[keys[i+1]]
				if next.Rate > q.Rate && !withinTolerance(next.Rate, q.Rate) {
					return errors.Wrapf(ErrInvalidMatrix, "%s has rate %g which is better than the shallower rate %g", keys[i+1], next.Rate, q.Rate)
				}
			}
			if q.Rate <= 0 || math.IsNaN(q.Rate) || math.IsInf(q.Rate, 0) {
				return errors.Wrapf(ErrInvalidMatrix, "%s has an invalid rate %g", k, q.Rate)
			}
			if q.Price <= 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
				return errors.Wrapf(ErrInvalidMatrix, "%s has an invalid price %g", k, q.Price)
			}
		}
	}
	return nil
}

// PairSnapshot is the order book of one pair as fetched from the exchange
type PairSnapshot struct {
	Pair model.TradablePair
	Book *model.OrderBook
}

// Snapshot is the set of order books the depth matrix is built from
type Snapshot struct {
	Time  time.Time
	Pairs []PairSnapshot
}

// BuildReport summarizes which pairs made it into the depth matrix
type BuildReport struct {
	Pairs   int
	Entries int
	// Skipped maps the name of a skipped pair to the reason it was skipped
	Skipped map[string]error
}

// BuildDepthMatrix normalizes and reconciles every pair of the snapshot into a depth matrix.
// Pairs failing a data-quality check are skipped, any structural error aborts the build.
func BuildDepthMatrix(l logger.Logger, snapshot *Snapshot, opts NormalizeOptions) (*DepthMatrix, *BuildReport, error) {
	m := MakeDepthMatrix()
	report := &BuildReport{Skipped: map[string]error{}}
	for _, ps := range snapshot.Pairs {
		normalized, e := Normalize(l, ps.Pair, ps.Book, opts)
		if e != nil {
			if IsDataQuality(e) {
				l.Errorf("skipping pair %s: %s\n", ps.Pair.Name, e)
				report.Skipped[ps.Pair.Name] = e
				continue
			}
			return nil, report, errors.Wrapf(e, "could not normalize pair %s", ps.Pair.Name)
		}

		reconciled, e := Reconcile(normalized.Sell, normalized.Buy)
		if e != nil {
			if IsDataQuality(e) {
				l.Errorf("skipping pair %s: %s\n", ps.Pair.Name, e)
				report.Skipped[ps.Pair.Name] = e
				continue
			}
			return nil, report, errors.Wrapf(e, "could not reconcile pair %s", ps.Pair.Name)
		}

		e = addReconciled(m, normalized, reconciled)
		if e != nil {
			return nil, report, errors.Wrapf(e, "could not add pair %s to the depth matrix", ps.Pair.Name)
		}
		report.Pairs++
	}

	e := m.Validate()
	if e != nil {
		return nil, report, e
	}
	report.Entries = m.Len()
	l.Infof("built depth matrix with %d entries from %d pairs (%d skipped)\n", report.Entries, report.Pairs, len(report.Skipped))
	return m, report, nil
}

func addReconciled(m *DepthMatrix, normalized *NormalizedPair, r *Reconciled) error {
	base := normalized.Pair.Pair.Base
	sellEdge := normalized.SellEdge()
	buyEdge := normalized.BuyEdge()
	n := r.Len()
	for k := 0; k < n; k++ {
		lower := r.Bounds[k]
		upper := r.Bounds[k+1]
		if k == n-1 {
			upper = Unbounded
		}

		sell := r.Sell[k]
		e := m.Add(Key{Edge: sellEdge, Base: base, Lower: lower, Upper: upper}, Quote{Rate: sell.Rate, Price: sell.Price})
		if e != nil {
			return e
		}
		buy := r.Buy[k]
		e = m.Add(Key{Edge: buyEdge, Base: base, Lower: lower, Upper: upper}, Quote{Rate: buy.Rate, Price: buy.Price})
		if e != nil {
			return e
		}
	}
	return nil
}
