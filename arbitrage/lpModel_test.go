package arbitrage

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
)

func triangleModel(t *testing.T, opts LPOptions) *LPModel {
	m, _, e := BuildDepthMatrix(logger.MakeRecordingLogger(), triangleSnapshot(), NormalizeOptions{})
	if !assert.NoError(t, e) {
		t.FailNow()
	}
	lpModel, e := BuildLPModel(m, model.EUR, opts)
	if !assert.NoError(t, e) {
		t.FailNow()
	}
	return lpModel
}

func TestBuildLPModelConstraints(t *testing.T) {
	m := triangleModel(t, LPOptions{})

	xs, ys := 0, 0
	for _, v := range m.Variables {
		if v.Return {
			ys++
			assert.Equal(t, model.EUR, v.Key.From)
		} else {
			xs++
		}
	}
	// 3 pairs, 2 buckets each, 2 directions
	assert.Equal(t, 12, xs)
	// EUR->XBT and EUR->ETH
	assert.Equal(t, 4, ys)
	assert.Equal(t, ys, len(m.Objective))
	assert.Equal(t, 3, len(m.SectionConstraints(SectionExchange)))

	signs := map[string]int{}
	for _, c := range m.SectionConstraints(SectionSign) {
		assert.Equal(t, RelationGreaterEqual, c.Relation)
		assert.Equal(t, 0.0, c.RHS)
		signs[c.Terms[0].Var]++
	}
	for _, v := range m.Variables {
		assert.Equal(t, 1, signs[v.Name], "sign constraints of %s", v.Name)
	}

	// every variable is capped exactly once, by its volume or by the bounded problem constraint
	caps := map[string]int{}
	for _, s := range []Section{SectionVolume, SectionBounded} {
		for _, c := range m.SectionConstraints(s) {
			assert.Equal(t, RelationLessEqual, c.Relation)
			assert.True(t, c.RHS > 0 && !math.IsInf(c.RHS, 0), "capacity %g", c.RHS)
			caps[c.Terms[0].Var]++
		}
	}
	for _, v := range m.Variables {
		assert.Equal(t, 1, caps[v.Name], "capacity constraints of %s", v.Name)
	}

	for _, c := range m.SectionConstraints(SectionBounded) {
		assert.Equal(t, DefaultUnboundedCap, c.RHS)
	}
}

func TestBuildLPModelCapacities(t *testing.T) {
	m := triangleModel(t, LPOptions{UnboundedCap: 50})

	capacity := map[string]float64{}
	for _, s := range []Section{SectionVolume, SectionBounded} {
		for _, c := range m.SectionConstraints(s) {
			capacity[c.Terms[0].Var] = c.RHS
		}
	}

	for _, v := range m.Variables {
		k := v.Key
		switch {
		case k.IsUnbounded():
			assert.Equal(t, 50.0, capacity[v.Name])
		case k.Edge == Edge{From: model.EUR, To: model.XBT}:
			// 1 XBT at 100 EUR
			assert.InDelta(t, 100.0, capacity[v.Name], 1e-9)
		case k.Edge == Edge{From: model.XBT, To: model.EUR}:
			assert.InDelta(t, 1.0, capacity[v.Name], 1e-9)
		case k.Edge == Edge{From: model.XBT, To: model.ETH}:
			// 10 ETH at 0.10002 XBT
			assert.InDelta(t, 1.0002, capacity[v.Name], 1e-9)
		}
	}
}

func TestBuildLPModelErrors(t *testing.T) {
	matrix, _, e := BuildDepthMatrix(logger.MakeRecordingLogger(), triangleSnapshot(), NormalizeOptions{})
	if !assert.NoError(t, e) {
		return
	}

	_, e = BuildLPModel(matrix, model.USD, LPOptions{})
	assert.Error(t, e)
	assert.Contains(t, e.Error(), ErrUnknownReference.Error())

	_, e = BuildLPModel(matrix, model.EUR, LPOptions{UnboundedCap: -1})
	assert.Error(t, e)

	_, e = BuildLPModel(MakeDepthMatrix(), model.EUR, LPOptions{})
	assert.True(t, IsStructural(e))
}

func TestLPModelWriteTo(t *testing.T) {
	m := triangleModel(t, LPOptions{RunID: "run-1"})

	var buf bytes.Buffer
	n, e := m.WriteTo(&buf)
	if !assert.NoError(t, e) {
		return
	}
	out := buf.String()
	assert.Equal(t, int64(len(out)), n)

	sections := []string{
		"/* Objective function: */",
		"/* Exchange constraints: */",
		"/* Volume constraints: */",
		"/* Sign constraints: */",
		"/* Bounded problem constraint: */",
	}
	last := -1
	for _, s := range sections {
		i := strings.Index(out, s)
		if !assert.True(t, i > last, "section %s is missing or out of order", s) {
			return
		}
		last = i
	}

	assert.Contains(t, out, "run run-1")
	assert.Contains(t, out, "max: +y0 +y1 +y2 +y3;")
	assert.Contains(t, out, "c_EUR: ")
	assert.Contains(t, out, "y0 >= 0;")
	assert.Contains(t, out, "<= 1000;")

	for _, line := range strings.Split(out, "\n") {
		if line == "" || strings.HasPrefix(line, "/*") {
			continue
		}
		assert.True(t, strings.HasSuffix(line, ";"), "unterminated line: %s", line)
		assert.Equal(t, 1, strings.Count(line, ";"), "more than one statement on line: %s", line)
	}
}

func TestFormatTerms(t *testing.T) {
	testCases := []struct {
		terms []Term
		want  string
	}{
		{
			terms: []Term{},
			want:  "0",
		}, {
			terms: []Term{{Coef: 1, Var: "x0"}, {Coef: -1, Var: "x1"}},
			want:  "+x0 -x1",
		}, {
			terms: []Term{{Coef: 0.00999, Var: "x2"}, {Coef: -2.5, Var: "y0"}},
			want:  "+0.00999 x2 -2.5 y0",
		},
	}

	for _, kase := range testCases {
		t.Run(kase.want, func(t *testing.T) {
			assert.Equal(t, kase.want, formatTerms(kase.terms))
		})
	}
}

func TestLPModelWriteToEmptySections(t *testing.T) {
	snapshot := &Snapshot{Pairs: []PairSnapshot{{
		Pair: makePair(model.XBT, model.EUR, 0.001),
		Book: makeBook(model.XBT, model.EUR, []level{{100, 1}}, []level{{99, 1}}),
	}}}
	matrix, _, e := BuildDepthMatrix(logger.MakeRecordingLogger(), snapshot, NormalizeOptions{})
	if !assert.NoError(t, e) {
		return
	}
	m, e := BuildLPModel(matrix, model.EUR, LPOptions{})
	if !assert.NoError(t, e) {
		return
	}
	assert.Empty(t, m.SectionConstraints(SectionVolume))

	var buf bytes.Buffer
	_, e = m.WriteTo(&buf)
	if !assert.NoError(t, e) {
		return
	}
	out := buf.String()
	for _, s := range []string{"/* Exchange constraints: */", "/* Volume constraints: */", "/* Sign constraints: */", "/* Bounded problem constraint: */"} {
		assert.Contains(t, out, s)
	}
}
