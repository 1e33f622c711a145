package arbitrage

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// solverTolerance is passed to the simplex method
const solverTolerance = 1e-10

// Solution of an LPModel
type Solution struct {
	// Objective is the return in the reference currency
	Objective float64
	Values    map[string]float64
}

// Active returns the names of the variables with a non-zero value, sorted by decreasing value
func (s *Solution) Active(threshold float64) []string {
	names := []string{}
	for name, v := range s.Values {
		if v > threshold {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i int, j int) bool {
		if s.Values[names[i]] != s.Values[names[j]] {
			return s.Values[names[i]] > s.Values[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// Solve runs the simplex method on the model, it is meant to sanity check a model before handing it to an external solver
func Solve(m *LPModel) (*Solution, error) {
	index := map[string]int{}
	for i, v := range m.Variables {
		index[v.Name] = i
	}

	// sign constraints are implicit in the standard form, every inequality gets a slack column
	rows := []Constraint{}
	slacks := 0
	for _, c := range m.Constraints {
		if c.Section == SectionSign {
			continue
		}
		rows = append(rows, c)
		if c.Relation != RelationEqual {
			slacks++
		}
	}

	nVars := len(m.Variables)
	nCols := nVars + slacks
	A := mat.NewDense(len(rows), nCols, nil)
	b := make([]float64, len(rows))
	slack := nVars
	for r, c := range rows {
		for _, t := range c.Terms {
			col, ok := index[t.Var]
			if !ok {
				return nil, fmt.Errorf("constraint references unknown variable '%s'", t.Var)
			}
			A.Set(r, col, A.At(r, col)+t.Coef)
		}
		switch c.Relation {
		case RelationLessEqual:
			A.Set(r, slack, 1)
			slack++
		case RelationGreaterEqual:
			A.Set(r, slack, -1)
			slack++
		}
		b[r] = c.RHS
	}

	// the simplex method minimizes
	cost := make([]float64, nCols)
	for _, t := range m.Objective {
		cost[index[t.Var]] -= t.Coef
	}

	optF, optX, e := lp.Simplex(cost, A, b, solverTolerance, nil)
	if e != nil {
		return nil, fmt.Errorf("simplex failed on a model with %d rows and %d columns: %s", len(rows), nCols, e)
	}

	values := map[string]float64{}
	for i, v := range m.Variables {
		values[v.Name] = optX[i]
	}
	return &Solution{
		Objective: -optF,
		Values:    values,
	}, nil
}
