package arbitrage

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/krakentools/krakentools/model"
)

// DefaultUnboundedCap is the amount of From currency that can be given in the deepest bucket of an edge
const DefaultUnboundedCap = 1000.0

// LPOptions configures the linear program
type LPOptions struct {
	// UnboundedCap replaces +Inf capacities so that the problem stays bounded
	UnboundedCap float64
	// RunID is written in the header of the model file when set
	RunID string
}

// Relation of a constraint
type Relation string

// these are the relations used by the model
const (
	RelationEqual        Relation = "="
	RelationLessEqual    Relation = "<="
	RelationGreaterEqual Relation = ">="
)

// Section groups the constraints of the model
type Section int8

// sections in the order they are written
const (
	SectionExchange Section = iota
	SectionVolume
	SectionSign
	SectionBounded
)

// String is the stringer function
func (s Section) String() string {
	switch s {
	case SectionExchange:
		return "Exchange constraints"
	case SectionVolume:
		return "Volume constraints"
	case SectionSign:
		return "Sign constraints"
	case SectionBounded:
		return "Bounded problem constraint"
	}
	return "error, unrecognized section"
}

// Variable of the linear program, there is one x per depth matrix entry and one y per entry leaving the reference currency
type Variable struct {
	Name string
	Key  Key
	// Return is true for the y variables, they measure the amount of reference currency that leaves a cycle as profit
	Return bool
}

// Term is coefficient * variable
type Term struct {
	Coef float64
	Var  string
}

// Constraint is a single (in)equality of the model
type Constraint struct {
	Section Section
	// Label names exchange constraints after their currency
	Label    string
	Terms    []Term
	Relation Relation
	RHS      float64
}

// LPModel is a linear program maximizing the return in the reference currency over the depth matrix
type LPModel struct {
	Reference   model.Asset
	RunID       string
	Objective   []Term
	Variables   []Variable
	Constraints []Constraint
	quotes      map[string]Quote
}

// Quote returns the depth matrix value behind a variable
func (m *LPModel) Quote(name string) (Quote, bool) {
	q, ok := m.quotes[name]
	return q, ok
}

// Describe renders the bucket behind a variable, e.g. "y2: EUR->XBT [0, 1) base XBT @ 100"
func (m *LPModel) Describe(name string) string {
	for _, v := range m.Variables {
		if v.Name == name {
			q := m.quotes[name]
			return fmt.Sprintf("%s: %s [%g, %g) base %s @ %g", v.Name, v.Key.Edge, v.Key.Lower, v.Key.Upper, v.Key.Base, q.Price)
		}
	}
	return name + ": unknown variable"
}

// BuildLPModel builds the arbitrage linear program of a depth matrix
func BuildLPModel(matrix *DepthMatrix, reference model.Asset, opts LPOptions) (*LPModel, error) {
	if opts.UnboundedCap == 0 {
		opts.UnboundedCap = DefaultUnboundedCap
	}
	if opts.UnboundedCap < 0 || math.IsNaN(opts.UnboundedCap) || math.IsInf(opts.UnboundedCap, 0) {
		return nil, fmt.Errorf("unbounded cap needs to be a positive finite number, was %g", opts.UnboundedCap)
	}
	if matrix.Len() == 0 {
		return nil, errors.Wrap(ErrInvalidMatrix, "depth matrix is empty")
	}
	if !matrix.HasCurrency(reference) {
		return nil, errors.Wrapf(ErrUnknownReference, "reference currency %s", reference)
	}

	m := &LPModel{
		Reference: reference,
		RunID:     opts.RunID,
		quotes:    map[string]Quote{},
	}

	keys := matrix.Keys()
	xs := make([]Variable, len(keys))
	ys := []Variable{}
	// y variables index into xs
	yOf := map[int]Variable{}
	for i, k := range keys {
		q, _ := matrix.Get(k)
		xs[i] = Variable{Name: fmt.Sprintf("x%d", i), Key: k}
		m.quotes[xs[i].Name] = q
		if k.From == reference {
			y := Variable{Name: fmt.Sprintf("y%d", len(ys)), Key: k, Return: true}
			ys = append(ys, y)
			yOf[i] = y
			m.quotes[y.Name] = q
		}
	}
	m.Variables = append(append(m.Variables, xs...), ys...)

	for _, y := range ys {
		m.Objective = append(m.Objective, Term{Coef: 1, Var: y.Name})
	}

	// flow conservation: what comes into a currency leaves it again, except for the return of the reference currency
	for _, c := range matrix.Currencies() {
		terms := []Term{}
		for i, k := range keys {
			if k.To == c {
				q, _ := matrix.Get(k)
				terms = append(terms, Term{Coef: q.Rate, Var: xs[i].Name})
			}
		}
		for i, k := range keys {
			if k.From == c {
				terms = append(terms, Term{Coef: -1, Var: xs[i].Name})
			}
		}
		if c == reference {
			for _, y := range ys {
				terms = append(terms, Term{Coef: -1, Var: y.Name})
			}
		}
		m.Constraints = append(m.Constraints, Constraint{
			Section:  SectionExchange,
			Label:    string(c),
			Terms:    terms,
			Relation: RelationEqual,
			RHS:      0,
		})
	}

	for i, k := range keys {
		if k.IsUnbounded() {
			continue
		}
		q, _ := matrix.Get(k)
		capacity := k.Capacity(q)
		m.Constraints = append(m.Constraints, capacityConstraint(SectionVolume, xs[i].Name, capacity))
		if y, ok := yOf[i]; ok {
			m.Constraints = append(m.Constraints, capacityConstraint(SectionVolume, y.Name, capacity))
		}
	}

	for _, v := range m.Variables {
		m.Constraints = append(m.Constraints, Constraint{
			Section:  SectionSign,
			Terms:    []Term{{Coef: 1, Var: v.Name}},
			Relation: RelationGreaterEqual,
			RHS:      0,
		})
	}

	for i, k := range keys {
		if !k.IsUnbounded() {
			continue
		}
		m.Constraints = append(m.Constraints, capacityConstraint(SectionBounded, xs[i].Name, opts.UnboundedCap))
		if y, ok := yOf[i]; ok {
			m.Constraints = append(m.Constraints, capacityConstraint(SectionBounded, y.Name, opts.UnboundedCap))
		}
	}
	return m, nil
}

func capacityConstraint(section Section, name string, capacity float64) Constraint {
	return Constraint{
		Section:  section,
		Terms:    []Term{{Coef: 1, Var: name}},
		Relation: RelationLessEqual,
		RHS:      capacity,
	}
}

// SectionConstraints returns the constraints of one section in order
func (m *LPModel) SectionConstraints(s Section) []Constraint {
	out := []Constraint{}
	for _, c := range m.Constraints {
		if c.Section == s {
			out = append(out, c)
		}
	}
	return out
}
