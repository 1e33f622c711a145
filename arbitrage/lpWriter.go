package arbitrage

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

var rowNameInvalidChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// WriteTo renders the model in lp_solve LP format
func (m *LPModel) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if m.RunID != "" {
		fmt.Fprintf(&buf, "/* arbitrage model, reference currency %s, run %s */\n\n", m.Reference, m.RunID)
	}

	buf.WriteString("/* Objective function: */\n")
	buf.WriteString("max: " + formatTerms(m.Objective) + ";\n")

	for _, s := range []Section{SectionExchange, SectionVolume, SectionSign, SectionBounded} {
		// the header is written even for an empty section
		fmt.Fprintf(&buf, "\n/* %s: */\n", s)
		for _, c := range m.SectionConstraints(s) {
			buf.WriteString(formatConstraint(c))
			buf.WriteString("\n")
		}
	}

	n, e := w.Write(buf.Bytes())
	if e != nil {
		return int64(n), fmt.Errorf("could not write LP model: %s", e)
	}
	return int64(n), nil
}

// String renders the whole model
func (m *LPModel) String() string {
	var buf bytes.Buffer
	_, _ = m.WriteTo(&buf)
	return buf.String()
}

func formatConstraint(c Constraint) string {
	prefix := ""
	if c.Label != "" {
		prefix = "c_" + rowNameInvalidChars.ReplaceAllString(c.Label, "_") + ": "
	}
	return fmt.Sprintf("%s%s %s %s;", prefix, formatTerms(c.Terms), c.Relation, formatFloat(c.RHS))
}

func formatTerms(terms []Term) string {
	if len(terms) == 0 {
		return "0"
	}

	var buf bytes.Buffer
	for i, t := range terms {
		if i > 0 {
			buf.WriteString(" ")
		}
		switch t.Coef {
		case 1:
			buf.WriteString("+" + t.Var)
		case -1:
			buf.WriteString("-" + t.Var)
		default:
			if t.Coef >= 0 {
				buf.WriteString("+")
			}
			buf.WriteString(formatFloat(t.Coef) + " " + t.Var)
		}
	}
	return buf.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
