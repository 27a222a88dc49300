package netlist

import (
	"fmt"

	"github.com/chewxy/sexp"
)

// Stats describes a parsed S-expression document.
type Stats struct {
	Expressions int
	Leaves      int
}

// Validate parses an exported netlist back with a generic S-expression
// reader to make sure it is well formed.
func Validate(text string) (Stats, error) {
	exprs, err := sexp.ParseString(text)
	if err != nil {
		return Stats{}, fmt.Errorf("netlist: invalid s-expression: %w", err)
	}
	if len(exprs) == 0 {
		return Stats{}, fmt.Errorf("netlist: empty s-expression document")
	}

	st := Stats{Expressions: len(exprs)}
	for _, e := range exprs {
		if e.IsLeaf() {
			st.Leaves++
			continue
		}
		st.Leaves += e.LeafCount()
	}
	return st, nil
}
