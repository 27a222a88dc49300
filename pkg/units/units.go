// Package units reads the free-text values typed into component properties
// ("10V", "1kΩ", "4.7μF", "2N2222") into numbers.
//
// Values are display metadata in the editor; nothing validates them. This
// package is only consulted when a number is actually needed, and every
// helper reports whether a number was found instead of failing.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ValueLexer splits a value string into a leading number, a unit word and
// anything else one rune at a time.
var ValueLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Unit", Pattern: `[a-zA-ZΩµμ]+`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: `.`},
})

// valueGrammar is the parse tree for a value string.
type valueGrammar struct {
	Number *string  `@Number?`
	Unit   string   `@Unit?`
	Rest   []string `@(Number | Unit | Other)*`
}

var valueParser = participle.MustBuild[valueGrammar](
	participle.Lexer(ValueLexer),
	participle.Elide("Whitespace"),
)

// Quantity is a parsed value string.
type Quantity struct {
	Number    float64
	HasNumber bool   // false when the value does not start with a number
	Unit      string // unit word directly after the number, e.g. "kΩ"
	Rest      string // anything after the unit, spaces dropped
}

// Parse splits s into its leading number, unit and remainder.
func Parse(s string) (Quantity, error) {
	if strings.TrimSpace(s) == "" {
		return Quantity{}, nil
	}

	g, err := valueParser.ParseString("", s)
	if err != nil {
		return Quantity{}, fmt.Errorf("units: parse %q: %w", s, err)
	}

	q := Quantity{Unit: g.Unit, Rest: strings.Join(g.Rest, "")}
	if g.Number != nil {
		n, err := strconv.ParseFloat(*g.Number, 64)
		if err != nil {
			return Quantity{}, fmt.Errorf("units: number %q: %w", *g.Number, err)
		}
		q.Number = n
		q.HasNumber = true
	}
	return q, nil
}

// Leading returns the number s starts with, ignoring leading whitespace,
// and whether there was one. "10V" gives 10, "GND" gives false.
func Leading(s string) (float64, bool) {
	q, err := Parse(s)
	if err != nil || !q.HasNumber {
		return 0, false
	}
	return q.Number, true
}

// Multiplier returns the scale implied by a unit word: ×1000 when it
// contains "k" and ×1,000,000 when it contains "M". Other prefixes are
// ignored, so "mΩ" scales by 1.
func Multiplier(unit string) float64 {
	m := 1.0
	if strings.Contains(unit, "k") {
		m *= 1e3
	}
	if strings.Contains(unit, "M") {
		m *= 1e6
	}
	return m
}

// resistanceLexer reads resistor values. Numbers are unsigned decimals
// without exponent, and whitespace is an ordinary rune, so a unit word only
// counts when it touches the number.
var resistanceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+\.?\d*`},
	{Name: "Unit", Pattern: `[a-zA-Z]+Ω?|Ω`},
	{Name: "Other", Pattern: `[\s\S]`},
})

// resistanceGrammar finds the first number anywhere in the value and the
// unit word right after it.
type resistanceGrammar struct {
	Lead   []string `@(Unit | Other)*`
	Number *string  `@Number?`
	Unit   string   `@Unit?`
	Rest   []string `@(Number | Unit | Other)*`
}

var resistanceParser = participle.MustBuild[resistanceGrammar](
	participle.Lexer(resistanceLexer),
)

// Resistance returns the resistance written in s, in ohms, and whether a
// number was found. The first digit run is the number and the letters
// directly after it are the unit: "4.7kΩ" gives 4700, "10 kΩ" gives 10,
// "-5k" gives 5000 and "1e3" gives 1.
func Resistance(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	g, err := resistanceParser.ParseString("", s)
	if err != nil || g.Number == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(*g.Number, 64)
	if err != nil {
		return 0, false
	}
	return n * Multiplier(g.Unit), true
}

var siPrefixes = []struct {
	exp    int
	prefix string
}{
	{9, "G"}, {6, "M"}, {3, "k"}, {0, ""}, {-3, "m"}, {-6, "μ"}, {-9, "n"}, {-12, "p"},
}

// Format renders v with an SI prefix and the given unit, e.g.
// Format(0.01, "A") is "10mA" and Format(4700, "Ω") is "4.7kΩ".
func Format(v float64, unit string) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64) + unit
	}
	abs := math.Abs(v)
	for _, p := range siPrefixes {
		scale := math.Pow10(p.exp)
		if abs >= scale {
			return trimFloat(v/scale) + p.prefix + unit
		}
	}
	last := siPrefixes[len(siPrefixes)-1]
	return trimFloat(v/math.Pow10(last.exp)) + last.prefix + unit
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
