// Package simulate produces the illustrative "simulation" report of a
// circuit: a structural summary plus one synthetic reading per component.
//
// The readings are not a nodal analysis. Voltage sources report their own
// value, resistors report Ohm's law against the first reading produced, and
// every other part gets a placeholder figure.
//
// A resistor's reference voltage is the voltage of the first reading
// already produced. When the resistor is itself the first reading, the
// first voltage source of the circuit stands in, and 5V when there is none.
package simulate

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/units"
)

const (
	defaultVoltage    = 5.0
	defaultResistance = 1000.0
	resistorDrop      = 0.8
)

// Summary describes the structure of the circuit.
type Summary struct {
	ComponentCount int            `json:"componentCount"`
	WireCount      int            `json:"wireCount"`
	ByType         map[string]int `json:"byType"`
	HasPower       bool           `json:"hasPower"`
	HasGround      bool           `json:"hasGround"`
	IsComplete     bool           `json:"isComplete"`
}

// Node is the reading reported for one component.
type Node struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Voltage     float64 `json:"voltage"`
	Current     float64 `json:"current"`
	VoltageText string  `json:"voltageText"`
	CurrentText string  `json:"currentText"`
	Placeholder bool    `json:"placeholder"` // figures are made up
}

// Report is the result of a simulation run.
type Report struct {
	Summary Summary `json:"summary"`
	Nodes   []Node  `json:"nodes"`
}

// PlaceholderFunc returns the made-up voltage and current for a component
// that has no formula.
type PlaceholderFunc func(c circuit.Component) (voltage, current float64)

// Summarizer runs simulations with a fixed placeholder policy.
type Summarizer struct {
	placeholder PlaceholderFunc
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithSeed draws placeholders from a random source seeded with seed, so
// repeated runs produce the same figures.
func WithSeed(seed uint64) Option {
	return func(s *Summarizer) {
		s.placeholder = randomPlaceholder(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	}
}

// WithPlaceholder replaces the placeholder policy.
func WithPlaceholder(fn PlaceholderFunc) Option {
	return func(s *Summarizer) { s.placeholder = fn }
}

// New returns a Summarizer. Without options placeholders are random:
// voltage in [0, 5) and current in [0, 0.01).
func New(opts ...Option) *Summarizer {
	s := &Summarizer{}
	WithSeed(uint64(time.Now().UnixNano()))(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomPlaceholder(r *rand.Rand) PlaceholderFunc {
	return func(circuit.Component) (float64, float64) {
		return r.Float64() * 5, r.Float64() * 0.01
	}
}

// Summarize runs a simulation with random placeholders.
func Summarize(snap circuit.Snapshot) Report {
	return New().Summarize(snap)
}

// Summarize builds the report for a snapshot. It never modifies the
// snapshot.
func (s *Summarizer) Summarize(snap circuit.Snapshot) Report {
	sum := Summary{
		ComponentCount: len(snap.Components),
		WireCount:      len(snap.Wires),
		ByType:         make(map[string]int),
	}
	for _, c := range snap.Components {
		sum.ByType[c.Kind.String()]++
		if c.Kind.IsPower() {
			sum.HasPower = true
		}
		if c.Kind == circuit.KindGround {
			sum.HasGround = true
		}
	}
	sum.IsComplete = sum.HasPower && sum.WireCount > 0

	fallback := defaultVoltage
	for _, c := range snap.Components {
		if c.Kind == circuit.KindVoltageSource {
			fallback = sourceVoltage(c)
			break
		}
	}

	nodes := make([]Node, 0, len(snap.Components))
	for _, c := range snap.Components {
		n := Node{ID: c.ID, Name: "Node at " + c.Name, Type: c.Kind.String()}

		switch c.Kind {
		case circuit.KindVoltageSource:
			v := sourceVoltage(c)
			n.Voltage = v
			n.VoltageText = strconv.FormatFloat(v, 'g', -1, 64) + " V"
			n.CurrentText = "0 A"

		case circuit.KindResistor:
			r, ok := units.Resistance(c.Value)
			if !ok || r <= 0 {
				r = defaultResistance
			}
			ref := fallback
			if len(nodes) > 0 {
				ref = nodes[0].Voltage
			}
			n.Current = ref / r
			n.Voltage = ref * resistorDrop
			n.VoltageText = fmt.Sprintf("%.2f V", n.Voltage)
			n.CurrentText = fmt.Sprintf("%.3f A", n.Current)

		default:
			n.Voltage, n.Current = s.placeholder(c)
			n.VoltageText = fmt.Sprintf("%.2f V", n.Voltage)
			n.CurrentText = fmt.Sprintf("%.4f A", n.Current)
			n.Placeholder = true
		}
		nodes = append(nodes, n)
	}

	return Report{Summary: sum, Nodes: nodes}
}

func sourceVoltage(c circuit.Component) float64 {
	v, ok := units.Leading(c.Value)
	if !ok {
		return defaultVoltage
	}
	return v
}
