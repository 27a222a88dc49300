package circuit

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
)

// Kind identifies a component type. The set is closed: every Kind has a
// Template in the registry.
type Kind uint8

const (
	KindResistor Kind = iota + 1
	KindCapacitor
	KindInductor
	KindVoltageSource
	KindCurrentSource
	KindGround
	KindDiode
	KindTransistor
	KindLightbulb
	KindSwitch
)

var kindNames = map[Kind]string{
	KindResistor:      "resistor",
	KindCapacitor:     "capacitor",
	KindInductor:      "inductor",
	KindVoltageSource: "voltage_source",
	KindCurrentSource: "current_source",
	KindGround:        "ground",
	KindDiode:         "diode",
	KindTransistor:    "transistor",
	KindLightbulb:     "lightbulb",
	KindSwitch:        "switch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind maps a type name such as "voltage_source" to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("circuit: %q: %w", name, ErrUnknownType)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("circuit: kind %d: %w", k, ErrUnknownType)
	}
	return []byte(name), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsPower reports whether the kind supplies power to a circuit.
func (k Kind) IsPower() bool {
	return k == KindVoltageSource || k == KindCurrentSource
}

// Template is the registry entry a placed component is built from.
type Template struct {
	Kind   Kind
	Name   string
	Value  string
	Symbol string
	Size   geom.Size
	Ports  []geom.Point // unrotated local offsets, in port order
	States []string     // switchable states, first is the initial one
}

// Default geometry shared by every template.
var (
	bodySize        = geom.Size{W: 60, H: 40}
	twoPorts        = []geom.Point{{X: -30, Y: 0}, {X: 30, Y: 0}}
	transistorPorts = []geom.Point{{X: -30, Y: 0}, {X: 30, Y: 0}, {X: 0, Y: 20}}
)

var library = []Template{
	{Kind: KindResistor, Name: "Resistor", Value: "1kΩ", Symbol: "⏛"},
	{Kind: KindCapacitor, Name: "Capacitor", Value: "10μF", Symbol: "⟨⟩"},
	{Kind: KindInductor, Name: "Inductor", Value: "1mH", Symbol: "⌇⌇⌇"},
	{Kind: KindVoltageSource, Name: "Voltage Source", Value: "5V", Symbol: "⊕"},
	{Kind: KindCurrentSource, Name: "Current Source", Value: "1mA", Symbol: "⟳"},
	{Kind: KindGround, Name: "Ground", Value: "GND", Symbol: "⏚"},
	{Kind: KindDiode, Name: "Diode", Value: "1N4148", Symbol: "◁▷"},
	{Kind: KindTransistor, Name: "Transistor", Value: "2N2222", Symbol: "⊥", Ports: transistorPorts},
	{Kind: KindLightbulb, Name: "Light Bulb", Value: "60W", Symbol: "💡", States: []string{"off", "on"}},
	{Kind: KindSwitch, Name: "Switch", Value: "SW1", Symbol: "⏣", States: []string{"open", "closed"}},
}

var registry = func() map[Kind]*Template {
	m := make(map[Kind]*Template, len(library))
	for i := range library {
		t := &library[i]
		if t.Ports == nil {
			t.Ports = twoPorts
		}
		if t.Size == (geom.Size{}) {
			t.Size = bodySize
		}
		m[t.Kind] = t
	}
	return m
}()

// Lookup returns the template registered for k.
func Lookup(k Kind) (Template, error) {
	t, ok := registry[k]
	if !ok {
		return Template{}, fmt.Errorf("circuit: %v: %w", k, ErrUnknownType)
	}
	return t.clone(), nil
}

// Library returns every template in palette order.
func Library() []Template {
	out := make([]Template, len(library))
	for i := range library {
		out[i] = library[i].clone()
	}
	return out
}

func (t *Template) clone() Template {
	c := *t
	c.Ports = append([]geom.Point(nil), t.Ports...)
	c.States = append([]string(nil), t.States...)
	return c
}
