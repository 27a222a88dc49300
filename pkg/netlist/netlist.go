// Package netlist derives electrical nets from the wires of a circuit and
// exports them as JSON or as a KiCad-style S-expression netlist.
package netlist

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

// PortRef identifies a port in a netlist. Pin is the 1-based position of
// the port on its component.
type PortRef struct {
	ComponentID string `json:"component"`
	PortID      string `json:"port"`
	Pin         int    `json:"pin"`
}

func (p PortRef) key() string {
	return p.ComponentID + "/" + p.PortID
}

// Net is a set of ports joined by wires.
type Net struct {
	Code  int       `json:"code"`
	Name  string    `json:"name"`
	Ports []PortRef `json:"ports"`
}

// Part is the component information carried into exports.
type Part struct {
	Ref   string `json:"ref"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Netlist groups ports into nets with a union-find structure.
type Netlist struct {
	parent map[string]string
	rank   map[string]int
	order  map[string]int // port key -> enumeration index
	ports  []PortRef

	Parts []Part
	// Nets is filled by Finalize. Ports with no wire are not listed.
	Nets []*Net
}

// New creates a netlist in which every port is its own net.
func New(ports []PortRef) *Netlist {
	nl := &Netlist{
		parent: make(map[string]string, len(ports)),
		rank:   make(map[string]int, len(ports)),
		order:  make(map[string]int, len(ports)),
		ports:  append([]PortRef(nil), ports...),
	}
	for i, p := range ports {
		k := p.key()
		nl.parent[k] = k
		nl.order[k] = i
	}
	return nl
}

// Build derives the netlist of a circuit snapshot.
func Build(snap circuit.Snapshot) *Netlist {
	var ports []PortRef
	parts := make([]Part, 0, len(snap.Components))
	for _, c := range snap.Components {
		parts = append(parts, Part{Ref: c.ID, Type: c.Kind.String(), Value: c.Value})
		for i, p := range c.Ports {
			ports = append(ports, PortRef{ComponentID: c.ID, PortID: p.ID, Pin: i + 1})
		}
	}

	nl := New(ports)
	nl.Parts = parts
	for _, w := range snap.Wires {
		nl.Connect(w.From.ComponentID, w.From.PortID, w.To.ComponentID, w.To.PortID)
	}
	nl.Finalize()
	return nl
}

// Connect joins the nets of two ports. Unknown ports are ignored.
func (nl *Netlist) Connect(compA, portA, compB, portB string) {
	a, b := compA+"/"+portA, compB+"/"+portB
	if _, ok := nl.parent[a]; !ok {
		return
	}
	if _, ok := nl.parent[b]; !ok {
		return
	}

	ra, rb := nl.find(a), nl.find(b)
	if ra == rb {
		return
	}
	switch {
	case nl.rank[ra] < nl.rank[rb]:
		nl.parent[ra] = rb
	case nl.rank[ra] > nl.rank[rb]:
		nl.parent[rb] = ra
	default:
		nl.parent[rb] = ra
		nl.rank[ra]++
	}
}

// find returns the root key with path compression.
func (nl *Netlist) find(k string) string {
	root := k
	for nl.parent[root] != root {
		root = nl.parent[root]
	}
	for k != root {
		next := nl.parent[k]
		nl.parent[k] = root
		k = next
	}
	return root
}

// SameNet reports whether two ports are electrically joined.
func (nl *Netlist) SameNet(compA, portA, compB, portB string) bool {
	a, b := compA+"/"+portA, compB+"/"+portB
	if _, ok := nl.parent[a]; !ok {
		return false
	}
	if _, ok := nl.parent[b]; !ok {
		return false
	}
	return nl.find(a) == nl.find(b)
}

// Finalize builds Nets from the union-find state. Nets are ordered by
// their first port in component order and numbered from 1.
func (nl *Netlist) Finalize() {
	groups := make(map[string][]PortRef)
	for _, p := range nl.ports {
		root := nl.find(p.key())
		groups[root] = append(groups[root], p)
	}

	nl.Nets = make([]*Net, 0, len(groups))
	for _, ports := range groups {
		if len(ports) < 2 {
			continue
		}
		sort.Slice(ports, func(i, j int) bool {
			return nl.order[ports[i].key()] < nl.order[ports[j].key()]
		})
		nl.Nets = append(nl.Nets, &Net{Ports: ports})
	}
	sort.Slice(nl.Nets, func(i, j int) bool {
		return nl.order[nl.Nets[i].Ports[0].key()] < nl.order[nl.Nets[j].Ports[0].key()]
	})
	for i, n := range nl.Nets {
		n.Code = i + 1
		n.Name = fmt.Sprintf("Net-%d", n.Code)
	}
}

// NetOf returns the net containing a port.
func (nl *Netlist) NetOf(componentID, portID string) (*Net, bool) {
	for _, n := range nl.Nets {
		for _, p := range n.Ports {
			if p.ComponentID == componentID && p.PortID == portID {
				return n, true
			}
		}
	}
	return nil, false
}

// Unconnected returns the ports that belong to no net.
func (nl *Netlist) Unconnected() []PortRef {
	inNet := make(map[string]bool)
	for _, n := range nl.Nets {
		for _, p := range n.Ports {
			inNet[p.key()] = true
		}
	}
	var out []PortRef
	for _, p := range nl.ports {
		if !inNet[p.key()] {
			out = append(out, p)
		}
	}
	return out
}

// ExportJSON exports the netlist as indented JSON.
func (nl *Netlist) ExportJSON() ([]byte, error) {
	if nl.Nets == nil {
		return nil, fmt.Errorf("netlist: not finalized")
	}

	output := struct {
		Version     string    `json:"version"`
		NetCount    int       `json:"net_count"`
		Parts       []Part    `json:"parts"`
		Nets        []*Net    `json:"nets"`
		Unconnected []PortRef `json:"unconnected"`
	}{
		Version:     "1.0",
		NetCount:    len(nl.Nets),
		Parts:       nl.Parts,
		Nets:        nl.Nets,
		Unconnected: nl.Unconnected(),
	}
	return json.MarshalIndent(output, "", "  ")
}

// ExportSExpr writes a KiCad-style netlist:
//
//	(export (version D)
//	  (design (source "...") (tool "..."))
//	  (components (comp (ref comp-1) (value 1k) (libsource (part resistor))) ...)
//	  (nets (net (code 1) (name Net-1) (node (ref comp-1) (pin 2)) ...) ...))
func (nl *Netlist) ExportSExpr(source string) (string, error) {
	if nl.Nets == nil {
		return "", fmt.Errorf("netlist: not finalized")
	}

	var b strings.Builder
	b.WriteString("(export (version D)\n")
	fmt.Fprintf(&b, "  (design (source %s) (tool %s))\n", atom(source), atom("otc"))
	b.WriteString("  (components")
	for _, p := range nl.Parts {
		fmt.Fprintf(&b, "\n    (comp (ref %s) (value %s) (libsource (part %s)))", atom(p.Ref), atom(p.Value), atom(p.Type))
	}
	b.WriteString(")\n")
	b.WriteString("  (nets")
	for _, n := range nl.Nets {
		fmt.Fprintf(&b, "\n    (net (code %d) (name %s)", n.Code, atom(n.Name))
		for _, p := range n.Ports {
			fmt.Fprintf(&b, "\n      (node (ref %s) (pin %d))", atom(p.ComponentID), p.Pin)
		}
		b.WriteString(")")
	}
	b.WriteString("))\n")
	return b.String(), nil
}

// atom writes s bare when it is a plain symbol and quoted otherwise.
func atom(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\r\n()\";") {
		r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
		return `"` + r.Replace(s) + `"`
	}
	return s
}
