// Package circuit holds the schematic model of the editor: the component
// registry, the circuit document with its structural mutations, the wiring
// state machine and the editor session that ties pointer gestures to them.
//
// # Model
//
// A Document exclusively owns an ordered list of components and an ordered
// list of wires. Each component carries its ports; a port offset is stored
// relative to the component origin and is rotated in place when the
// component rotates, so port identity never changes.
//
// A wire references two ports by component id and port id and caches the
// absolute position of both ends. The cache is a materialized view: every
// mutation that moves a port (Move, Rotate) recomputes the cached ends of
// the wires touching that component before returning, and nothing else
// writes them.
//
// Ids are allocated from a single counter shared by components and wires
// ("comp-N", "wire-N", ports "port-N-k"). The counter only grows; Clear
// and Load never lower it.
//
// # Usage
//
//	doc := circuit.NewDocument()
//	r, _ := doc.Place(circuit.KindResistor)
//	v, _ := doc.Place(circuit.KindVoltageSource)
//	_ = doc.SetValue(v.ID, "10V")
//
//	conn := circuit.NewConnector(doc)
//	_ = conn.Begin(r.ID, r.Ports[1].ID)
//	w, err := conn.Complete(v.ID, v.Ports[0].ID)
//
// Editors driven by pointer events should use Editor, which owns a
// Document and a Connector and tracks selection, modes and dragging.
package circuit
