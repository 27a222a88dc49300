package circuit

import "fmt"

// ConnState is the state of the wiring gesture.
type ConnState uint8

const (
	// ConnIdle means no wire is being drawn.
	ConnIdle ConnState = iota
	// ConnPending means a start port has been chosen and the gesture awaits
	// its end port.
	ConnPending
)

var connStateNames = map[ConnState]string{
	ConnIdle:    "Idle",
	ConnPending: "Pending",
}

func (s ConnState) String() string {
	if name, ok := connStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ConnState(%d)", s)
}

// Connector tracks the pending connection slot and turns completed
// gestures into wires on its document.
type Connector struct {
	doc   *Document
	state ConnState
	start Endpoint
}

// NewConnector returns an idle connector over doc.
func NewConnector(doc *Document) *Connector {
	return &Connector{doc: doc}
}

// State returns the current gesture state.
func (c *Connector) State() ConnState { return c.state }

// Start returns the pending start endpoint, if any.
func (c *Connector) Start() (Endpoint, bool) {
	if c.state != ConnPending {
		return Endpoint{}, false
	}
	return c.start, true
}

// Begin records a start port and enters Pending. Beginning again while
// pending replaces the start port. An unknown port leaves the connector
// Idle.
func (c *Connector) Begin(componentID, portID string) error {
	e, err := c.doc.Endpoint(componentID, portID)
	if err != nil {
		c.Cancel()
		return err
	}
	c.start = e
	c.state = ConnPending
	return nil
}

// Complete ends the gesture on the given port. Whatever the outcome the
// connector returns to Idle. Ending on the start component yields
// ErrInvalidConnection and no wire.
func (c *Connector) Complete(componentID, portID string) (Wire, error) {
	if c.state != ConnPending {
		return Wire{}, fmt.Errorf("circuit: no pending connection: %w", ErrInvalidConnection)
	}
	start := c.start
	c.Cancel()

	if start.ComponentID == componentID {
		return Wire{}, fmt.Errorf("circuit: %s to %s.%s: %w", start, componentID, portID, ErrInvalidConnection)
	}
	return c.doc.addWire(start, Endpoint{ComponentID: componentID, PortID: portID})
}

// Cancel drops any pending connection.
func (c *Connector) Cancel() {
	c.state = ConnIdle
	c.start = Endpoint{}
}

// Connect creates a wire in one step, as Begin followed by Complete.
func (c *Connector) Connect(fromComponent, fromPort, toComponent, toPort string) (Wire, error) {
	if err := c.Begin(fromComponent, fromPort); err != nil {
		return Wire{}, err
	}
	return c.Complete(toComponent, toPort)
}

// DeleteWire removes a wire by id.
func (c *Connector) DeleteWire(id string) error {
	return c.doc.DeleteWire(id)
}
