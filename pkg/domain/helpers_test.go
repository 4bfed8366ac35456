package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func out0(c *Component) SlotRef { return SlotRef{Component: c.Handle(), Index: 0} }

func in(c *Component, i int) SlotRef { return SlotRef{Component: c.Handle(), Index: i} }

func add(t *testing.T, c *Circuit, comp *Component) *Component {
	t.Helper()
	require.NoError(t, c.Add(comp, Point{}))
	return comp
}

func wire(t *testing.T, c *Circuit, from, to SlotRef) *Connection {
	t.Helper()
	conn, err := c.Connect(from, to, nil)
	require.NoError(t, err)
	return conn
}

// gateCircuit wires n input ports into one gate feeding one output port.
func gateCircuit(t *testing.T, kind Kind, n int) *Circuit {
	t.Helper()
	c := NewCircuit()
	gate, err := NewComponent(kind, n, 0)
	require.NoError(t, err)
	ports := make([]*Component, n)
	for i := range ports {
		ports[i] = add(t, c, MustComponent(KindInput))
	}
	add(t, c, gate)
	out := add(t, c, MustComponent(KindOutput))
	for i, p := range ports {
		wire(t, c, out0(p), in(gate, i))
	}
	wire(t, c, out0(gate), in(out, 0))
	return c
}

// notCircuit is Input -> NOT -> Output.
func notCircuit(t *testing.T) (*Circuit, *Component) {
	t.Helper()
	c := NewCircuit()
	i := add(t, c, MustComponent(KindInput))
	n := add(t, c, MustComponent(KindNot))
	o := add(t, c, MustComponent(KindOutput))
	wire(t, c, out0(i), in(n, 0))
	wire(t, c, out0(n), in(o, 0))
	return c, n
}

// gatedLoop is p -> OR.in1, OR -> NOT -> OR.in0, OR -> q. The loop only holds
// while p is high; with p low it oscillates.
func gatedLoop(t *testing.T) (c *Circuit, p, q *Component) {
	t.Helper()
	c = NewCircuit()
	p = add(t, c, MustComponent(KindInput))
	or := add(t, c, MustComponent(KindOr))
	not := add(t, c, MustComponent(KindNot))
	q = add(t, c, MustComponent(KindOutput))
	wire(t, c, out0(p), in(or, 1))
	wire(t, c, out0(or), in(not, 0))
	wire(t, c, out0(or), in(q, 0))
	require.NoError(t, c.SetInput(in(p, 0), true))
	wire(t, c, out0(not), in(or, 0))
	return c, p, q
}
