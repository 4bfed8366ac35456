package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotEndToEnd(t *testing.T) {
	c, not := notCircuit(t)

	got, err := c.Process(true)
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, got)

	got, err = c.Process(false)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, got)

	// Removing the NOT -> Output edge drops the output port back to false.
	conn := not.Output(0).Connections()[0]
	require.NoError(t, c.Disconnect(conn))
	got, err = c.Process()
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, got)
}

func TestProcessIsIdempotent(t *testing.T) {
	c := gateCircuit(t, KindXor, 2)
	first, err := c.Process(true, false)
	require.NoError(t, err)
	second, err := c.Process(true, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Same graph and stimulus sequence built twice gives the same outputs.
	other := gateCircuit(t, KindXor, 2)
	for _, stim := range [][]bool{{true, true}, {false, true}, {false, false}} {
		a, err := c.Process(stim...)
		require.NoError(t, err)
		b, err := other.Process(stim...)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestProcessPartialStimulus(t *testing.T) {
	c := gateCircuit(t, KindAnd, 2)
	_, err := c.Process(true, true)
	require.NoError(t, err)

	// Only the first port is driven; the second keeps true.
	got, err := c.Process(false)
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, got)
	got, err = c.Process(true)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, got)

	// Extra stimulus is ignored.
	got, err = c.Process(true, true, false, false)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, got)
}

func TestConnectReplacesExistingInput(t *testing.T) {
	c := NewCircuit()
	a := add(t, c, MustComponent(KindInput))
	b := add(t, c, MustComponent(KindInput))
	g := add(t, c, MustComponent(KindOr))

	first := wire(t, c, out0(a), in(g, 0))
	second := wire(t, c, out0(b), in(g, 0))

	assert.Empty(t, a.Output(0).Connections())
	assert.Equal(t, []*Connection{second}, b.Output(0).Connections())
	assert.Same(t, second, g.Input(0).Connection())
	assert.NotSame(t, first, c.ConnectionTo(in(g, 0)))
	assert.Len(t, c.Connections(), 1)
}

func TestConnectPropagatesImmediately(t *testing.T) {
	c := NewCircuit()
	src := add(t, c, MustComponent(KindNot)) // outputs true
	dst := add(t, c, MustComponent(KindIs))

	wire(t, c, out0(src), in(dst, 0))
	assert.True(t, dst.Input(0).Value())
	assert.True(t, dst.Output(0).Value())
}

func TestDisconnectClearsDestination(t *testing.T) {
	c := NewCircuit()
	src := add(t, c, MustComponent(KindNot))
	dst := add(t, c, MustComponent(KindIs))
	conn := wire(t, c, out0(src), in(dst, 0))

	require.NoError(t, c.Disconnect(conn))
	assert.False(t, dst.Input(0).Value())
	assert.Nil(t, dst.Input(0).Connection())
	assert.Empty(t, src.Output(0).Connections())
	// The destination was re-settled.
	assert.False(t, dst.Output(0).Value())

	assert.ErrorIs(t, c.Disconnect(conn), ErrNotInCircuit)
}

func TestConnectStructuralErrors(t *testing.T) {
	c := NewCircuit()
	g := add(t, c, MustComponent(KindAnd))
	stranger := MustComponent(KindIs)

	tests := []struct {
		name     string
		from, to SlotRef
	}{
		{"unknown source", out0(stranger), in(g, 0)},
		{"unknown destination", out0(g), in(stranger, 0)},
		{"output index", SlotRef{Component: g.Handle(), Index: 1}, in(g, 0)},
		{"input index", out0(g), SlotRef{Component: g.Handle(), Index: 2}},
		{"negative index", out0(g), SlotRef{Component: g.Handle(), Index: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Connect(tt.from, tt.to, nil)
			var se *StructuralError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, "connect", se.Op)
			assert.ErrorIs(t, err, ErrStructural)
		})
	}
	assert.Empty(t, c.Connections())
}

func TestWaypointsAreCopied(t *testing.T) {
	c := NewCircuit()
	a := add(t, c, MustComponent(KindInput))
	b := add(t, c, MustComponent(KindOutput))
	path := []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}
	conn, err := c.Connect(out0(a), in(b, 0), path)
	require.NoError(t, err)

	path[0].X = 99
	assert.Equal(t, []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, conn.Waypoints())
	assert.Equal(t, Wire{From: out0(a), To: in(b, 0), Waypoints: []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}}, conn.Spec())
}

func TestAddRejectsOwnedComponent(t *testing.T) {
	c := NewCircuit()
	g := add(t, c, MustComponent(KindAnd))
	assert.ErrorIs(t, c.Add(g, Point{}), ErrAlreadyInCircuit)
	assert.ErrorIs(t, NewCircuit().Add(g, Point{}), ErrAlreadyInCircuit)
	assert.Equal(t, 1, c.Len())
}

func TestRemoveResettlesNeighbours(t *testing.T) {
	c := NewCircuit()
	i := add(t, c, MustComponent(KindInput))
	buf := add(t, c, MustComponent(KindIs))
	o := add(t, c, MustComponent(KindOutput))
	wire(t, c, out0(i), in(buf, 0))
	wire(t, c, out0(buf), in(o, 0))

	got, err := c.Process(true)
	require.NoError(t, err)
	require.Equal(t, []bool{true}, got)

	require.NoError(t, c.Remove(buf.Handle()))
	assert.Equal(t, []bool{false}, c.OutputValues())
	assert.Empty(t, c.Connections())
	assert.Empty(t, i.Output(0).Connections())
	assert.Nil(t, buf.Circuit())
	assert.Equal(t, -1, c.IndexOf(buf.Handle()))

	assert.ErrorIs(t, c.Remove(buf.Handle()), ErrNotInCircuit)
}

func TestPortOrderFollowsComponentOrder(t *testing.T) {
	c := NewCircuit()
	a := add(t, c, MustComponent(KindInput))
	add(t, c, MustComponent(KindAnd))
	b := add(t, c, MustComponent(KindInput))
	assert.Equal(t, []*Component{a, b}, c.Inputs())

	require.NoError(t, c.Remove(a.Handle()))
	assert.Equal(t, []*Component{b}, c.Inputs())

	// Re-inserting at the front restores the original port order.
	require.NoError(t, c.Insert(a, 0, Point{}))
	assert.Equal(t, []*Component{a, b}, c.Inputs())
	assert.Equal(t, 0, c.IndexOf(a.Handle()))
}

func TestMove(t *testing.T) {
	c := NewCircuit()
	g := add(t, c, MustComponent(KindAnd))
	require.NoError(t, c.Move(g.Handle(), Point{X: 5, Y: 6}))
	assert.Equal(t, Point{X: 5, Y: 6}, g.Position())
	assert.ErrorIs(t, c.Move(Handle(0), Point{}), ErrNotInCircuit)
}

func TestToggle(t *testing.T) {
	c := NewCircuit()
	n := add(t, c, MustComponent(KindNot))
	require.NoError(t, c.Toggle(in(n, 0)))
	assert.False(t, n.Output(0).Value())
	require.NoError(t, c.Toggle(in(n, 0)))
	assert.True(t, n.Output(0).Value())
}

func TestCloneIsIndependent(t *testing.T) {
	c, not := notCircuit(t)
	require.NoError(t, c.Move(not.Handle(), Point{X: 7, Y: 8}))

	clone, err := c.Clone()
	require.NoError(t, err)
	require.Equal(t, c.Len(), clone.Len())
	assert.Len(t, clone.Connections(), len(c.Connections()))
	assert.Equal(t, c.Serialize(), clone.Serialize())

	for i := 0; i < c.Len(); i++ {
		assert.NotEqual(t, c.At(i).Handle(), clone.At(i).Handle())
		assert.Same(t, clone, clone.At(i).Circuit())
	}

	_, err = clone.Process(true)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, c.OutputValues())
	assert.Equal(t, []bool{false}, clone.OutputValues())

	require.NoError(t, clone.Remove(clone.At(1).Handle()))
	assert.Equal(t, 3, c.Len())
	assert.Len(t, c.Connections(), 2)
}

func TestClearAndPopulate(t *testing.T) {
	c, _ := notCircuit(t)
	comps := c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Inputs())
	require.Len(t, comps, 3)

	require.NoError(t, c.Populate(comps))
	assert.Equal(t, 3, c.Len())
	assert.Len(t, c.Connections(), 2)
	got, err := c.Process(true)
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, got)
}

func TestPopulateRejectsDanglingConnections(t *testing.T) {
	c, not := notCircuit(t)
	comps := c.Clear()

	// The NOT alone still carries edges to the two ports.
	err := c.Populate([]*Component{not})
	assert.ErrorIs(t, err, ErrStructural)
	assert.Equal(t, 0, c.Len())

	other := NewCircuit()
	owned := add(t, other, MustComponent(KindAnd))
	assert.ErrorIs(t, c.Populate(append(comps, owned)), ErrAlreadyInCircuit)
}

func TestTruthTable(t *testing.T) {
	c := gateCircuit(t, KindXor, 2)
	rows, err := c.TruthTable()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, TruthRow{Inputs: []bool{false, true}, Outputs: []bool{true}}, rows[1])
	assert.Equal(t, TruthRow{Inputs: []bool{true, true}, Outputs: []bool{false}}, rows[3])

	// The receiver is left untouched.
	assert.Equal(t, []bool{false}, c.OutputValues())
}
