package domain

import "fmt"

// Circuit owns an arena of components addressed by Handle. Input and output
// ports are tracked in component order; that order defines the external signal
// indices used by Process and by custom components wrapping the circuit.
type Circuit struct {
	arena       map[Handle]*Component
	components  []*Component
	inputs      []*Component
	outputs     []*Component
	settleLimit int
	hooks       Hooks
}

// Option configures a Circuit.
type Option func(*Circuit)

// WithSettleLimit caps how many times a single component may be evaluated in
// one propagation run. Zero keeps the default of len(components)+1.
func WithSettleLimit(n int) Option {
	return func(c *Circuit) {
		c.settleLimit = n
	}
}

// WithHooks installs propagation observers.
func WithHooks(h Hooks) Option {
	return func(c *Circuit) {
		c.hooks = h
	}
}

// NewCircuit creates an empty circuit.
func NewCircuit(opts ...Option) *Circuit {
	c := &Circuit{arena: make(map[Handle]*Component)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of components.
func (c *Circuit) Len() int { return len(c.components) }

// Components returns the components in insertion order.
func (c *Circuit) Components() []*Component {
	return append([]*Component(nil), c.components...)
}

// Inputs returns the input ports in external signal order.
func (c *Circuit) Inputs() []*Component {
	return append([]*Component(nil), c.inputs...)
}

// Outputs returns the output ports in external signal order.
func (c *Circuit) Outputs() []*Component {
	return append([]*Component(nil), c.outputs...)
}

// Component looks up a component by handle.
func (c *Circuit) Component(h Handle) (*Component, bool) {
	comp, ok := c.arena[h]
	return comp, ok
}

// At returns the i-th component, or nil when out of range.
func (c *Circuit) At(i int) *Component {
	if i < 0 || i >= len(c.components) {
		return nil
	}
	return c.components[i]
}

// IndexOf returns the position of h in component order, or -1.
func (c *Circuit) IndexOf(h Handle) int {
	for i, comp := range c.components {
		if comp.handle == h {
			return i
		}
	}
	return -1
}

// Add appends a component at the given position.
func (c *Circuit) Add(comp *Component, at Point) error {
	return c.Insert(comp, len(c.components), at)
}

// Insert places a component at index in component order. The component must not
// belong to a circuit, and any connections it still carries must lead to
// components of this circuit.
func (c *Circuit) Insert(comp *Component, index int, at Point) error {
	if comp == nil {
		return structural("add", "nil component")
	}
	if comp.owner != nil {
		return fmt.Errorf("add %s: %w", comp, ErrAlreadyInCircuit)
	}
	for _, conn := range comp.Connections() {
		for _, end := range []Handle{conn.from.Component, conn.to.Component} {
			if _, ok := c.arena[end]; !ok && end != comp.handle {
				return structural("add", "%s is connected to %s outside the circuit", comp, end)
			}
		}
	}
	index = max(0, min(index, len(c.components)))

	c.components = append(c.components, nil)
	copy(c.components[index+1:], c.components[index:])
	c.components[index] = comp
	c.arena[comp.handle] = comp
	comp.owner = c
	comp.position = at
	if comp.kind.IsPort() {
		c.reindexPorts()
	}
	return nil
}

// Remove disconnects every connection of the component, then takes it out of
// the circuit. Components that lost an incoming signal are re-settled. When that
// does not settle the component is put back with its connections and values.
func (c *Circuit) Remove(h Handle) error {
	comp, ok := c.arena[h]
	if !ok {
		return fmt.Errorf("remove %s: %w", h, ErrNotInCircuit)
	}

	snap := c.snapshotValues()
	index := c.IndexOf(h)
	conns := uniqueConns(comp.Connections())

	var touched []Handle
	for _, conn := range conns {
		if conn.to.Component != h {
			touched = append(touched, conn.to.Component)
		}
		c.detach(conn)
	}
	c.components = append(c.components[:index], c.components[index+1:]...)
	delete(c.arena, h)
	comp.owner = nil
	if comp.kind.IsPort() {
		c.reindexPorts()
	}

	// Inputs were reset by the teardown; keep the detached component consistent.
	err := comp.update()
	if err == nil {
		err = c.settle(touched...)
	}
	if err != nil {
		c.components = append(c.components, nil)
		copy(c.components[index+1:], c.components[index:])
		c.components[index] = comp
		c.arena[h] = comp
		comp.owner = c
		if comp.kind.IsPort() {
			c.reindexPorts()
		}
		for _, conn := range conns {
			c.attach(conn)
		}
		c.restoreValues(snap)
		return fmt.Errorf("remove %s: %w", comp, err)
	}
	return nil
}

// Move updates the opaque position of a component.
func (c *Circuit) Move(h Handle, to Point) error {
	comp, ok := c.arena[h]
	if !ok {
		return fmt.Errorf("move %s: %w", h, ErrNotInCircuit)
	}
	comp.position = to
	return nil
}

// Connect wires an output to an input. An existing connection on the input is
// replaced. The source value is pushed across the new edge immediately; when
// that never settles the edit is rolled back and a *CycleError returned.
func (c *Circuit) Connect(from, to SlotRef, waypoints []Point) (*Connection, error) {
	src, ok := c.arena[from.Component]
	if !ok {
		return nil, structural("connect", "source %s not in circuit", from.Component)
	}
	dst, ok := c.arena[to.Component]
	if !ok {
		return nil, structural("connect", "destination %s not in circuit", to.Component)
	}
	out := src.Output(from.Index)
	if out == nil {
		return nil, structural("connect", "%s has no output %d", src, from.Index)
	}
	in := dst.Input(to.Index)
	if in == nil {
		return nil, structural("connect", "%s has no input %d", dst, to.Index)
	}

	snap := c.snapshotValues()
	before := in.value
	displaced := in.conn
	if displaced != nil {
		c.detach(displaced)
	}

	conn := &Connection{from: from, to: to, waypoints: clonePoints(waypoints)}
	out.attach(conn)
	in.conn = conn
	in.value = out.value

	if in.value == before {
		return conn, nil
	}
	if err := c.settle(dst.handle); err != nil {
		c.detach(conn)
		if displaced != nil {
			c.attach(displaced)
		}
		c.restoreValues(snap)
		return nil, err
	}
	return conn, nil
}

// Disconnect removes a connection from both endpoints, clears the destination
// input to false and re-settles the destination component. A disconnect that
// does not settle is rolled back.
func (c *Circuit) Disconnect(conn *Connection) error {
	if conn == nil {
		return structural("disconnect", "nil connection")
	}
	dst, ok := c.arena[conn.to.Component]
	if !ok || dst.Input(conn.to.Index) == nil || dst.inputs[conn.to.Index].conn != conn {
		return fmt.Errorf("disconnect %s: %w", conn, ErrNotInCircuit)
	}
	snap := c.snapshotValues()
	c.detach(conn)
	if err := c.settle(dst.handle); err != nil {
		c.attach(conn)
		c.restoreValues(snap)
		return fmt.Errorf("disconnect %s: %w", conn, err)
	}
	return nil
}

// ConnectionTo returns the connection feeding the given input, if any.
func (c *Circuit) ConnectionTo(ref SlotRef) *Connection {
	comp, ok := c.arena[ref.Component]
	if !ok {
		return nil
	}
	in := comp.Input(ref.Index)
	if in == nil {
		return nil
	}
	return in.conn
}

// Connections returns every connection once, ordered by source component and
// then by output slot and registration order.
func (c *Circuit) Connections() []*Connection {
	var out []*Connection
	for _, comp := range c.components {
		for i := range comp.outputs {
			out = append(out, comp.outputs[i].conns...)
		}
	}
	return out
}

// SetInput stores a value on an input slot and propagates the consequences.
// Every slot keeps its previous value when propagation does not settle.
func (c *Circuit) SetInput(ref SlotRef, v bool) error {
	comp, ok := c.arena[ref.Component]
	if !ok {
		return fmt.Errorf("set input %s: %w", ref.Component, ErrNotInCircuit)
	}
	in := comp.Input(ref.Index)
	if in == nil {
		return structural("set input", "%s has no input %d", comp, ref.Index)
	}
	snap := c.snapshotValues()
	in.value = v
	if err := c.settle(comp.handle); err != nil {
		c.restoreValues(snap)
		return err
	}
	return nil
}

// Toggle inverts an input slot value.
func (c *Circuit) Toggle(ref SlotRef) error {
	comp, ok := c.arena[ref.Component]
	if !ok {
		return fmt.Errorf("toggle %s: %w", ref.Component, ErrNotInCircuit)
	}
	in := comp.Input(ref.Index)
	if in == nil {
		return structural("toggle", "%s has no input %d", comp, ref.Index)
	}
	return c.SetInput(ref, !in.value)
}

// Process drives the input ports with the stimulus and returns the output port
// values. Ports are set in order and the circuit settles after each one, so a
// latch sees its inputs change one at a time. Extra values are ignored and ports
// without a value keep their previous one. When any step does not settle, every
// slot is restored to its value before the call.
func (c *Circuit) Process(stimulus ...bool) ([]bool, error) {
	snap := c.snapshotValues()
	for i, port := range c.inputs {
		if i < len(stimulus) {
			port.inputs[0].value = stimulus[i]
		}
		if err := c.settle(port.handle); err != nil {
			c.restoreValues(snap)
			return nil, err
		}
	}
	return c.OutputValues(), nil
}

// OutputValues reads the output ports without propagating.
func (c *Circuit) OutputValues() []bool {
	out := make([]bool, len(c.outputs))
	for i, port := range c.outputs {
		out[i] = port.outputs[0].value
	}
	return out
}

// Settle re-evaluates every component and propagates until stable.
func (c *Circuit) Settle() error {
	return c.settleAll()
}

// Clone builds an independent copy: every component is cloned with its slot
// values and every connection re-attached with the same waypoints. The copy is
// settled exactly when the original is, so loops that only hold under the
// current inputs survive cloning.
func (c *Circuit) Clone() (*Circuit, error) {
	clone := NewCircuit(WithSettleLimit(c.settleLimit))
	handles := make(map[Handle]Handle, len(c.components))
	for _, comp := range c.components {
		cc, err := comp.shellClone()
		if err != nil {
			return nil, err
		}
		cc.copyValues(comp)
		if err := clone.Add(cc, comp.position); err != nil {
			return nil, err
		}
		handles[comp.handle] = cc.handle
	}
	for _, conn := range c.Connections() {
		clone.attach(&Connection{
			from:      SlotRef{Component: handles[conn.from.Component], Index: conn.from.Index},
			to:        SlotRef{Component: handles[conn.to.Component], Index: conn.to.Index},
			waypoints: clonePoints(conn.waypoints),
		})
	}
	return clone, nil
}

// Clear detaches every component and returns them in order. Connections among
// them are kept so the same components can be repopulated later.
func (c *Circuit) Clear() []*Component {
	comps := c.components
	for _, comp := range comps {
		comp.owner = nil
	}
	c.arena = make(map[Handle]*Component)
	c.components = nil
	c.inputs = nil
	c.outputs = nil
	return comps
}

// Populate replaces the circuit contents with comps, in order. Nothing changes
// when a component belongs to another circuit or carries a connection to a
// component outside comps.
func (c *Circuit) Populate(comps []*Component) error {
	set := make(map[Handle]bool, len(comps))
	for _, comp := range comps {
		if comp == nil {
			return structural("populate", "nil component")
		}
		if comp.owner != nil && comp.owner != c {
			return fmt.Errorf("populate %s: %w", comp, ErrAlreadyInCircuit)
		}
		if set[comp.handle] {
			return structural("populate", "%s listed twice", comp)
		}
		set[comp.handle] = true
	}
	for _, comp := range comps {
		for _, conn := range comp.Connections() {
			if !set[conn.from.Component] || !set[conn.to.Component] {
				return structural("populate", "%s leaves the component set", conn)
			}
		}
	}

	c.Clear()
	for _, comp := range comps {
		c.components = append(c.components, comp)
		c.arena[comp.handle] = comp
		comp.owner = c
	}
	c.reindexPorts()
	return nil
}

func (c *Circuit) reindexPorts() {
	c.inputs = c.inputs[:0]
	c.outputs = c.outputs[:0]
	for _, comp := range c.components {
		switch comp.kind {
		case KindInput:
			c.inputs = append(c.inputs, comp)
		case KindOutput:
			c.outputs = append(c.outputs, comp)
		}
	}
}

// detach unregisters conn from both endpoints and clears the destination input.
func (c *Circuit) detach(conn *Connection) {
	if src, ok := c.arena[conn.from.Component]; ok {
		src.outputs[conn.from.Index].detach(conn)
	}
	if dst, ok := c.arena[conn.to.Component]; ok {
		in := &dst.inputs[conn.to.Index]
		if in.conn == conn {
			in.conn = nil
			in.value = false
		}
	}
}

// attach re-registers a previously detached connection without propagating.
func (c *Circuit) attach(conn *Connection) {
	src := c.arena[conn.from.Component]
	dst := c.arena[conn.to.Component]
	src.outputs[conn.from.Index].attach(conn)
	dst.inputs[conn.to.Index].conn = conn
}

// uniqueConns drops repeats, which a component wired to itself lists twice.
func uniqueConns(conns []*Connection) []*Connection {
	seen := make(map[*Connection]bool, len(conns))
	out := make([]*Connection, 0, len(conns))
	for _, conn := range conns {
		if !seen[conn] {
			seen[conn] = true
			out = append(out, conn)
		}
	}
	return out
}
