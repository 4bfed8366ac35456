package domain

import "fmt"

// Component is a fixed-arity evaluation unit. Its arity never changes after
// construction; its slots live and die with it.
type Component struct {
	handle   Handle
	kind     Kind
	label    string
	inputs   []InputSlot
	outputs  []OutputSlot
	inner    *Circuit // KindCustom only
	position Point
	owner    *Circuit
}

// NewComponent builds a gate or port. Zero or negative counts select the kind's
// default arity. Ports are always 1/1. The new component is evaluated once, so
// a fresh NOT already outputs true.
func NewComponent(kind Kind, inputs, outputs int) (*Component, error) {
	if kind == KindCustom {
		return nil, fmt.Errorf("%w: custom components are built with NewCustom", ErrInvalidArity)
	}
	if _, ok := rules[kind]; !ok {
		return nil, &UnknownKindError{Kind: kind.String()}
	}
	defIn, defOut := kind.DefaultArity()
	if inputs <= 0 {
		inputs = defIn
	}
	if outputs <= 0 {
		outputs = defOut
	}
	if kind.IsPort() && (inputs != 1 || outputs != 1) {
		return nil, fmt.Errorf("%w: %s ports are 1/1, got %d/%d", ErrInvalidArity, kind, inputs, outputs)
	}
	if (kind == KindIs || kind == KindNot) && inputs != 1 {
		return nil, fmt.Errorf("%w: %s takes exactly one input, got %d", ErrInvalidArity, kind, inputs)
	}

	c := newShell(kind, kind.String(), inputs, outputs)
	if err := c.update(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustComponent is like NewComponent with default arity but panics on error.
// It is intended for tests and static circuit definitions.
func MustComponent(kind Kind) *Component {
	c, err := NewComponent(kind, 0, 0)
	if err != nil {
		panic(err)
	}
	return c
}

func newShell(kind Kind, label string, inputs, outputs int) *Component {
	c := &Component{
		handle:  nextHandle(),
		kind:    kind,
		label:   label,
		inputs:  make([]InputSlot, inputs),
		outputs: make([]OutputSlot, outputs),
	}
	for i := range c.inputs {
		c.inputs[i] = InputSlot{owner: c.handle, index: i}
	}
	for i := range c.outputs {
		c.outputs[i] = OutputSlot{owner: c.handle, index: i}
	}
	return c
}

func (c *Component) Handle() Handle   { return c.handle }
func (c *Component) Kind() Kind       { return c.kind }
func (c *Component) Label() string    { return c.label }
func (c *Component) NumInputs() int   { return len(c.inputs) }
func (c *Component) NumOutputs() int  { return len(c.outputs) }
func (c *Component) Position() Point  { return c.position }
func (c *Component) Circuit() *Circuit { return c.owner }

// Inner returns the wrapped circuit of a custom component, nil otherwise.
// Callers must not mutate it.
func (c *Component) Inner() *Circuit { return c.inner }

// Input returns the i-th input slot, or nil when out of range.
func (c *Component) Input(i int) *InputSlot {
	if i < 0 || i >= len(c.inputs) {
		return nil
	}
	return &c.inputs[i]
}

// Output returns the i-th output slot, or nil when out of range.
func (c *Component) Output(i int) *OutputSlot {
	if i < 0 || i >= len(c.outputs) {
		return nil
	}
	return &c.outputs[i]
}

// InputValues returns the current input values in slot order.
func (c *Component) InputValues() []bool {
	out := make([]bool, len(c.inputs))
	for i := range c.inputs {
		out[i] = c.inputs[i].value
	}
	return out
}

// OutputValues returns the current output values in slot order.
func (c *Component) OutputValues() []bool {
	out := make([]bool, len(c.outputs))
	for i := range c.outputs {
		out[i] = c.outputs[i].value
	}
	return out
}

// Connections returns every connection attached to the component:
// incoming first in input order, then outgoing in output order.
func (c *Component) Connections() []*Connection {
	var out []*Connection
	for i := range c.inputs {
		if c.inputs[i].conn != nil {
			out = append(out, c.inputs[i].conn)
		}
	}
	for i := range c.outputs {
		out = append(out, c.outputs[i].conns...)
	}
	return out
}

// Clone returns a component of the same kind, label and arity with fresh,
// unconnected slots and a new handle. Custom components clone their circuit.
func (c *Component) Clone() (*Component, error) {
	clone, err := c.shellClone()
	if err != nil {
		return nil, err
	}
	if err := clone.update(); err != nil {
		return nil, err
	}
	return clone, nil
}

// shellClone copies kind, label, arity and position without evaluating.
// A custom clone starts with its inputs at the inner input port levels.
func (c *Component) shellClone() (*Component, error) {
	clone := newShell(c.kind, c.label, len(c.inputs), len(c.outputs))
	if c.kind == KindCustom {
		inner, err := c.inner.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone %s: %w", c.label, err)
		}
		clone.inner = inner
		clone.seedFromInner()
	}
	clone.position = c.position
	return clone, nil
}

// copyValues takes over the slot values of src, which has the same arity.
func (c *Component) copyValues(src *Component) {
	for i := range c.inputs {
		c.inputs[i].value = src.inputs[i].value
	}
	for i := range c.outputs {
		c.outputs[i].value = src.outputs[i].value
	}
}

// seedFromInner sets the inputs of a custom component to the levels its inner
// input ports already hold, so the first evaluation changes nothing inside.
func (c *Component) seedFromInner() {
	for i, port := range c.inner.inputs {
		c.inputs[i].value = port.inputs[0].value
	}
}

// update recomputes the outputs from the current inputs. Results are written
// positionally up to min(outputs, results); outputs past that keep their value.
func (c *Component) update() error {
	in := c.InputValues()

	var res []bool
	if c.kind == KindCustom {
		var err error
		res, err = c.inner.Process(in...)
		if err != nil {
			return fmt.Errorf("custom component %q: %w", c.label, err)
		}
	} else {
		r, ok := rules[c.kind]
		if !ok {
			return &UnknownKindError{Kind: c.kind.String()}
		}
		res = r(in)
	}

	n := min(len(c.outputs), len(res))
	for i := 0; i < n; i++ {
		c.outputs[i].value = res[i]
	}
	return nil
}

func (c *Component) String() string {
	return fmt.Sprintf("%s%s", c.label, c.handle)
}
