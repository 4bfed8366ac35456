package domain

import (
	"errors"
	"fmt"
)

// NewCustom wraps a snapshot of circuit as a single component. Its inputs and
// outputs map one to one onto the circuit's input and output ports in order.
// Later edits to circuit do not affect the returned component.
func NewCustom(name string, circuit *Circuit) (*Component, error) {
	if circuit == nil {
		return nil, errors.New("custom component: nil circuit")
	}
	inner, err := circuit.Clone()
	if err != nil {
		return nil, fmt.Errorf("custom component %q: %w", name, err)
	}
	return wrapCustom(name, inner)
}

// wrapCustom takes ownership of inner without cloning it.
func wrapCustom(name string, inner *Circuit) (*Component, error) {
	if name == "" {
		name = KindCustom.String()
	}
	c := newShell(KindCustom, name, len(inner.inputs), len(inner.outputs))
	c.inner = inner
	c.seedFromInner()
	if err := c.update(); err != nil {
		return nil, err
	}
	return c, nil
}

// ToCustom snapshots the circuit as a reusable custom component.
func (c *Circuit) ToCustom(name string) (*Component, error) {
	return NewCustom(name, c)
}
