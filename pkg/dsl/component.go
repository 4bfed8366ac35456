package dsl

import (
	"fmt"

	"github.com/aretw0/circuitry/pkg/domain"
)

// ComponentBuilder provides a fluent API for configuring a component.
type ComponentBuilder struct {
	id      string
	doc     domain.ComponentDoc
	builder *Builder
	fed     int
}

// At sets the position.
func (c *ComponentBuilder) At(x, y float64) *ComponentBuilder {
	c.doc.X, c.doc.Y = x, y
	return c
}

// Arity overrides the number of input and output slots. Zero keeps the default.
func (c *ComponentBuilder) Arity(inputs, outputs int) *ComponentBuilder {
	c.doc.Inputs, c.doc.Outputs = inputs, outputs
	return c
}

// Inline embeds a whole circuit as a custom component named name.
func (c *ComponentBuilder) Inline(name string, circuit *domain.Document) *ComponentBuilder {
	c.doc.Kind = domain.KindCustom.String()
	c.doc.Name = name
	c.doc.Circuit = circuit
	return c
}

// From wires each source reference into the next free input slot, in order.
func (c *ComponentBuilder) From(sources ...string) *ComponentBuilder {
	for _, src := range sources {
		c.builder.Wire(src, fmt.Sprintf("%s.%d", c.id, c.fed))
		c.fed++
	}
	return c
}

// To wires output slot 0 into each target reference.
func (c *ComponentBuilder) To(targets ...string) *ComponentBuilder {
	for _, dst := range targets {
		c.builder.Wire(c.id, dst)
	}
	return c
}
