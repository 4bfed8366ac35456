package domain

import (
	"encoding/json"
	"fmt"
)

// Document is the persisted form of a circuit. Identity is positional: a
// connection endpoint is the pair (component index, slot index).
type Document struct {
	Components  []ComponentDoc  `json:"components" yaml:"components" mapstructure:"components"`
	Connections []ConnectionDoc `json:"connections" yaml:"connections" mapstructure:"connections"`
}

// ComponentDoc describes one component. Inputs and Outputs are only written
// when they differ from the kind's default arity. Value is the level an input
// port is driven to; derived signals are recomputed on load.
type ComponentDoc struct {
	Kind    string    `json:"type" yaml:"type" mapstructure:"type"`
	X       float64   `json:"x" yaml:"x" mapstructure:"x"`
	Y       float64   `json:"y" yaml:"y" mapstructure:"y"`
	Name    string    `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Inputs  int       `json:"inputs,omitempty" yaml:"inputs,omitempty" mapstructure:"inputs"`
	Outputs int       `json:"outputs,omitempty" yaml:"outputs,omitempty" mapstructure:"outputs"`
	Value   bool      `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Circuit *Document `json:"circuit,omitempty" yaml:"circuit,omitempty" mapstructure:"circuit"`
}

// ConnectionDoc describes one connection by positional endpoints.
type ConnectionDoc struct {
	From Endpoint `json:"from" yaml:"from" mapstructure:"from"`
	To   Endpoint `json:"to" yaml:"to" mapstructure:"to"`
	Path []Point  `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
}

// Endpoint is a (component index, slot index) pair, serialized as [c, s].
type Endpoint struct {
	Component int
	Slot      int
}

func (e Endpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{e.Component, e.Slot})
}

func (e *Endpoint) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("endpoint: want [component, slot], got %d values", len(pair))
	}
	e.Component, e.Slot = pair[0], pair[1]
	return nil
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("point: want [x, y], got %d values", len(pair))
	}
	p.X, p.Y = pair[0], pair[1]
	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Components:  make([]ComponentDoc, len(d.Components)),
		Connections: make([]ConnectionDoc, len(d.Connections)),
	}
	for i, cd := range d.Components {
		cd.Circuit = cd.Circuit.Clone()
		out.Components[i] = cd
	}
	for i, conn := range d.Connections {
		conn.Path = clonePoints(conn.Path)
		out.Connections[i] = conn
	}
	return out
}

// Serialize produces the positional document of the circuit.
func (c *Circuit) Serialize() *Document {
	doc := &Document{
		Components:  make([]ComponentDoc, 0, len(c.components)),
		Connections: []ConnectionDoc{},
	}
	index := make(map[Handle]int, len(c.components))
	for i, comp := range c.components {
		index[comp.handle] = i
		doc.Components = append(doc.Components, describe(comp))
	}
	for _, conn := range c.Connections() {
		doc.Connections = append(doc.Connections, ConnectionDoc{
			From: Endpoint{Component: index[conn.from.Component], Slot: conn.from.Index},
			To:   Endpoint{Component: index[conn.to.Component], Slot: conn.to.Index},
			Path: clonePoints(conn.waypoints),
		})
	}
	return doc
}

func describe(comp *Component) ComponentDoc {
	cd := ComponentDoc{Kind: comp.kind.String(), X: comp.position.X, Y: comp.position.Y}
	if comp.kind == KindCustom {
		cd.Name = comp.label
		cd.Circuit = comp.inner.Serialize()
		return cd
	}
	if comp.kind == KindInput {
		cd.Value = comp.inputs[0].value
	}
	defIn, defOut := comp.kind.DefaultArity()
	if len(comp.inputs) != defIn {
		cd.Inputs = len(comp.inputs)
	}
	if len(comp.outputs) != defOut {
		cd.Outputs = len(comp.outputs)
	}
	return cd
}

// Load replaces the circuit contents with the graph described by doc. Kinds are
// resolved through reg; a nil reg resolves built-in kinds only. The new graph is
// built completely before the receiver is touched, so a failing load leaves the
// circuit as it was.
func (c *Circuit) Load(doc *Document, reg Registry) error {
	fresh, err := build(doc, reg, WithSettleLimit(c.settleLimit))
	if err != nil {
		return err
	}
	c.arena = fresh.arena
	c.components = fresh.components
	c.inputs = fresh.inputs
	c.outputs = fresh.outputs
	for _, comp := range c.components {
		comp.owner = c
	}
	return nil
}

// FromDocument builds a new circuit from doc.
func FromDocument(doc *Document, reg Registry, opts ...Option) (*Circuit, error) {
	c := NewCircuit(opts...)
	if err := c.Load(doc, reg); err != nil {
		return nil, err
	}
	return c, nil
}

func build(doc *Document, reg Registry, opts ...Option) (*Circuit, error) {
	if doc == nil {
		return nil, structural("load", "nil document")
	}
	if reg == nil {
		reg = Builtins
	}
	c := NewCircuit(opts...)
	for i, cd := range doc.Components {
		comp, err := instantiate(cd, reg, opts)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		if comp.kind == KindInput {
			comp.inputs[0].value = cd.Value
		}
		if err := c.Add(comp, Point{X: cd.X, Y: cd.Y}); err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
	}

	// Edges are attached first and the whole graph settled once, so a loop that
	// is stable under the stored port levels loads regardless of edge order.
	for i, cd := range doc.Connections {
		from := c.At(cd.From.Component)
		if from == nil {
			return nil, structural("load", "connection %d: source component %d out of range", i, cd.From.Component)
		}
		to := c.At(cd.To.Component)
		if to == nil {
			return nil, structural("load", "connection %d: destination component %d out of range", i, cd.To.Component)
		}
		if from.Output(cd.From.Slot) == nil {
			return nil, structural("load", "connection %d: %s has no output %d", i, from, cd.From.Slot)
		}
		in := to.Input(cd.To.Slot)
		if in == nil {
			return nil, structural("load", "connection %d: %s has no input %d", i, to, cd.To.Slot)
		}
		if in.conn != nil {
			c.detach(in.conn)
		}
		c.attach(&Connection{
			from:      SlotRef{Component: from.handle, Index: cd.From.Slot},
			to:        SlotRef{Component: to.handle, Index: cd.To.Slot},
			waypoints: clonePoints(cd.Path),
		})
	}
	if err := c.settleAll(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return c, nil
}

func instantiate(cd ComponentDoc, reg Registry, opts []Option) (*Component, error) {
	if cd.Kind == KindCustom.String() && cd.Circuit != nil {
		inner, err := build(cd.Circuit, reg, opts...)
		if err != nil {
			return nil, fmt.Errorf("custom %q: %w", cd.Name, err)
		}
		return wrapCustom(cd.Name, inner)
	}
	if cd.Kind == KindCustom.String() {
		// A bare reference to a library component.
		return reg.New(cd.Name, cd.Inputs, cd.Outputs)
	}
	return reg.New(cd.Kind, cd.Inputs, cd.Outputs)
}
