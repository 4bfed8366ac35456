package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/circuitry/pkg/domain"
)

// Builder manages the circuit construction.
type Builder struct {
	order []string
	comps map[string]*ComponentBuilder
	wires []wireSpec
	reg   domain.Registry
}

type wireSpec struct {
	from, to string
	path     []domain.Point
}

// New creates a new circuit builder that resolves kinds against the built-ins.
func New() *Builder {
	return &Builder{
		comps: make(map[string]*ComponentBuilder),
	}
}

// WithRegistry resolves kinds (and custom component names) through reg.
func (b *Builder) WithRegistry(reg domain.Registry) *Builder {
	b.reg = reg
	return b
}

// Add declares a component named id of the given kind.
// If the name already exists, it returns the existing builder.
func (b *Builder) Add(id, kind string) *ComponentBuilder {
	if cb, ok := b.comps[id]; ok {
		return cb
	}
	cb := &ComponentBuilder{
		id:      id,
		doc:     domain.ComponentDoc{Kind: kind},
		builder: b,
	}
	b.comps[id] = cb
	b.order = append(b.order, id)
	return cb
}

// Input declares an input port.
func (b *Builder) Input(id string) *ComponentBuilder {
	return b.Add(id, domain.KindInput.String())
}

// Output declares an output port.
func (b *Builder) Output(id string) *ComponentBuilder {
	return b.Add(id, domain.KindOutput.String())
}

// Wire connects the "name.slot" output reference from to the input reference to.
func (b *Builder) Wire(from, to string, path ...domain.Point) *Builder {
	b.wires = append(b.wires, wireSpec{from: from, to: to, path: path})
	return b
}

// Build compiles the declarations into a document.
func (b *Builder) Build() (*domain.Document, error) {
	index := make(map[string]int, len(b.order))
	doc := &domain.Document{
		Components:  make([]domain.ComponentDoc, 0, len(b.order)),
		Connections: make([]domain.ConnectionDoc, 0, len(b.wires)),
	}
	for i, id := range b.order {
		index[id] = i
		doc.Components = append(doc.Components, b.comps[id].doc)
	}

	taken := make(map[domain.Endpoint]string)
	for _, w := range b.wires {
		from, err := resolve(index, w.from)
		if err != nil {
			return nil, fmt.Errorf("wire %s -> %s: %w", w.from, w.to, err)
		}
		to, err := resolve(index, w.to)
		if err != nil {
			return nil, fmt.Errorf("wire %s -> %s: %w", w.from, w.to, err)
		}
		if prev, ok := taken[to]; ok {
			return nil, fmt.Errorf("wire %s -> %s: input already fed by %s", w.from, w.to, prev)
		}
		taken[to] = w.from
		doc.Connections = append(doc.Connections, domain.ConnectionDoc{From: from, To: to, Path: w.path})
	}
	return doc, nil
}

// Circuit builds the document and instantiates it.
func (b *Builder) Circuit(opts ...domain.Option) (*domain.Circuit, error) {
	doc, err := b.Build()
	if err != nil {
		return nil, err
	}
	return domain.FromDocument(doc, b.reg, opts...)
}

// resolve turns "name" or "name.slot" into an endpoint.
func resolve(index map[string]int, ref string) (domain.Endpoint, error) {
	name, slot := ref, 0
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		n, err := strconv.Atoi(ref[i+1:])
		if err != nil {
			return domain.Endpoint{}, fmt.Errorf("bad slot in %q", ref)
		}
		name, slot = ref[:i], n
	}
	c, ok := index[name]
	if !ok {
		return domain.Endpoint{}, fmt.Errorf("unknown component %q", name)
	}
	return domain.Endpoint{Component: c, Slot: slot}, nil
}
