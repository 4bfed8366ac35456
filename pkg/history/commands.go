package history

import (
	"fmt"

	"github.com/aretw0/circuitry/pkg/domain"
)

// placement remembers where a component sat and what it was wired to, so that
// removing and restoring it are exact inverses.
type placement struct {
	circuit *domain.Circuit
	comp    *domain.Component
	index   int
	at      domain.Point
	wires   []domain.Wire
}

func (p *placement) detach() error {
	p.index = p.circuit.IndexOf(p.comp.Handle())
	if p.index < 0 {
		return fmt.Errorf("remove %s: %w", p.comp, domain.ErrNotInCircuit)
	}
	p.at = p.comp.Position()
	p.wires = p.wires[:0]
	for _, conn := range p.comp.Connections() {
		p.wires = append(p.wires, conn.Spec())
	}
	return p.circuit.Remove(p.comp.Handle())
}

func (p *placement) restore() error {
	self := p.comp.Handle()
	for _, w := range p.wires {
		if err := checkWire(p.circuit, w, self, p.comp); err != nil {
			return err
		}
	}
	if err := p.circuit.Insert(p.comp, p.index, p.at); err != nil {
		return err
	}
	for _, w := range p.wires {
		if _, err := p.circuit.Connect(w.From, w.To, w.Waypoints); err != nil {
			_ = p.circuit.Remove(self)
			return fmt.Errorf("restore %s: %w", p.comp, err)
		}
	}
	return nil
}

// checkWire verifies that both ends of w exist, treating self as present.
func checkWire(c *domain.Circuit, w domain.Wire, self domain.Handle, comp *domain.Component) error {
	lookup := func(h domain.Handle) *domain.Component {
		if h == self && comp != nil {
			return comp
		}
		found, _ := c.Component(h)
		return found
	}
	src := lookup(w.From.Component)
	dst := lookup(w.To.Component)
	if src == nil || src.Output(w.From.Index) == nil || dst == nil || dst.Input(w.To.Index) == nil {
		return &domain.StructuralError{Op: "restore", Reason: fmt.Sprintf("wire %v -> %v no longer fits the circuit", w.From, w.To)}
	}
	return nil
}

// AddComponent places a component in a circuit.
type AddComponent struct {
	p        placement
	executed bool
}

func NewAddComponent(c *domain.Circuit, comp *domain.Component, at domain.Point) *AddComponent {
	return &AddComponent{p: placement{circuit: c, comp: comp, at: at}}
}

func (a *AddComponent) Name() string { return "add_component" }

func (a *AddComponent) Execute() error {
	if a.executed {
		return a.p.restore()
	}
	if err := a.p.circuit.Add(a.p.comp, a.p.at); err != nil {
		return err
	}
	a.executed = true
	return nil
}

func (a *AddComponent) Reverse() error { return a.p.detach() }

// RemoveComponent takes a component out of a circuit, remembering its
// connections so that Reverse reinstates exactly those.
type RemoveComponent struct {
	p placement
}

func NewRemoveComponent(c *domain.Circuit, comp *domain.Component) *RemoveComponent {
	return &RemoveComponent{p: placement{circuit: c, comp: comp}}
}

func (r *RemoveComponent) Name() string   { return "remove_component" }
func (r *RemoveComponent) Execute() error { return r.p.detach() }
func (r *RemoveComponent) Reverse() error { return r.p.restore() }

// Clear empties a circuit, keeping the removed components for Reverse.
type Clear struct {
	circuit  *domain.Circuit
	snapshot []*domain.Component
}

func NewClear(c *domain.Circuit) *Clear {
	return &Clear{circuit: c}
}

func (c *Clear) Name() string { return "clear" }

func (c *Clear) Execute() error {
	c.snapshot = c.circuit.Clear()
	return nil
}

func (c *Clear) Reverse() error {
	return c.circuit.Populate(c.snapshot)
}

// Populate swaps the circuit contents for next. Imports are recorded this way.
type Populate struct {
	circuit *domain.Circuit
	next    []*domain.Component
	prev    []*domain.Component
}

// NewPopulate replaces the contents with next. The current contents are
// captured on each Execute.
func NewPopulate(c *domain.Circuit, next []*domain.Component) *Populate {
	return &Populate{circuit: c, next: next}
}

func (p *Populate) Name() string { return "populate" }

func (p *Populate) Execute() error {
	prev := p.circuit.Components()
	if err := p.circuit.Populate(p.next); err != nil {
		return err
	}
	p.prev = prev
	return nil
}

func (p *Populate) Reverse() error {
	return p.circuit.Populate(p.prev)
}

// Move changes a component position.
type Move struct {
	circuit *domain.Circuit
	handle  domain.Handle
	to      domain.Point
	from    domain.Point
}

func NewMove(c *domain.Circuit, h domain.Handle, to, from domain.Point) *Move {
	return &Move{circuit: c, handle: h, to: to, from: from}
}

func (m *Move) Name() string   { return "move" }
func (m *Move) Execute() error { return m.circuit.Move(m.handle, m.to) }
func (m *Move) Reverse() error { return m.circuit.Move(m.handle, m.from) }

// Connect wires a batch of connections. Connections displaced from their
// inputs are put back on Reverse.
type Connect struct {
	circuit   *domain.Circuit
	wires     []domain.Wire
	made      []domain.Wire
	displaced []domain.Wire
}

func NewConnect(c *domain.Circuit, wires ...domain.Wire) *Connect {
	return &Connect{circuit: c, wires: wires}
}

func (c *Connect) Name() string { return "connect" }

func (c *Connect) Execute() error {
	seen := make(map[domain.SlotRef]bool, len(c.wires))
	for _, w := range c.wires {
		if seen[w.To] {
			return &domain.StructuralError{Op: "connect", Reason: fmt.Sprintf("input %v wired twice in one batch", w.To)}
		}
		seen[w.To] = true
	}

	c.made = c.made[:0]
	c.displaced = c.displaced[:0]
	for _, w := range c.wires {
		old := c.circuit.ConnectionTo(w.To)
		if _, err := c.circuit.Connect(w.From, w.To, w.Waypoints); err != nil {
			// The failed Connect already rolled itself back; undo the rest of the batch.
			_ = c.unwind()
			return err
		}
		c.made = append(c.made, w)
		if old != nil {
			c.displaced = append(c.displaced, old.Spec())
		}
	}
	return nil
}

func (c *Connect) Reverse() error {
	return c.unwind()
}

func (c *Connect) unwind() error {
	// Connections are matched by endpoints: a component restored by an undo
	// carries new Connection values for the same wires.
	for i := len(c.made) - 1; i >= 0; i-- {
		w := c.made[i]
		conn := c.circuit.ConnectionTo(w.To)
		if conn == nil || conn.From() != w.From {
			continue
		}
		if err := c.circuit.Disconnect(conn); err != nil {
			return err
		}
	}
	for _, w := range c.displaced {
		if _, err := c.circuit.Connect(w.From, w.To, w.Waypoints); err != nil {
			return err
		}
	}
	c.made = c.made[:0]
	c.displaced = c.displaced[:0]
	return nil
}

// Disconnect removes a batch of connections and recreates them on Reverse.
type Disconnect struct {
	circuit *domain.Circuit
	wires   []domain.Wire
}

func NewDisconnect(c *domain.Circuit, conns ...*domain.Connection) *Disconnect {
	wires := make([]domain.Wire, len(conns))
	for i, conn := range conns {
		wires[i] = conn.Spec()
	}
	return &Disconnect{circuit: c, wires: wires}
}

func (d *Disconnect) Name() string { return "disconnect" }

func (d *Disconnect) Execute() error {
	conns := make([]*domain.Connection, len(d.wires))
	for i, w := range d.wires {
		conn := d.circuit.ConnectionTo(w.To)
		if conn == nil || conn.From() != w.From {
			return fmt.Errorf("disconnect %v -> %v: %w", w.From, w.To, domain.ErrNotInCircuit)
		}
		conns[i] = conn
	}
	for _, conn := range conns {
		if err := d.circuit.Disconnect(conn); err != nil {
			return err
		}
	}
	return nil
}

func (d *Disconnect) Reverse() error {
	for _, w := range d.wires {
		if err := checkWire(d.circuit, w, 0, nil); err != nil {
			return err
		}
	}
	for _, w := range d.wires {
		if _, err := d.circuit.Connect(w.From, w.To, w.Waypoints); err != nil {
			return err
		}
	}
	return nil
}
