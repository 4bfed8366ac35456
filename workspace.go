package circuitry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/history"
)

// Workspace is a named, editable circuit. Every structural edit goes through
// an undo log, and the circuit is saved to the engine store after every
// edit, undo and redo. A failed save is returned as a *history.SideEffectError;
// the edit itself stays applied and undoable. A Workspace is safe for
// concurrent use.
type Workspace struct {
	mu      sync.Mutex
	name    string
	engine  *Engine
	circuit *domain.Circuit
	history *history.Manager
	ctx     context.Context
	logger  *slog.Logger
}

func newWorkspace(ctx context.Context, e *Engine, name string, c *domain.Circuit) *Workspace {
	w := &Workspace{
		name:    name,
		engine:  e,
		circuit: c,
		ctx:     context.WithoutCancel(ctx),
		logger:  e.logger.With("workspace", name),
	}
	w.history = history.NewManager(
		history.WithCapacity(e.capacity),
		history.WithSideEffect(w.autosave),
		history.WithObserver(e.observer),
		history.WithLogger(w.logger),
	)
	return w
}

// autosave runs with w.mu held.
func (w *Workspace) autosave() error {
	return w.engine.sessions.Save(w.ctx, w.name, w.circuit.Serialize())
}

// Name returns the workspace name, which is also its store key.
func (w *Workspace) Name() string {
	return w.name
}

// View runs fn with read access to the circuit. fn must not retain the
// circuit or mutate it.
func (w *Workspace) View(fn func(c *domain.Circuit) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(w.circuit)
}

// Add instantiates kind through the engine registry and places it at at.
// Inputs and outputs of zero keep the kind's default arity.
func (w *Workspace) Add(kind string, inputs, outputs int, at domain.Point) (*domain.Component, error) {
	comp, err := w.engine.registry.New(kind, inputs, outputs)
	if err != nil {
		return nil, err
	}
	if err := w.Place(comp, at); err != nil {
		return nil, err
	}
	return comp, nil
}

// Place adds an existing, unowned component at at.
func (w *Workspace) Place(comp *domain.Component, at domain.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.Execute(history.NewAddComponent(w.circuit, comp, at))
}

// Remove takes a component and its connections out of the circuit.
func (w *Workspace) Remove(h domain.Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	comp, err := w.lookup(h)
	if err != nil {
		return err
	}
	return w.history.Execute(history.NewRemoveComponent(w.circuit, comp))
}

// Move repositions a component.
func (w *Workspace) Move(h domain.Handle, to domain.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	comp, err := w.lookup(h)
	if err != nil {
		return err
	}
	return w.history.Execute(history.NewMove(w.circuit, h, to, comp.Position()))
}

// Connect wires a batch of connections as one undoable edit.
func (w *Workspace) Connect(wires ...domain.Wire) error {
	if len(wires) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.Execute(history.NewConnect(w.circuit, wires...))
}

// Disconnect removes the connections feeding the given inputs as one undoable edit.
func (w *Workspace) Disconnect(inputs ...domain.SlotRef) error {
	if len(inputs) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	conns := make([]*domain.Connection, 0, len(inputs))
	for _, ref := range inputs {
		conn := w.circuit.ConnectionTo(ref)
		if conn == nil {
			return fmt.Errorf("disconnect %v: %w", ref, domain.ErrNotInCircuit)
		}
		conns = append(conns, conn)
	}
	return w.history.Execute(history.NewDisconnect(w.circuit, conns...))
}

// Clear empties the circuit.
func (w *Workspace) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.Execute(history.NewClear(w.circuit))
}

// Import replaces the circuit with doc as one undoable edit. A document that
// fails to load leaves the workspace untouched.
func (w *Workspace) Import(doc *domain.Document) error {
	tmp, err := w.engine.Build(doc)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	comps := tmp.Clear()

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.history.Execute(history.NewPopulate(w.circuit, comps)); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	w.logger.Info("Workspace imported", "components", len(comps))
	return nil
}

// Export returns the persistence document of the circuit.
func (w *Workspace) Export() *domain.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.circuit.Serialize()
}

// Undo reverses the last edit. It reports false when there is nothing to undo.
func (w *Workspace) Undo() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.Undo()
}

// Redo re-applies the last undone edit. It reports false when there is nothing to redo.
func (w *Workspace) Redo() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.Redo()
}

// History returns the depth of the undo and redo stacks.
func (w *Workspace) History() (undo, redo int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.UndoLen(), w.history.RedoLen()
}

// SetInput drives an input port (or a free gate input) to v.
// Signal values are not part of the undo log. Input port levels reach the
// store with the next saved edit.
func (w *Workspace) SetInput(ref domain.SlotRef, v bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.circuit.SetInput(ref, v)
}

// Toggle flips an input port.
func (w *Workspace) Toggle(ref domain.SlotRef) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.circuit.Toggle(ref)
}

// Process applies stimulus to the input ports and returns the output ports.
func (w *Workspace) Process(stimulus ...bool) ([]bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.circuit.Process(stimulus...)
}

// Outputs returns the current output port values.
func (w *Workspace) Outputs() []bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.circuit.OutputValues()
}

// TruthTable enumerates every input combination on a copy of the circuit.
func (w *Workspace) TruthTable() ([]domain.TruthRow, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.circuit.TruthTable()
}

// ToCustom saves the circuit to the library as the custom component name.
func (w *Workspace) ToCustom(ctx context.Context, name string) (*domain.Component, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.library.Save(ctx, name, w.circuit)
}

// Save persists the circuit immediately.
func (w *Workspace) Save(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.sessions.Save(ctx, w.name, w.circuit.Serialize())
}

func (w *Workspace) lookup(h domain.Handle) (*domain.Component, error) {
	comp, ok := w.circuit.Component(h)
	if !ok {
		return nil, fmt.Errorf("component %v: %w", h, domain.ErrNotInCircuit)
	}
	return comp, nil
}
