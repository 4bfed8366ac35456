// Package history provides a bounded undo/redo log of reversible circuit edits.
package history

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/circuitry/internal/logging"
)

// DefaultCapacity is the number of commands kept on the undo stack.
const DefaultCapacity = 128

// Command is a reversible edit. Execute must be repeatable after Reverse.
type Command interface {
	Execute() error
	Reverse() error
}

// Op identifies the history transition that just happened.
type Op string

const (
	OpAdd  Op = "add"
	OpUndo Op = "undo"
	OpRedo Op = "redo"
)

// Observer is notified after every successful add, undo and redo.
type Observer func(op Op, cmd Command)

// SideEffectError reports a side effect that failed after the edit was applied
// and recorded. The edit can still be undone.
type SideEffectError struct {
	Op      Op
	Command string
	Err     error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("%s %s: side effect failed: %v", e.Op, e.Command, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }

// Manager keeps the undo and redo stacks.
// It is not safe for concurrent use; callers serialize access per workspace.
type Manager struct {
	undo       []Command
	redo       []Command
	capacity   int
	sideEffect func() error
	observer   Observer
	logger     *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithCapacity bounds the undo stack. Values below one keep DefaultCapacity.
func WithCapacity(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithSideEffect runs fn after every add, undo and redo (autosave).
// A failing side effect does not undo the edit; it is reported to the caller
// as a *SideEffectError.
func WithSideEffect(fn func() error) Option {
	return func(m *Manager) {
		m.sideEffect = fn
	}
}

// WithObserver installs an observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty history.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		capacity: DefaultCapacity,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute runs cmd and records it. Nothing is recorded when it fails.
func (m *Manager) Execute(cmd Command) error {
	if err := cmd.Execute(); err != nil {
		return fmt.Errorf("%s: %w", Name(cmd), err)
	}
	return m.Add(cmd)
}

// Add records an already executed command. The oldest entry is evicted when
// the stack is full, and the redo stack is discarded.
func (m *Manager) Add(cmd Command) error {
	m.undo = append(m.undo, cmd)
	if over := len(m.undo) - m.capacity; over > 0 {
		m.undo = append([]Command(nil), m.undo[over:]...)
	}
	m.redo = nil
	return m.after(OpAdd, cmd)
}

// Undo reverses the most recent command. It reports false when there is
// nothing to undo. A failing reverse leaves the command on the undo stack.
func (m *Manager) Undo() (bool, error) {
	if len(m.undo) == 0 {
		return false, nil
	}
	cmd := m.undo[len(m.undo)-1]
	if err := cmd.Reverse(); err != nil {
		return false, fmt.Errorf("undo %s: %w", Name(cmd), err)
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, cmd)
	return true, m.after(OpUndo, cmd)
}

// Redo re-executes the most recently undone command. It reports false when
// there is nothing to redo. A failing execute leaves the command on the redo stack.
func (m *Manager) Redo() (bool, error) {
	if len(m.redo) == 0 {
		return false, nil
	}
	cmd := m.redo[len(m.redo)-1]
	if err := cmd.Execute(); err != nil {
		return false, fmt.Errorf("redo %s: %w", Name(cmd), err)
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, cmd)
	return true, m.after(OpRedo, cmd)
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }
func (m *Manager) UndoLen() int  { return len(m.undo) }
func (m *Manager) RedoLen() int  { return len(m.redo) }
func (m *Manager) Capacity() int { return m.capacity }

// Reset drops both stacks without running the side effect.
func (m *Manager) Reset() {
	m.undo = nil
	m.redo = nil
}

func (m *Manager) after(op Op, cmd Command) error {
	if m.observer != nil {
		m.observer(op, cmd)
	}
	if m.sideEffect == nil {
		return nil
	}
	if err := m.sideEffect(); err != nil {
		m.logger.Warn("history side effect failed", "op", op, "command", Name(cmd), "err", err)
		return &SideEffectError{Op: op, Command: Name(cmd), Err: err}
	}
	return nil
}

// Name returns a short label for cmd, used in logs and metrics.
func Name(cmd Command) string {
	if n, ok := cmd.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", cmd)
}
