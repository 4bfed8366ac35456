package domain

import (
	"errors"
	"fmt"
)

// ErrStructural is the category of every *StructuralError.
var ErrStructural = errors.New("structural error")

// ErrUnknownKind is the category of every *UnknownKindError.
var ErrUnknownKind = errors.New("unknown component kind")

// ErrCycle is the category of every *CycleError.
var ErrCycle = errors.New("combinational cycle")

// ErrNotInCircuit is returned when a handle does not belong to the circuit being edited.
var ErrNotInCircuit = errors.New("component not in circuit")

// ErrAlreadyInCircuit is returned when adding a component that is owned by a circuit.
var ErrAlreadyInCircuit = errors.New("component already belongs to a circuit")

// ErrInvalidArity is returned when a component is built with an arity its kind cannot have.
var ErrInvalidArity = errors.New("invalid arity")

// ErrNotFound is returned by document stores when a key does not exist.
var ErrNotFound = errors.New("document not found")

// StructuralError reports a reference to a component or slot that does not exist,
// either in persisted data or in a direct edit. It is never silently repaired.
type StructuralError struct {
	Op     string // e.g. "connect", "deserialize"
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

func structural(op, format string, args ...any) error {
	return &StructuralError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// UnknownKindError is returned when a kind name is absent from the registry.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown component kind %q", e.Kind)
}

func (e *UnknownKindError) Unwrap() error { return ErrUnknownKind }

// CycleError is returned when propagation does not settle: one component was
// re-evaluated more often than the settle limit allows.
type CycleError struct {
	Component   Handle
	Label       string
	Evaluations int
	Limit       int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("combinational cycle: component %s (%s) evaluated %d times, limit %d",
		e.Component, e.Label, e.Evaluations, e.Limit)
}

func (e *CycleError) Unwrap() error { return ErrCycle }
