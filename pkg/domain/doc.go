/*
Package domain contains the circuit simulation core of circuitry.

It defines the fundamental entities of a boolean logic circuit: Components with a fixed
number of input and output Slots, directed Connections between an output and an input,
and the Circuit graph that owns them. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Component: a fixed-arity evaluation unit tagged with a Kind (gate, port or custom).
  - InputSlot / OutputSlot: boolean value holders addressed by SlotRef.
  - Connection: a directed edge from one OutputSlot to one InputSlot with opaque waypoints.
  - Circuit: an arena of Components addressed by Handle, with ordered input/output ports.
  - Document: the positional persistence form of a Circuit.

# Propagation

Signals are pushed through the graph by a worklist that settles breadth-first. Each
component may be evaluated at most a bounded number of times per settle; a combinational
loop that never stabilises is reported as a *CycleError instead of recursing forever.

A Circuit is not safe for concurrent use. Callers that share a circuit across goroutines
must serialize access themselves (see package session).
*/
package domain
