/*
Package circuitry is an editor core for boolean logic circuits.

Circuits are built from gates (is, and, or, xor, not, nand, nor, xnor), input
and output ports, and custom components that wrap a whole circuit behind its
ports. Signals propagate synchronously the moment a connection or an input
changes, so a circuit is always settled when an edit returns.

# Concept

The package is a thin facade over a hexagonal core:

  - pkg/domain holds the circuit model, propagation and the persistence document.
  - pkg/history records every structural edit as a reversible command.
  - pkg/ports defines the document store used for autosave and the custom component library.
  - pkg/adapters provides memory, file, Redis and Loam backed implementations plus HTTP and MCP frontends.

An Engine owns the kind registry and the open workspaces. A Workspace is one
named circuit with its own undo log; it is saved after every edit, undo and redo.

# Usage

	eng, err := circuitry.New(circuitry.WithStore(redis.New("localhost:6379", "", 0, redis.WithPrefix("circuitry:workspace:"))))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	ws, err := eng.Open(ctx, "inverter")
	if err != nil {
		log.Fatal(err)
	}

	in, _ := ws.Add("input", 0, 0, domain.Point{X: 0, Y: 0})
	not, _ := ws.Add("not", 0, 0, domain.Point{X: 40, Y: 0})
	out, _ := ws.Add("output", 0, 0, domain.Point{X: 80, Y: 0})
	_ = ws.Connect(
		domain.Wire{From: domain.SlotRef{Component: in.Handle()}, To: domain.SlotRef{Component: not.Handle()}},
		domain.Wire{From: domain.SlotRef{Component: not.Handle()}, To: domain.SlotRef{Component: out.Handle()}},
	)

	got, _ := ws.Process(true) // [false]

# Custom components

Workspace.ToCustom snapshots the circuit into the library under a name. The
name then resolves like any built-in kind, both in Workspace.Add and when a
document refers to it.
*/
package circuitry
