package circuitry

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/circuitry/pkg/domain"
)

// Runner drives a Workspace from a line-oriented command stream.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer transforms Markdown output before it is written.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

var errQuit = errors.New("quit")

const shellHelp = `Commands:
  add KIND [X Y] [inputs=N] [outputs=N]   place a component
  rm I                                    remove component I
  mv I X Y                                move component I
  wire A.S B.T                            connect output S of A to input T of B
  cut B.T                                 disconnect input T of B
  clear                                   remove everything
  undo | redo                             walk the edit history
  set I 0|1 | toggle I                    drive input port I
  eval [BITS]                             process stimulus, e.g. eval 101
  table                                   print the truth table
  show                                    list components and connections
  custom NAME                             save the circuit as a custom component
  kinds                                   list available kinds
  save                                    persist now
  quit`

// Run reads commands until EOF or quit. Command errors are reported and the
// loop continues; only I/O errors end it with an error.
func (r *Runner) Run(ctx context.Context, ws *Workspace) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- circuitry shell: %s (type help) ---\n", ws.Name())
	}

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		eof := err != nil

		line := strings.TrimSpace(text)
		if line != "" && !strings.HasPrefix(line, "#") {
			if cmdErr := r.exec(ctx, ws, strings.Fields(line)); cmdErr != nil {
				if errors.Is(cmdErr, errQuit) {
					fmt.Fprintln(r.Output, "Bye!")
					return nil
				}
				fmt.Fprintf(r.Output, "error: %v\n", cmdErr)
			}
		}
		if eof {
			return nil
		}
	}
}

func (r *Runner) exec(ctx context.Context, ws *Workspace, args []string) error {
	switch args[0] {
	case "help", "?":
		fmt.Fprintln(r.Output, shellHelp)
		return nil
	case "quit", "exit":
		return errQuit
	case "add":
		return r.add(ws, args[1:])
	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: rm I")
		}
		h, err := handleAt(ws, args[1])
		if err != nil {
			return err
		}
		return ws.Remove(h)
	case "mv":
		if len(args) != 4 {
			return fmt.Errorf("usage: mv I X Y")
		}
		h, err := handleAt(ws, args[1])
		if err != nil {
			return err
		}
		p, err := parsePoint(args[2], args[3])
		if err != nil {
			return err
		}
		return ws.Move(h, p)
	case "wire":
		if len(args) != 3 {
			return fmt.Errorf("usage: wire A.S B.T")
		}
		from, err := slotAt(ws, args[1])
		if err != nil {
			return err
		}
		to, err := slotAt(ws, args[2])
		if err != nil {
			return err
		}
		return ws.Connect(domain.Wire{From: from, To: to})
	case "cut":
		if len(args) != 2 {
			return fmt.Errorf("usage: cut B.T")
		}
		to, err := slotAt(ws, args[1])
		if err != nil {
			return err
		}
		return ws.Disconnect(to)
	case "clear":
		return ws.Clear()
	case "undo":
		ok, err := ws.Undo()
		if err == nil && !ok {
			fmt.Fprintln(r.Output, "nothing to undo")
		}
		return err
	case "redo":
		ok, err := ws.Redo()
		if err == nil && !ok {
			fmt.Fprintln(r.Output, "nothing to redo")
		}
		return err
	case "set", "toggle":
		return r.drive(ws, args)
	case "eval":
		return r.eval(ws, args[1:])
	case "table":
		rows, err := ws.TruthTable()
		if err != nil {
			return err
		}
		return r.render(TruthTableMarkdown(rows))
	case "show":
		return r.render(Describe(ws.Export()))
	case "custom":
		if len(args) != 2 {
			return fmt.Errorf("usage: custom NAME")
		}
		comp, err := ws.ToCustom(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(r.Output, "saved %s (%d in, %d out)\n", comp.Label(), comp.NumInputs(), comp.NumOutputs())
		return nil
	case "kinds":
		fmt.Fprintln(r.Output, strings.Join(ws.engine.registry.Kinds(), " "))
		return nil
	case "save":
		return ws.Save(ctx)
	default:
		return fmt.Errorf("unknown command %q (type help)", args[0])
	}
}

func (r *Runner) add(ws *Workspace, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: add KIND [X Y] [inputs=N] [outputs=N]")
	}
	kind := args[0]
	var at domain.Point
	var inputs, outputs int
	var coords []string

	for _, arg := range args[1:] {
		key, val, ok := strings.Cut(arg, "=")
		if !ok {
			coords = append(coords, arg)
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "inputs":
			inputs = n
		case "outputs":
			outputs = n
		default:
			return fmt.Errorf("unknown option %q", key)
		}
	}
	switch len(coords) {
	case 0:
	case 2:
		p, err := parsePoint(coords[0], coords[1])
		if err != nil {
			return err
		}
		at = p
	default:
		return fmt.Errorf("position needs X and Y")
	}

	comp, err := ws.Add(kind, inputs, outputs, at)
	if err != nil {
		return err
	}
	index := -1
	_ = ws.View(func(c *domain.Circuit) error {
		index = c.IndexOf(comp.Handle())
		return nil
	})
	fmt.Fprintf(r.Output, "%d: %s\n", index, comp.Label())
	return nil
}

func (r *Runner) drive(ws *Workspace, args []string) error {
	want := 3
	if args[0] == "toggle" {
		want = 2
	}
	if len(args) != want {
		return fmt.Errorf("usage: set I 0|1 | toggle I")
	}
	port, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("input port: %w", err)
	}

	var ref domain.SlotRef
	err = ws.View(func(c *domain.Circuit) error {
		inputs := c.Inputs()
		if port < 0 || port >= len(inputs) {
			return fmt.Errorf("no input port %d", port)
		}
		ref = domain.SlotRef{Component: inputs[port].Handle()}
		return nil
	})
	if err != nil {
		return err
	}

	if args[0] == "toggle" {
		err = ws.Toggle(ref)
	} else {
		var v bool
		v, err = parseBit(args[2])
		if err == nil {
			err = ws.SetInput(ref, v)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(r.Output, FormatBits(ws.Outputs()))
	return nil
}

func (r *Runner) eval(ws *Workspace, args []string) error {
	var stimulus []bool
	for _, arg := range args {
		bits, err := ParseBits(arg)
		if err != nil {
			return err
		}
		stimulus = append(stimulus, bits...)
	}
	out, err := ws.Process(stimulus...)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.Output, FormatBits(out))
	return nil
}

func (r *Runner) render(md string) error {
	output := md
	if r.Renderer != nil {
		if rendered, err := r.Renderer(md); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimRight(output, "\n"))
	return nil
}

func handleAt(ws *Workspace, s string) (domain.Handle, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("component index: %w", err)
	}
	var h domain.Handle
	err = ws.View(func(c *domain.Circuit) error {
		comp := c.At(i)
		if comp == nil {
			return fmt.Errorf("no component %d", i)
		}
		h = comp.Handle()
		return nil
	})
	return h, err
}

// slotAt parses "C.S" (component index, slot index). A bare "C" means slot 0.
func slotAt(ws *Workspace, s string) (domain.SlotRef, error) {
	comp, slot, found := strings.Cut(s, ".")
	index := 0
	if found {
		n, err := strconv.Atoi(slot)
		if err != nil {
			return domain.SlotRef{}, fmt.Errorf("slot index: %w", err)
		}
		index = n
	}
	h, err := handleAt(ws, comp)
	if err != nil {
		return domain.SlotRef{}, err
	}
	return domain.SlotRef{Component: h, Index: index}, nil
}

func parsePoint(x, y string) (domain.Point, error) {
	px, err := strconv.ParseFloat(x, 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("x: %w", err)
	}
	py, err := strconv.ParseFloat(y, 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("y: %w", err)
	}
	return domain.Point{X: px, Y: py}, nil
}

func parseBit(s string) (bool, error) {
	switch s {
	case "1", "true", "on":
		return true, nil
	case "0", "false", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a bit: %q", s)
	}
}
