// Package validator statically checks circuit documents before they are loaded.
package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/ports"
)

// Severity ranks an Issue. Errors make a document unloadable.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding. Component and Connection are document indexes, -1 when
// the issue is not tied to one.
type Issue struct {
	Severity   Severity
	Component  int
	Connection int
	Message    string
}

func (i Issue) String() string {
	var where string
	switch {
	case i.Connection >= 0:
		where = fmt.Sprintf("connection %d: ", i.Connection)
	case i.Component >= 0:
		where = fmt.Sprintf("component %d: ", i.Component)
	}
	return fmt.Sprintf("%s: %s%s", i.Severity, where, i.Message)
}

// Report collects the issues found in one document.
type Report struct {
	Issues []Issue
}

func (r *Report) add(sev Severity, comp, conn int, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity:   sev,
		Component:  comp,
		Connection: conn,
		Message:    fmt.Sprintf(format, args...),
	})
}

// Errors returns the issues of error severity.
func (r *Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the issues of warning severity.
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarning) }

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Err summarizes the errors, or returns nil when there are none.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

type shape struct {
	kind    string
	inputs  int
	outputs int
	ok      bool
}

// Check validates doc against the kinds reg knows. A nil reg accepts the
// built-in kinds only.
//
// Errors: unknown kinds, bad arities, endpoints out of range, inputs fed twice.
// Warnings: unconnected gate inputs, feedback loops, missing output ports.
func Check(doc *domain.Document, reg domain.Registry) *Report {
	r := &Report{}
	if doc == nil {
		r.add(SeverityError, -1, -1, "empty document")
		return r
	}
	if reg == nil {
		reg = domain.Builtins
	}

	shapes := make([]shape, len(doc.Components))
	outputs := 0
	for i, cd := range doc.Components {
		shapes[i] = resolve(r, i, cd, reg)
		if cd.Kind == domain.KindOutput.String() {
			outputs++
		}
	}

	fed := make(map[domain.Endpoint]int)
	edges := make([][]int, len(doc.Components))
	for i, conn := range doc.Connections {
		from, to := conn.From, conn.To
		if !inRange(r, i, "source", from, shapes, func(s shape) int { return s.outputs }) ||
			!inRange(r, i, "destination", to, shapes, func(s shape) int { return s.inputs }) {
			continue
		}
		if prev, dup := fed[to]; dup {
			r.add(SeverityError, -1, i, "input %d of component %d already fed by connection %d", to.Slot, to.Component, prev)
			continue
		}
		fed[to] = i
		edges[from.Component] = append(edges[from.Component], to.Component)
	}

	for i, s := range shapes {
		if !s.ok || s.kind == domain.KindInput.String() {
			continue
		}
		for slot := 0; slot < s.inputs; slot++ {
			if _, ok := fed[domain.Endpoint{Component: i, Slot: slot}]; !ok {
				r.add(SeverityWarning, i, -1, "%s input %d is not connected", s.kind, slot)
			}
		}
	}

	for _, loop := range loops(edges) {
		parts := make([]string, len(loop))
		for j, c := range loop {
			parts[j] = fmt.Sprintf("%d", c)
		}
		r.add(SeverityWarning, loop[0], -1, "feedback loop through components %s", strings.Join(parts, ", "))
	}

	if len(doc.Components) > 0 && outputs == 0 {
		r.add(SeverityWarning, -1, -1, "circuit has no output ports")
	}
	return r
}

func resolve(r *Report, i int, cd domain.ComponentDoc, reg domain.Registry) shape {
	if cd.Kind == domain.KindCustom.String() && cd.Circuit != nil {
		inner := Check(cd.Circuit, reg)
		for _, e := range inner.Errors() {
			r.add(SeverityError, i, -1, "custom %q: %s", cd.Name, e)
		}
		if inner.Err() != nil {
			return shape{}
		}
		c, err := domain.FromDocument(cd.Circuit, reg)
		if err != nil {
			r.add(SeverityError, i, -1, "custom %q: %v", cd.Name, err)
			return shape{}
		}
		return shape{kind: cd.Name, inputs: len(c.Inputs()), outputs: len(c.Outputs()), ok: true}
	}

	name := cd.Kind
	if name == domain.KindCustom.String() {
		name = cd.Name
	}
	comp, err := reg.New(name, cd.Inputs, cd.Outputs)
	if err != nil {
		r.add(SeverityError, i, -1, "%v", err)
		return shape{}
	}
	return shape{kind: name, inputs: comp.NumInputs(), outputs: comp.NumOutputs(), ok: true}
}

func inRange(r *Report, conn int, role string, ep domain.Endpoint, shapes []shape, slots func(shape) int) bool {
	if ep.Component < 0 || ep.Component >= len(shapes) {
		r.add(SeverityError, -1, conn, "%s component %d out of range", role, ep.Component)
		return false
	}
	s := shapes[ep.Component]
	if !s.ok {
		// Already reported on the component.
		return false
	}
	if ep.Slot < 0 || ep.Slot >= slots(s) {
		r.add(SeverityError, -1, conn, "%s slot %d out of range for %s (%d slots)", role, ep.Slot, s.kind, slots(s))
		return false
	}
	return true
}

// loops returns the strongly connected components that contain a cycle, each
// sorted, in order of their smallest member.
func loops(edges [][]int) [][]int {
	n := len(edges)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var (
		stack []int
		next  int
		out   [][]int
	)

	var visit func(v int)
	visit = func(v int) {
		index[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true

		selfLoop := false
		for _, w := range edges[v] {
			if w == v {
				selfLoop = true
			}
			if index[w] < 0 {
				visit(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] != index[v] {
			return
		}
		var scc []int
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) > 1 || selfLoop {
			sort.Ints(scc)
			out = append(out, scc)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] < 0 {
			visit(v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// CheckSource validates every document of src, keyed by name.
func CheckSource(ctx context.Context, src ports.DocumentSource, reg domain.Registry) (map[string]*Report, error) {
	names, err := src.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	reports := make(map[string]*Report, len(names))
	for _, name := range names {
		doc, err := src.Get(ctx, name)
		if err != nil {
			r := &Report{}
			r.add(SeverityError, -1, -1, "load: %v", err)
			reports[name] = r
			continue
		}
		reports[name] = Check(doc, reg)
	}
	return reports, nil
}
