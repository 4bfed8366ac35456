package domain

import "time"

// settle pushes signal changes from the seed components to everything reachable
// downstream. It is a FIFO worklist: a component is queued at most once at a time
// and may be evaluated at most limit times per run. Exceeding that means the
// graph contains a loop that does not stabilise.
func (c *Circuit) settle(seeds ...Handle) error {
	if len(seeds) == 0 {
		return nil
	}
	start := time.Now()
	limit := c.limit()

	queue := make([]Handle, 0, len(seeds))
	pending := make(map[Handle]bool, len(seeds))
	visits := make(map[Handle]int)
	enqueue := func(h Handle) {
		if !pending[h] {
			pending[h] = true
			queue = append(queue, h)
		}
	}
	for _, h := range seeds {
		enqueue(h)
	}

	evaluations := 0
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		delete(pending, h)

		comp, ok := c.arena[h]
		if !ok {
			continue
		}
		visits[h]++
		if visits[h] > limit {
			err := &CycleError{Component: h, Label: comp.label, Evaluations: visits[h] - 1, Limit: limit}
			c.hooks.cycled(err)
			return err
		}
		evaluations++
		if err := comp.update(); err != nil {
			return err
		}
		for i := range comp.outputs {
			out := &comp.outputs[i]
			for _, conn := range out.conns {
				dst, ok := c.arena[conn.to.Component]
				if !ok {
					continue
				}
				in := &dst.inputs[conn.to.Index]
				if in.value != out.value {
					in.value = out.value
					enqueue(dst.handle)
				}
			}
		}
	}

	c.hooks.settled(SettleEvent{Seeds: len(seeds), Evaluations: evaluations, Duration: time.Since(start)})
	return nil
}

// settleAll re-evaluates every component in order.
func (c *Circuit) settleAll() error {
	seeds := make([]Handle, len(c.components))
	for i, comp := range c.components {
		seeds[i] = comp.handle
	}
	return c.settle(seeds...)
}

func (c *Circuit) limit() int {
	if c.settleLimit > 0 {
		return c.settleLimit
	}
	return len(c.components) + 1
}

// valueSnapshot records every slot value, including those inside custom
// components, so a failed edit can be undone exactly.
type valueSnapshot map[Handle]slotValues

type slotValues struct {
	inputs  []bool
	outputs []bool
	inner   valueSnapshot
}

func (c *Circuit) snapshotValues() valueSnapshot {
	snap := make(valueSnapshot, len(c.components))
	for _, comp := range c.components {
		sv := slotValues{inputs: comp.InputValues(), outputs: comp.OutputValues()}
		if comp.inner != nil {
			sv.inner = comp.inner.snapshotValues()
		}
		snap[comp.handle] = sv
	}
	return snap
}

func (c *Circuit) restoreValues(snap valueSnapshot) {
	for h, sv := range snap {
		comp, ok := c.arena[h]
		if !ok {
			continue
		}
		for i, v := range sv.inputs {
			comp.inputs[i].value = v
		}
		for i, v := range sv.outputs {
			comp.outputs[i].value = v
		}
		if comp.inner != nil && sv.inner != nil {
			comp.inner.restoreValues(sv.inner)
		}
	}
}
