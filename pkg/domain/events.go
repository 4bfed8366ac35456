package domain

import "time"

// SettleEvent describes one completed propagation run.
type SettleEvent struct {
	Seeds       int
	Evaluations int
	Duration    time.Duration
}

// Hooks lets observers follow propagation without the domain knowing about them.
// Nil callbacks are skipped.
type Hooks struct {
	OnSettle func(SettleEvent)
	OnCycle  func(*CycleError)
}

func (h Hooks) settled(ev SettleEvent) {
	if h.OnSettle != nil {
		h.OnSettle(ev)
	}
}

func (h Hooks) cycled(err *CycleError) {
	if h.OnCycle != nil {
		h.OnCycle(err)
	}
}
