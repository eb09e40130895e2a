package services

import (
	"fmt"
	"sync"
)

// Progress is one planning milestone of a multi-city plan.
type Progress struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	// Percent is monotonically non-decreasing within one plan.
	Percent int    `json:"progress"`
	City    string `json:"current_city,omitempty"`
}

// ProgressFunc receives milestones. Calls are serialized.
type ProgressFunc func(Progress)

// Progress stages, in the order they are reported.
const (
	ProgressAllocated = "allocated"
	ProgressRouted    = "routed"
	ProgressStop      = "stop"
	ProgressCosted    = "costed"
)

// progressMeter serializes callbacks from concurrent stop tasks and spreads
// per-stop milestones between the routed and costed percentages.
type progressMeter struct {
	mu    sync.Mutex
	fn    ProgressFunc
	total int
	done  int
	last  int
}

func newProgressMeter(fn ProgressFunc, stops int) *progressMeter {
	return &progressMeter{fn: fn, total: stops}
}

func (m *progressMeter) report(stage, city, msg string, percent int) {
	if m == nil || m.fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emit(stage, city, msg, percent)
}

func (m *progressMeter) stopDone(city string) {
	if m == nil || m.fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done++
	m.emit(ProgressStop, city, fmt.Sprintf("Analyzed %s (%d/%d)", city, m.done, m.total), 30+55*m.done/max(m.total, 1))
}

// emit must be called with mu held.
func (m *progressMeter) emit(stage, city, msg string, percent int) {
	m.last = max(m.last, percent)
	m.fn(Progress{Stage: stage, Message: msg, Percent: m.last, City: city})
}
