package system

import (
	"fmt"
	"time"
)

// Runner executes systems in phase order each tick. Systems sharing a
// phase run in registration order.
type Runner struct {
	phases [phaseCount][]System
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register adds s to the end of its phase. A phase outside the known set
// is a programming error.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || p >= phaseCount {
		panic(fmt.Sprintf("system: register in unknown phase %d", p))
	}
	r.phases[p] = append(r.phases[p], s)
}

func (r *Runner) Tick(dt time.Duration) {
	for p := range r.phases {
		r.run(Phase(p), dt)
	}
}

// TickPhase runs only the systems of one phase. The session uses it to
// flush output and dispatch events outside a regular tick.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase < 0 || phase >= phaseCount {
		return
	}
	r.run(phase, dt)
}

// Len is the number of systems registered in phase.
func (r *Runner) Len(phase Phase) int {
	if phase < 0 || phase >= phaseCount {
		return 0
	}
	return len(r.phases[phase])
}

func (r *Runner) run(phase Phase, dt time.Duration) {
	for _, s := range r.phases[phase] {
		s.Update(dt)
	}
}
