package client

import (
	"time"

	coresys "github.com/tfl/client/internal/core/system"
	"github.com/tfl/client/internal/geom"
	"go.uber.org/zap"
)

func (s *Session) registerSystems() {
	s.runner.Register(coresys.Func{P: coresys.PhaseInput, Fn: s.drainInbound})
	s.runner.Register(coresys.Func{P: coresys.PhaseUpdate, Fn: s.updateLocal})
	s.runner.Register(coresys.Func{P: coresys.PhaseOutput, Fn: s.autoTarget})
	// output systems added later (bots) run before the flush
	s.runner.Register(coresys.Func{P: coresys.PhaseCleanup, Fn: s.flushOutbound})
	s.runner.Register(coresys.Func{P: coresys.PhaseCleanup, Fn: func(time.Duration) { s.bus.Flush() }})
}

// drainInbound applies every queued message. Once a stop is seen the rest
// of the queue is read and discarded, and the session stops after the
// drain.
func (s *Session) drainInbound(time.Duration) {
	discarded := 0
	for {
		raw, ok := s.link.TryReceive()
		if !ok {
			break
		}
		if s.pending != nil {
			discarded++
			continue
		}
		s.receive(raw, s.now)
	}
	if s.pending == nil && !s.link.IsConnected() {
		s.stopAfterDrain(ReasonDisconnected, ErrDisconnected)
	}
	if p := s.pending; p != nil {
		if discarded > 0 {
			s.log.Debug("discarded messages after stop", zap.Int("count", discarded))
		}
		s.enterStopped(p.reason, p.err)
	}
}

// updateLocal runs the purely local per-tick work: effect expiry,
// selection pruning and edge scrolling.
func (s *Session) updateLocal(dt time.Duration) {
	if s.state != StateActive {
		return
	}
	s.rec.ExpireEffects(s.now)
	if n := s.selection.Prune(s.store.UnitAlive); n > 0 {
		s.log.Debug("pruned selection", zap.Int("removed", n))
	}
	if s.cursor != nil && !s.pointer.Dragging() {
		s.view.EdgeScroll(geom.Vec2{X: s.cursor.x, Y: s.cursor.y}, dt)
	}
}

func (s *Session) autoTarget(dt time.Duration) {
	if s.state != StateActive {
		return
	}
	s.cmd.AutoTarget(dt, s.speed)
}

// flushOutbound hands this tick's output to the transport. It also runs
// after every Wait poll so lobby commands reach the server.
func (s *Session) flushOutbound(time.Duration) {
	if s.state != StateStopped {
		s.link.Flush()
	}
}
