package client

import (
	"github.com/tfl/client/internal/geom"
	"github.com/tfl/client/internal/net/packet"
	"github.com/tfl/client/internal/selection"
)

// Player input. Everything here is a no-op outside Active, and every
// command is filtered against the store before it reaches the wire.

// PointerDown starts a press at screen (x, y).
func (s *Session) PointerDown(x, y float32) {
	if s.state != StateActive {
		return
	}
	s.pointer.Begin(x, y)
}

// pickRadius is how near, in pixels, a click must land to pick a unit.
const pickRadius = 24

// PointerUp ends a press. A drag box-selects. A click with units selected
// orders them to attack the enemy under the cursor, or to move to the
// ground point when there is none.
func (s *Session) PointerUp(x, y float32) selection.Intent {
	if s.state != StateActive {
		return selection.Intent{}
	}
	in := s.pointer.End(x, y, s.Group())
	if in.Kind != selection.IntentMove {
		return in
	}
	if enemy, ok := s.PickUnit(x, y); ok && !s.store.Owned(enemy, s.Group()) {
		pairs := make([]packet.AttackPair, 0, len(in.Units))
		for _, id := range in.Units {
			pairs = append(pairs, packet.AttackPair{Attacker: id, Target: enemy})
		}
		if s.cmd.IssueAttack(pairs) > 0 {
			in.Kind, in.Enemy = selection.IntentAttack, enemy
			return in
		}
	}
	s.cmd.IssueMove(in.Target, in.Units)
	return in
}

// PickUnit returns the living unit drawn nearest to screen (x, y).
func (s *Session) PickUnit(x, y float32) (uint32, bool) {
	if s.state != StateActive {
		return 0, false
	}
	return s.resolver.PickUnit(x, y, pickRadius)
}

// CursorMoved records the cursor for edge scrolling.
func (s *Session) CursorMoved(x, y float32) {
	if s.state != StateActive {
		return
	}
	s.cursor = &cursorPos{x: x, y: y}
}

// CancelSelection drops the selection.
func (s *Session) CancelSelection() {
	if s.state != StateActive {
		return
	}
	s.pointer.Cancel()
}

// HasSelection reports whether any unit is selected.
func (s *Session) HasSelection() bool { return s.selection.Len() > 0 }

// Selection returns the selected unit IDs in ascending order.
func (s *Session) Selection() []uint32 { return s.selection.IDs() }

// Select replaces the selection with the owned living units among ids.
func (s *Session) Select(ids []uint32) {
	if s.state != StateActive {
		return
	}
	keep := make([]uint32, 0, len(ids))
	for _, id := range ids {
		if s.store.Owned(id, s.Group()) {
			keep = append(keep, id)
		}
	}
	s.selection.Replace(keep)
}

func (s *Session) Pan(dx, dz float32) {
	if s.state == StateActive {
		s.view.Pan(dx, dz)
	}
}

func (s *Session) Zoom(dy float32) {
	if s.state == StateActive {
		s.view.Zoom(dy)
	}
}

// Camera returns the camera the view rig steers.
func (s *Session) Camera() selection.MovableCamera { return s.cam }

// GroundPoint resolves screen (x, y) to the ground.
func (s *Session) GroundPoint(x, y float32) (geom.Vec3, bool) {
	if s.state != StateActive {
		return geom.Vec3{}, false
	}
	return s.resolver.GroundPoint(x, y)
}

// MoveTo orders units to a ground point directly, as bots do.
func (s *Session) MoveTo(target geom.Vec2, ids []uint32) bool {
	if s.state != StateActive {
		return false
	}
	return s.cmd.IssueMove(target, ids)
}

// Attack sends the valid pairs among pairs.
func (s *Session) Attack(pairs []packet.AttackPair) int {
	if s.state != StateActive {
		return 0
	}
	return s.cmd.IssueAttack(pairs)
}

// ChangeWeight sets the production weight of the named kind.
func (s *Session) ChangeWeight(name string, weight uint16) error {
	return s.cmd.ChangeWeightByName(name, weight)
}

// Weight returns the local production weight of the named kind.
func (s *Session) Weight(name string) (uint16, bool) {
	kind, ok := s.units.Lookup(name)
	if !ok {
		return 0, false
	}
	return s.weights.Get(kind)
}

// Weights returns the whole weight table in kind order.
func (s *Session) Weights() []uint16 { return s.weights.Snapshot() }

// UnitCount is the number of units the store knows, dead ones included.
func (s *Session) UnitCount() int { return s.store.Units.Len() }
