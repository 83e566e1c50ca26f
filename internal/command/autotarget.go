package command

import (
	"time"

	"github.com/tfl/client/internal/net"
	"github.com/tfl/client/internal/net/packet"
	"github.com/tfl/client/internal/world"
	"go.uber.org/zap"
)

// AutoTarget advances the auto-target timer by dt scaled by the match
// speed. When the interval elapses it assigns every idle owned unit the
// nearest enemy within its field of view and returns the pairs sent.
// The pass runs once the timer is strictly past the interval; several
// elapsed intervals in one call run a single pass.
func (d *Dispatcher) AutoTarget(dt time.Duration, speed float32) int {
	if speed <= 0 {
		return 0
	}
	d.autoAcc += time.Duration(float64(dt) * float64(speed))
	if d.autoAcc <= d.opts.AutoTargetInterval {
		return 0
	}
	d.autoAcc %= d.opts.AutoTargetInterval

	pairs := d.NearestEnemies()
	if len(pairs) == 0 {
		return 0
	}
	d.send(packet.SetAttackTarget{Pairs: pairs}, net.ReliableOrdered)
	d.log.Debug("auto-target", zap.Int("pairs", len(pairs)))
	return len(pairs)
}

// idle reports whether u has nothing alive to attack.
func (d *Dispatcher) idle(u *world.UnitRecord) bool {
	if u.AttackTarget == world.NoTarget {
		return true
	}
	return !d.store.UnitAlive(u.AttackTarget)
}

// NearestEnemies pairs each idle owned unit with its nearest living enemy
// strictly inside its field of view. The field of view is a radius, so
// squared 3D distances are compared against fov². On a tie the enemy with
// the lower ID wins. Pairs come out in ascending attacker order.
func (d *Dispatcher) NearestEnemies() []packet.AttackPair {
	d.grid.Reset()
	enemies := 0
	d.store.EachEnemy(d.group, func(u *world.UnitRecord) {
		d.grid.Add(u)
		enemies++
	})
	if enemies == 0 {
		return nil
	}

	var pairs []packet.AttackPair
	d.store.EachOwned(d.group, func(u *world.UnitRecord) {
		if !d.idle(u) {
			return
		}
		fov := d.units.FOV(u.Kind)
		if fov <= 0 {
			return
		}
		limit := fov * fov
		best := limit
		var target uint32
		found := false
		for _, e := range d.grid.Nearby(u.Pos, fov) {
			if dist := u.Pos.DistanceSquared(e.Pos); dist < best {
				best = dist
				target = e.ID
				found = true
			}
		}
		if found {
			pairs = append(pairs, packet.AttackPair{Attacker: u.ID, Target: target})
		}
	})
	return pairs
}
