package world

import (
	"time"

	"github.com/tfl/client/internal/geom"
)

// NoTarget is the wire value of "no attack target".
const NoTarget uint32 = 0

// UnitRecord is the client's copy of one server unit.
type UnitRecord struct {
	ID           uint32
	Kind         uint16
	Group        uint8
	Pos          geom.Vec3
	Rot          geom.Quat
	AttackTarget uint32
	Dead         bool
	DeadSince    time.Duration // clock reading when first seen dead
}

func (u *UnitRecord) Alive() bool { return !u.Dead }

// ProjectileRecord has no death state: absence from a snapshot is its end.
type ProjectileRecord struct {
	ID   uint32
	Kind uint16
	Pos  geom.Vec3
	Rot  geom.Quat
}

// TimedEffect is a locally owned effect that expires on the client clock.
type TimedEffect struct {
	Handle uint64
	Kind   uint16
	Pos    geom.Vec3
	Expiry time.Duration
}

// Clock is read once per tick to expire effects.
type Clock interface {
	Now() time.Duration
}

// MonotonicClock measures time since its creation.
type MonotonicClock struct {
	start time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

func (c *MonotonicClock) Now() time.Duration {
	return time.Since(c.start)
}
