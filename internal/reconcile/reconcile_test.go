package reconcile

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfl/client/internal/data"
	"github.com/tfl/client/internal/geom"
	"github.com/tfl/client/internal/net/packet"
	"github.com/tfl/client/internal/world"
)

type recorder struct {
	attached map[uint32]int
	detached map[uint32]int
	effects  map[uint64]bool
	projs    map[uint32]bool
}

func newRecorder() *recorder {
	return &recorder{
		attached: map[uint32]int{},
		detached: map[uint32]int{},
		effects:  map[uint64]bool{},
		projs:    map[uint32]bool{},
	}
}

func (r *recorder) AttachUnit(u *world.UnitRecord)             { r.attached[u.ID]++ }
func (r *recorder) DetachUnit(id uint32)                       { r.detached[id]++ }
func (r *recorder) AttachProjectile(p *world.ProjectileRecord) { r.projs[p.ID] = true }
func (r *recorder) DetachProjectile(id uint32)                 { delete(r.projs, id) }
func (r *recorder) AttachEffect(e *world.TimedEffect)          { r.effects[e.Handle] = true }
func (r *recorder) DetachEffect(h uint64)                      { delete(r.effects, h) }

type fixture struct {
	store *world.Store
	rec   *recorder
	r     *Reconciler
}

func newFixture(t *testing.T, grace time.Duration) *fixture {
	t.Helper()
	units, err := data.NewUnitTable([]data.UnitKind{
		{Kind: 0, Name: "soldier", FOV: 50},
		{Kind: 1, Name: "archer", FOV: 80},
	})
	require.NoError(t, err)
	effects, err := data.NewEffectTable([]data.EffectKind{
		{Kind: 0, Name: "spark", DurationMs: 100},
		{Kind: 1, Name: "blast", DurationMs: 400},
	})
	require.NoError(t, err)

	f := &fixture{store: world.NewStore(), rec: newRecorder()}
	f.r = New(f.store, world.NewWeightTable(units.Count()), units, effects, Options{
		Presenter: f.rec,
		DeadGrace: grace,
	})
	return f
}

func unitsOf(ids ...uint32) packet.UpdateUnit {
	var m packet.UpdateUnit
	for _, id := range ids {
		m.Units = append(m.Units, packet.UnitSync{ID: id, Group: 1, Pos: geom.Vec3{X: float32(id)}})
	}
	return m
}

func TestApplyUnitsSetDifference(t *testing.T) {
	f := newFixture(t, 0)

	e := f.r.ApplyUnits(unitsOf(1, 2, 3), 0)
	assert.Equal(t, []uint32{1, 2, 3}, e.Created)

	e = f.r.ApplyUnits(unitsOf(2, 3, 4), 0)
	assert.Equal(t, []uint32{4}, e.Created)
	assert.Equal(t, []uint32{2, 3}, e.Updated)
	assert.Equal(t, []uint32{1}, e.Destroyed)
	assert.Equal(t, []uint32{2, 3, 4}, f.store.Units.IDs())

	assert.Equal(t, 1, f.rec.detached[1])
	assert.Zero(t, f.rec.detached[2])
	assert.Equal(t, 1, f.rec.attached[4])
}

func TestApplyUnitsIdempotent(t *testing.T) {
	f := newFixture(t, 0)
	snap := unitsOf(5, 7)
	f.r.ApplyUnits(snap, 0)
	before := f.store.Units.IDs()

	e := f.r.ApplyUnits(snap, 0)
	assert.Empty(t, e.Created)
	assert.Empty(t, e.Destroyed)
	assert.Equal(t, before, f.store.Units.IDs())
	assert.Equal(t, 1, f.rec.attached[5], "reapplying never reattaches")
}

func TestApplyUnitsUpdatesFields(t *testing.T) {
	f := newFixture(t, 0)
	f.r.ApplyUnits(unitsOf(1), 0)

	f.r.ApplyUnits(packet.UpdateUnit{Units: []packet.UnitSync{
		{ID: 1, Group: 2, Pos: geom.Vec3{X: 9, Y: 1, Z: 3}, AttackTarget: 8},
	}}, 0)
	u, ok := f.store.Units.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint8(2), u.Group)
	assert.Equal(t, geom.Vec3{X: 9, Y: 1, Z: 3}, u.Pos)
	assert.Equal(t, uint32(8), u.AttackTarget)
}

func TestApplyUnitsKindChange(t *testing.T) {
	f := newFixture(t, 0)
	f.r.ApplyUnits(packet.UpdateUnit{Units: []packet.UnitSync{{ID: 1, Kind: 0, Group: 1}}}, 0)

	e := f.r.ApplyUnits(packet.UpdateUnit{Units: []packet.UnitSync{{ID: 1, Kind: 1, Group: 1}}}, 0)
	assert.Empty(t, e.Created)
	assert.Equal(t, []uint32{1}, e.Updated)
	u, ok := f.store.Units.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint16(1), u.Kind)
	assert.Equal(t, 1, f.rec.attached[1])
}

func TestSuccessiveSnapshots(t *testing.T) {
	check := func(t *testing.T, s1, s2 []uint32) {
		t.Helper()
		f := newFixture(t, 0)
		f.r.ApplyUnits(unitsOf(s1...), 0)
		f.r.ApplyUnits(unitsOf(s2...), 0)

		inS2 := make(map[uint32]bool, len(s2))
		want := make([]uint32, 0, len(s2))
		for _, id := range s2 {
			if !inS2[id] {
				want = append(want, id)
			}
			inS2[id] = true
		}
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
		assert.Equal(t, want, f.store.Units.IDs())

		for _, id := range s1 {
			if inS2[id] {
				assert.Zero(t, f.rec.detached[id], "unit %d survived", id)
			} else {
				assert.Equal(t, 1, f.rec.detached[id], "unit %d destroyed", id)
			}
		}
	}

	tests := []struct {
		name   string
		s1, s2 []uint32
	}{
		{"disjoint", []uint32{1, 2}, []uint32{3, 4}},
		{"overlap", []uint32{1, 2, 3}, []uint32{3, 4}},
		{"same", []uint32{5, 6}, []uint32{6, 5}},
		{"to empty", []uint32{1, 2, 3}, nil},
		{"from empty", nil, []uint32{7}},
		{"duplicates", []uint32{1, 1, 2}, []uint32{2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { check(t, tt.s1, tt.s2) })
	}

	rng := rand.New(rand.NewSource(1))
	pick := func() []uint32 {
		ids := make([]uint32, rng.Intn(12))
		for i := range ids {
			ids[i] = uint32(rng.Intn(16) + 1)
		}
		return ids
	}
	t.Run("random", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			check(t, pick(), pick())
		}
	})
}

func TestApplyUnitsEmptyDestroysAll(t *testing.T) {
	f := newFixture(t, 0)
	f.r.ApplyUnits(unitsOf(1, 2), 0)
	e := f.r.ApplyUnits(packet.UpdateUnit{}, 0)
	assert.Equal(t, []uint32{1, 2}, e.Destroyed)
	assert.Zero(t, f.store.Units.Len())
}

func TestApplyUnitsDuplicateFirstWins(t *testing.T) {
	f := newFixture(t, 0)
	f.r.ApplyUnits(packet.UpdateUnit{Units: []packet.UnitSync{
		{ID: 3, Group: 1},
		{ID: 3, Group: 2},
	}}, 0)
	u, ok := f.store.Units.Get(3)
	require.True(t, ok)
	assert.Equal(t, uint8(1), u.Group)
	assert.Equal(t, 1, f.rec.attached[3])
}

func TestDeathIsStickyAndRetained(t *testing.T) {
	f := newFixture(t, 0)
	f.r.ApplyUnits(unitsOf(1, 2), 0)

	dead := unitsOf(1, 2)
	dead.Units[0].Dead = true
	e := f.r.ApplyUnits(dead, time.Second)
	assert.Equal(t, []uint32{1}, e.Died)

	// a later snapshot claiming alive does not revive
	e = f.r.ApplyUnits(unitsOf(1, 2), 2*time.Second)
	assert.Empty(t, e.Died)
	u, ok := f.store.Units.Get(1)
	require.True(t, ok, "dead units stay until the server drops them")
	assert.True(t, u.Dead)
	assert.Equal(t, time.Second, u.DeadSince)
	assert.False(t, f.store.UnitAlive(1))
}

func TestDeadGraceBuriesUnit(t *testing.T) {
	f := newFixture(t, 500*time.Millisecond)
	dead := unitsOf(1, 2)
	dead.Units[0].Dead = true
	f.r.ApplyUnits(dead, 0)

	e := f.r.ApplyUnits(dead, 400*time.Millisecond)
	assert.Empty(t, e.Destroyed)

	e = f.r.ApplyUnits(dead, 500*time.Millisecond)
	assert.Equal(t, []uint32{1}, e.Destroyed)
	assert.Equal(t, 1, f.rec.detached[1])

	// still mentioned: stays buried
	e = f.r.ApplyUnits(dead, 600*time.Millisecond)
	assert.Empty(t, e.Created)
	assert.False(t, f.store.Units.Has(1))

	// dropped by the server, then the ID reappears alive: a new unit
	f.r.ApplyUnits(unitsOf(2), 700*time.Millisecond)
	e = f.r.ApplyUnits(unitsOf(1, 2), 800*time.Millisecond)
	assert.Equal(t, []uint32{1}, e.Created)
	assert.True(t, f.store.UnitAlive(1))
}

func TestApplyProjectiles(t *testing.T) {
	f := newFixture(t, 0)
	f.r.ApplyProjectiles(packet.UpdateBullet{Bullets: []packet.BulletSync{{ID: 1}, {ID: 2}}})
	e := f.r.ApplyProjectiles(packet.UpdateBullet{Bullets: []packet.BulletSync{{ID: 2, Pos: geom.Vec3{Y: 4}}, {ID: 3}}})

	assert.Equal(t, []uint32{3}, e.Created)
	assert.Equal(t, []uint32{1}, e.Destroyed)
	assert.Equal(t, []uint32{2, 3}, f.store.Projectiles.IDs())
	p, _ := f.store.Projectiles.Get(2)
	assert.Equal(t, float32(4), p.Pos.Y)
	assert.False(t, f.rec.projs[1])
}

func TestApplyWeights(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.r.ApplyWeights(packet.UpdateWeight{Weights: []uint16{3, 7}}))
	assert.Equal(t, []uint16{3, 7}, f.r.weights.Snapshot())

	err := f.r.ApplyWeights(packet.UpdateWeight{Weights: []uint16{1}})
	assert.ErrorIs(t, err, packet.ErrMalformed)
	assert.Equal(t, []uint16{3, 7}, f.r.weights.Snapshot())
}

func TestEffectsExpireOnClientClock(t *testing.T) {
	f := newFixture(t, 0)
	n := f.r.SpawnEffects(packet.Duang{Effects: []packet.DuangSync{
		{Kind: 0},
		{Kind: 1},
		{Kind: 9}, // unknown, dropped
	}}, 0)
	assert.Equal(t, 2, n)
	assert.Len(t, f.rec.effects, 2)

	assert.Zero(t, f.r.ExpireEffects(100*time.Millisecond))
	assert.Equal(t, 1, f.r.ExpireEffects(101*time.Millisecond))
	assert.Equal(t, 1, f.store.Effects.Len())
	assert.Equal(t, 1, f.r.ExpireEffects(time.Second))
	assert.Empty(t, f.rec.effects)
}

func TestResetDetachesEverything(t *testing.T) {
	f := newFixture(t, 0)
	f.r.ApplyUnits(unitsOf(1, 2), 0)
	f.r.ApplyProjectiles(packet.UpdateBullet{Bullets: []packet.BulletSync{{ID: 5}}})
	f.r.SpawnEffects(packet.Duang{Effects: []packet.DuangSync{{Kind: 1}}}, 0)

	f.r.Reset()
	assert.Zero(t, f.store.Units.Len())
	assert.Zero(t, f.store.Projectiles.Len())
	assert.Zero(t, f.store.Effects.Len())
	assert.Equal(t, 1, f.rec.detached[1])
	assert.Equal(t, 1, f.rec.detached[2])
	assert.Empty(t, f.rec.projs)
	assert.Empty(t, f.rec.effects)
}
