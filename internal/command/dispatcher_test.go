package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfl/client/internal/data"
	"github.com/tfl/client/internal/geom"
	"github.com/tfl/client/internal/net"
	"github.com/tfl/client/internal/net/packet"
	"github.com/tfl/client/internal/world"
)

type sent struct {
	msg packet.ClientMessage
	rel net.Reliability
}

type fakeLink struct {
	t    *testing.T
	sent []sent
}

func (l *fakeLink) Send(data []byte, rel net.Reliability) {
	m, err := packet.DecodeClient(data)
	require.NoError(l.t, err)
	l.sent = append(l.sent, sent{msg: m, rel: rel})
}

type fakeClock struct{ now time.Duration }

func (c *fakeClock) Now() time.Duration { return c.now }

type fixture struct {
	link  *fakeLink
	clock *fakeClock
	store *world.Store
	d     *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	units, err := data.NewUnitTable([]data.UnitKind{
		{Kind: 0, Name: "soldier", FOV: 50},
		{Kind: 1, Name: "tower", FOV: 0},
	})
	require.NoError(t, err)
	f := &fixture{
		link:  &fakeLink{t: t},
		clock: &fakeClock{},
		store: world.NewStore(),
	}
	f.d = New(f.link, f.store, units, world.NewWeightTable(units.Count()), f.clock, Options{MoveDedup: 100 * time.Millisecond})
	f.d.group = 1
	return f
}

func (f *fixture) unit(id uint32, group uint8, pos geom.Vec3) *world.UnitRecord {
	u := &world.UnitRecord{ID: id, Group: group, Pos: pos}
	f.store.Units.Set(id, u)
	return u
}

func TestIssueMoveFiltersToOwnedLiving(t *testing.T) {
	f := newFixture(t)
	f.unit(1, 1, geom.Vec3{})
	f.unit(2, 2, geom.Vec3{})
	f.unit(3, 1, geom.Vec3{}).Dead = true

	require.True(t, f.d.IssueMove(geom.Vec2{X: 5, Y: 6}, []uint32{3, 2, 1, 1, 99}))
	require.Len(t, f.link.sent, 1)
	m := f.link.sent[0].msg.(packet.SetMoveTarget)
	assert.Equal(t, []uint32{1}, m.Units)
	assert.Equal(t, geom.Vec2{X: 5, Y: 6}, m.Target)
	assert.Equal(t, net.ReliableOrdered, f.link.sent[0].rel)
}

func TestIssueMoveNothingOwnedIsNoop(t *testing.T) {
	f := newFixture(t)
	f.unit(2, 2, geom.Vec3{})
	assert.False(t, f.d.IssueMove(geom.Vec2{}, []uint32{2}))
	assert.False(t, f.d.IssueMove(geom.Vec2{}, nil))
	assert.Empty(t, f.link.sent)
	assert.Equal(t, 2, f.d.Stats().Empty)
}

func TestIssueMoveDedup(t *testing.T) {
	f := newFixture(t)
	f.unit(1, 1, geom.Vec3{})
	f.unit(2, 1, geom.Vec3{})
	target := geom.Vec2{X: 1, Y: 1}

	require.True(t, f.d.IssueMove(target, []uint32{1, 2}))
	f.clock.now = 50 * time.Millisecond
	assert.False(t, f.d.IssueMove(target, []uint32{2, 1}), "same set, same target")
	assert.True(t, f.d.IssueMove(target, []uint32{1}), "different set")
	f.clock.now = 200 * time.Millisecond
	assert.True(t, f.d.IssueMove(target, []uint32{1}), "window elapsed")
	assert.Len(t, f.link.sent, 3)
	assert.Equal(t, 1, f.d.Stats().Suppressed)
}

func TestIssueMoveLargeGoesBestEffort(t *testing.T) {
	f := newFixture(t)
	var ids []uint32
	for i := uint32(1); i <= 17; i++ {
		f.unit(i, 1, geom.Vec3{})
		ids = append(ids, i)
	}
	require.True(t, f.d.IssueMove(geom.Vec2{}, ids))
	assert.Equal(t, net.BestEffort, f.link.sent[0].rel)
}

func TestIssueAttackFilters(t *testing.T) {
	f := newFixture(t)
	f.unit(1, 1, geom.Vec3{})
	f.unit(2, 1, geom.Vec3{})
	f.unit(10, 2, geom.Vec3{})
	f.unit(11, 2, geom.Vec3{}).Dead = true

	n := f.d.IssueAttack([]packet.AttackPair{
		{Attacker: 1, Target: 10},
		{Attacker: 1, Target: 2},  // friendly
		{Attacker: 2, Target: 11}, // dead target
		{Attacker: 10, Target: 1}, // not ours
	})
	assert.Equal(t, 1, n)
	require.Len(t, f.link.sent, 1)
	assert.Equal(t, []packet.AttackPair{{Attacker: 1, Target: 10}}, f.link.sent[0].msg.(packet.SetAttackTarget).Pairs)

	assert.Zero(t, f.d.IssueAttack([]packet.AttackPair{{Attacker: 1, Target: 2}}))
	assert.Len(t, f.link.sent, 1)
}

func TestChangeWeightIsOptimistic(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.d.ChangeWeight(1, 7))
	v, _ := f.d.weights.Get(1)
	assert.Equal(t, uint16(7), v)
	assert.Equal(t, packet.ChangeWeight{Kind: 1, Weight: 7}, f.link.sent[0].msg)
	assert.Equal(t, net.BestEffort, f.link.sent[0].rel)

	require.NoError(t, f.d.ChangeWeightByName("soldier", 3))
	assert.ErrorIs(t, f.d.ChangeWeightByName("dragon", 3), ErrUnknownKind)
	assert.Error(t, f.d.ChangeWeight(5, 1))
}

func TestChangeGroupAndExit(t *testing.T) {
	f := newFixture(t)
	f.d.ChangeGroup(3)
	f.d.Exit()
	assert.Equal(t, uint8(3), f.d.Group())
	require.Len(t, f.link.sent, 2)
	assert.Equal(t, packet.ChangeGroup{Group: 3}, f.link.sent[0].msg)
	assert.Equal(t, packet.Exit{}, f.link.sent[1].msg)

	st := f.d.Stats()
	assert.Equal(t, 1, st.Sent[packet.CChangeGroup])
	assert.Equal(t, 1, st.Sent[packet.CExit])
}

func TestNearestEnemyWithinFOV(t *testing.T) {
	f := newFixture(t)
	f.unit(1, 1, geom.Vec3{})
	f.unit(20, 2, geom.Vec3{X: 9, Z: 3})      // d² = 90
	f.unit(21, 2, geom.Vec3{X: 6, Y: 2, Z: 0}) // d² = 40

	pairs := f.d.NearestEnemies()
	assert.Equal(t, []packet.AttackPair{{Attacker: 1, Target: 21}}, pairs)
}

func TestNearestEnemyRangeAndTies(t *testing.T) {
	f := newFixture(t)
	f.unit(1, 1, geom.Vec3{})
	f.unit(30, 2, geom.Vec3{X: 50}) // exactly fov: out of range
	assert.Empty(t, f.d.NearestEnemies())

	f.unit(40, 2, geom.Vec3{X: 10})
	f.unit(35, 2, geom.Vec3{X: -10})
	assert.Equal(t, []packet.AttackPair{{Attacker: 1, Target: 35}}, f.d.NearestEnemies(),
		"equal distance: lower ID is seen first and kept")
}

func TestNearestEnemySkipsBusyAndBlind(t *testing.T) {
	f := newFixture(t)
	busy := f.unit(1, 1, geom.Vec3{})
	tower := f.unit(2, 1, geom.Vec3{})
	tower.Kind = 1 // fov 0
	f.unit(20, 2, geom.Vec3{X: 1})
	busy.AttackTarget = 20

	assert.Empty(t, f.d.NearestEnemies())

	// a target that died no longer keeps the unit busy
	dead := f.unit(21, 2, geom.Vec3{X: 100})
	dead.Dead = true
	busy.AttackTarget = 21
	assert.Equal(t, []packet.AttackPair{{Attacker: 1, Target: 20}}, f.d.NearestEnemies())
}

func TestAutoTargetInterval(t *testing.T) {
	f := newFixture(t)
	f.unit(1, 1, geom.Vec3{})
	f.unit(20, 2, geom.Vec3{X: 1})

	assert.Zero(t, f.d.AutoTarget(200*time.Millisecond, 1))
	assert.Zero(t, f.d.AutoTarget(200*time.Millisecond, 1))
	assert.Zero(t, f.d.AutoTarget(100*time.Millisecond, 1), "reaching the interval is not enough")
	assert.Equal(t, 1, f.d.AutoTarget(time.Millisecond, 1))
	require.Len(t, f.link.sent, 1)
	assert.Equal(t, net.ReliableOrdered, f.link.sent[0].rel)

	// double speed halves the wall time to the next pass
	assert.Equal(t, 1, f.d.AutoTarget(250*time.Millisecond, 2))
	assert.Zero(t, f.d.AutoTarget(time.Second, 0))
}

func TestAutoTargetNoPairsSendsNothing(t *testing.T) {
	f := newFixture(t)
	f.unit(1, 1, geom.Vec3{})
	assert.Zero(t, f.d.AutoTarget(time.Second, 1))
	assert.Empty(t, f.link.sent)
}
