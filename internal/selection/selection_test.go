package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfl/client/internal/geom"
	"github.com/tfl/client/internal/world"
)

const eps = 1e-2

func newCamera() *TopDownCamera {
	c := NewTopDownCamera(800, 600)
	c.Pos = geom.Vec3{Y: 200}
	return c
}

func screenOf(t *testing.T, c Camera, p geom.Vec3) geom.Vec2 {
	t.Helper()
	s, ok := c.WorldToScreen(p)
	require.True(t, ok)
	return s
}

func TestTopDownCameraRoundTrip(t *testing.T) {
	c := newCamera()
	s := screenOf(t, c, geom.Vec3{})
	assert.InDelta(t, 400, s.X, eps)
	assert.InDelta(t, 300, s.Y, eps)

	r := NewResolver(c, FlatTerrain(0), world.NewStore())
	want := geom.Vec3{X: 50, Z: -30}
	s = screenOf(t, c, want)
	got, ok := r.GroundPoint(s.X, s.Y)
	require.True(t, ok)
	assert.InDelta(t, want.X, got.X, eps)
	assert.InDelta(t, want.Z, got.Z, eps)

	_, ok = c.WorldToScreen(geom.Vec3{Y: 300})
	assert.False(t, ok, "points above the camera do not project")
}

func TestGroundPointRayMarch(t *testing.T) {
	c := newCamera()

	flat := NewResolver(c, FlatTerrain(0), world.NewStore())
	p, ok := flat.GroundPoint(400, 300)
	require.True(t, ok)
	assert.Equal(t, geom.Vec3{}, p)

	p, ok = flat.GroundPoint(800, 300)
	require.True(t, ok)
	assert.InDelta(t, 110.46, p.X, eps)

	raised := NewResolver(c, FlatTerrain(100), world.NewStore())
	p, ok = raised.GroundPoint(400, 300)
	require.True(t, ok)
	assert.InDelta(t, 100, p.Y, eps)

	c.Pos.Y = -1
	_, ok = flat.GroundPoint(400, 300)
	assert.False(t, ok)
}

func selectionStore() *world.Store {
	s := world.NewStore()
	s.Units.Set(1, &world.UnitRecord{ID: 1, Group: 1, Pos: geom.Vec3{X: 10, Z: 10}})
	s.Units.Set(2, &world.UnitRecord{ID: 2, Group: 1, Pos: geom.Vec3{X: -10, Z: -10}})
	s.Units.Set(3, &world.UnitRecord{ID: 3, Group: 1, Pos: geom.Vec3{X: 90}})
	s.Units.Set(4, &world.UnitRecord{ID: 4, Group: 1, Pos: geom.Vec3{X: 5, Z: 5}, Dead: true})
	s.Units.Set(5, &world.UnitRecord{ID: 5, Group: 2, Pos: geom.Vec3{}})
	return s
}

func TestBoxSelectOwnedLivingInside(t *testing.T) {
	c := newCamera()
	r := NewResolver(c, FlatTerrain(0), selectionStore())
	a := screenOf(t, c, geom.Vec3{X: 50, Z: 50})
	b := screenOf(t, c, geom.Vec3{X: -50, Z: -50})

	assert.Equal(t, []uint32{1, 2}, r.BoxSelect(a, b, 1))
	assert.Equal(t, []uint32{5}, r.BoxSelect(a, b, 2))
}

func TestPickUnit(t *testing.T) {
	c := newCamera()
	r := NewResolver(c, FlatTerrain(0), selectionStore())

	id, ok := r.PickUnit(403, 300, 10)
	require.True(t, ok)
	assert.Equal(t, uint32(5), id)

	_, ok = r.PickUnit(403, 300, 2)
	assert.False(t, ok)
}

func TestPointerDragThenClick(t *testing.T) {
	c := newCamera()
	sel := world.NewSelection()
	p := NewPointer(NewResolver(c, FlatTerrain(0), selectionStore()), sel)

	a := screenOf(t, c, geom.Vec3{X: -50, Z: -50})
	b := screenOf(t, c, geom.Vec3{X: 50, Z: 50})
	p.Begin(a.X, a.Y)
	assert.True(t, p.Dragging())
	in := p.End(b.X, b.Y, 1)
	assert.Equal(t, IntentSelect, in.Kind)
	assert.Equal(t, []uint32{1, 2}, sel.IDs())

	p.Begin(400, 300)
	in = p.End(405, 305, 1) // 50 px², below the drag threshold
	require.Equal(t, IntentMove, in.Kind)
	assert.InDelta(t, 0, in.Target.X, 5)
	assert.Equal(t, []uint32{1, 2}, in.Units)

	p.Cancel()
	assert.Zero(t, sel.Len())
	assert.Equal(t, IntentNone, p.End(400, 300, 1).Kind)
}

func TestPointerEmptyDragClearsSelection(t *testing.T) {
	c := newCamera()
	sel := world.NewSelection()
	sel.Replace([]uint32{1})
	p := NewPointer(NewResolver(c, FlatTerrain(0), selectionStore()), sel)

	p.Begin(0, 0)
	in := p.End(40, 40, 1)
	assert.Equal(t, IntentSelect, in.Kind)
	assert.Empty(t, in.Units)
	assert.Zero(t, sel.Len())
}

func TestViewInitPanZoom(t *testing.T) {
	c := NewTopDownCamera(800, 600)
	v := NewView(c, FlatTerrain(0), ViewOptions{})

	v.Init(geom.Vec2{X: 10, Y: 20})
	assert.Equal(t, geom.Vec3{X: 10, Y: 200, Z: 20}, c.Pos)

	v.Pan(0.1, 0)
	assert.InDelta(t, 30, c.Pos.X, eps, "pan is scaled by height")

	v.Zoom(-150)
	assert.InDelta(t, 200, c.Pos.Y, eps, "cannot dive under the clearance")
	v.Zoom(-50)
	assert.InDelta(t, 150, c.Pos.Y, eps)
}

func TestViewPanClampsToClearance(t *testing.T) {
	c := NewTopDownCamera(800, 600)
	hills := FlatTerrain(150)
	v := NewView(c, hills, ViewOptions{})
	c.Pos = geom.Vec3{Y: 200}

	v.Pan(0.01, 0)
	assert.InDelta(t, 250, c.Pos.Y, eps)
}

func TestViewStaysOverMap(t *testing.T) {
	c := NewTopDownCamera(800, 600)
	v := NewView(c, FlatTerrain(0), ViewOptions{
		Bounds: geom.NewRect(geom.Vec2{X: -500, Y: -500}, geom.Vec2{X: 500, Y: 500}),
	})
	v.Init(geom.Vec2{})

	v.Pan(2, 0)
	assert.Equal(t, float32(0), c.Pos.X, "corner would leave the map")

	v.Pan(0.5, 0)
	assert.InDelta(t, 100, c.Pos.X, eps)
}

func TestViewEdgeScroll(t *testing.T) {
	c := NewTopDownCamera(800, 600)
	v := NewView(c, FlatTerrain(0), ViewOptions{})
	v.Init(geom.Vec2{})

	v.EdgeScroll(geom.Vec2{X: 400, Y: 300}, 16*time.Millisecond)
	assert.Equal(t, geom.Vec3{Y: 200}, c.Pos)

	v.EdgeScroll(geom.Vec2{X: 799, Y: 300}, 16*time.Millisecond)
	assert.InDelta(t, 3.2, c.Pos.X, eps)
	assert.Zero(t, c.Pos.Z)

	v.EdgeScroll(geom.Vec2{X: 400, Y: 1}, 16*time.Millisecond)
	assert.InDelta(t, -3.2, c.Pos.Z, eps)
}
