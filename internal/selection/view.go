package selection

import (
	"time"

	"github.com/tfl/client/internal/geom"
)

// ViewOptions tune the camera rig. Zero values take the defaults below.
type ViewOptions struct {
	SpawnHeight float32   // camera height above the spawn point, default 200
	Clearance   float32   // minimum height above terrain, default 100
	MinHeight   float32   // absolute floor for zooming, default 10
	EdgeSpeed   float32   // edge-scroll pan per millisecond, default 0.001
	EdgeBand    float32   // inner edge of the scroll band as a fraction of half the viewport, default 0.8
	Bounds      geom.Rect // ground XZ extent the view corners must stay over; empty = unbounded
}

func (o ViewOptions) withDefaults() ViewOptions {
	if o.SpawnHeight <= 0 {
		o.SpawnHeight = 200
	}
	if o.Clearance <= 0 {
		o.Clearance = 100
	}
	if o.MinHeight <= 0 {
		o.MinHeight = 10
	}
	if o.EdgeSpeed <= 0 {
		o.EdgeSpeed = 0.001
	}
	if o.EdgeBand <= 0 || o.EdgeBand >= 1 {
		o.EdgeBand = 0.8
	}
	return o
}

// View steers a camera over the terrain. Moves that would leave any corner
// of the viewport off the map are rolled back.
type View struct {
	cam     MovableCamera
	terrain Terrain
	opts    ViewOptions
}

func NewView(cam MovableCamera, terrain Terrain, opts ViewOptions) *View {
	return &View{cam: cam, terrain: terrain, opts: opts.withDefaults()}
}

func (v *View) Camera() MovableCamera { return v.cam }

// Init places the camera above the spawn point.
func (v *View) Init(spawn geom.Vec2) {
	h := v.terrain.HeightAt(spawn.X, spawn.Y)
	v.cam.SetPosition(geom.Vec3{X: spawn.X, Y: h + v.opts.SpawnHeight, Z: spawn.Y})
}

// Pan moves the camera by (dx, dz) scaled by its height, so the on-screen
// speed stays the same at every zoom level.
func (v *View) Pan(dx, dz float32) {
	old := v.cam.Position()
	dx *= old.Y
	dz *= old.Y
	p := geom.Vec3{X: old.X + dx, Y: old.Y, Z: old.Z + dz}
	if floor := v.terrain.HeightAt(p.X, p.Z) + v.opts.Clearance; p.Y < floor {
		p.Y = floor
	}
	v.cam.SetPosition(p)
	if !v.onMap() {
		v.cam.SetPosition(old)
	}
}

// Zoom raises (dy > 0) or lowers the camera, keeping it above both the
// absolute floor and the terrain clearance.
func (v *View) Zoom(dy float32) {
	old := v.cam.Position()
	y := old.Y + dy
	if y <= v.opts.MinHeight || y-v.opts.Clearance <= v.terrain.HeightAt(old.X, old.Z) {
		return
	}
	v.cam.SetPosition(geom.Vec3{X: old.X, Y: y, Z: old.Z})
	if !v.onMap() {
		v.cam.SetPosition(old)
	}
}

// EdgeScroll pans while the cursor sits in the outer band of the viewport.
func (v *View) EdgeScroll(cursor geom.Vec2, dt time.Duration) {
	w, h := v.cam.Viewport()
	if w <= 0 || h <= 0 {
		return
	}
	step := v.opts.EdgeSpeed * float32(dt.Microseconds()) / 1000
	dx := v.edge((cursor.X-w/2)/w, step)
	dz := v.edge((cursor.Y-h/2)/h, step)
	if dx != 0 || dz != 0 {
		v.Pan(dx, dz)
	}
}

// edge maps an offset from the viewport center, in viewport fractions
// (-0.5 .. 0.5), to a signed pan step.
func (v *View) edge(off, step float32) float32 {
	inner := v.opts.EdgeBand / 2
	switch {
	case off >= inner && off <= 0.5:
		return step
	case off <= -inner && off >= -0.5:
		return -step
	}
	return 0
}

// onMap reports whether every viewport corner looks down onto the bounds.
func (v *View) onMap() bool {
	b := v.opts.Bounds
	if b.Min == b.Max {
		return true
	}
	w, h := v.cam.Viewport()
	for _, c := range [4]geom.Vec2{{X: 0, Y: 0}, {X: 0, Y: h}, {X: w, Y: 0}, {X: w, Y: h}} {
		ray := v.cam.ScreenRay(c.X, c.Y)
		if ray.Dir.Y >= 0 {
			return false
		}
		p := ray.At(-ray.Origin.Y / ray.Dir.Y)
		if !b.Contains(p.XZ()) {
			return false
		}
	}
	return true
}
