package selection

import (
	"math"

	"github.com/tfl/client/internal/geom"
	"github.com/tfl/client/internal/world"
)

// groundSamples is how many points the ground ray march tests.
const groundSamples = 16

// Resolver answers picking queries against the entity store. Every query
// is a flat ascending-ID walk over one store category.
type Resolver struct {
	cam     Camera
	terrain Terrain
	store   *world.Store
}

func NewResolver(cam Camera, terrain Terrain, store *world.Store) *Resolver {
	return &Resolver{cam: cam, terrain: terrain, store: store}
}

// GroundPoint marches the pick ray through (x, y) from the camera down to
// the y=0 plane and returns the sample closest to the terrain surface. It
// reports false for rays that never descend.
func (r *Resolver) GroundPoint(x, y float32) (geom.Vec3, bool) {
	ray := r.cam.ScreenRay(x, y)
	if ray.Dir.Y >= 0 || ray.Origin.Y <= 0 {
		return geom.Vec3{}, false
	}
	// parameter at which the ray meets y=0
	full := -ray.Origin.Y / ray.Dir.Y

	var best geom.Vec3
	minErr := float32(math.MaxFloat32)
	for i := 1; i <= groundSamples; i++ {
		p := ray.At(full * float32(i) / groundSamples)
		err := float32(math.Abs(float64(p.Y - r.terrain.HeightAt(p.X, p.Z))))
		if err < minErr {
			minErr = err
			best = p
		}
	}
	return best, true
}

// BoxSelect returns the living units of group strictly inside the ground
// rectangle spanned by the screen points a and b.
func (r *Resolver) BoxSelect(a, b geom.Vec2, group uint8) []uint32 {
	ga, ok := r.GroundPoint(a.X, a.Y)
	if !ok {
		return nil
	}
	gb, ok := r.GroundPoint(b.X, b.Y)
	if !ok {
		return nil
	}
	rect := geom.NewRect(ga.XZ(), gb.XZ())

	var ids []uint32
	r.store.EachOwned(group, func(u *world.UnitRecord) {
		if rect.ContainsStrict(u.Pos.XZ()) {
			ids = append(ids, u.ID)
		}
	})
	return ids
}

// PickUnit returns the living unit whose screen projection is nearest to
// (x, y) and within radius pixels. Ties go to the lower ID.
func (r *Resolver) PickUnit(x, y, radius float32) (uint32, bool) {
	at := geom.Vec2{X: x, Y: y}
	best := radius * radius
	var id uint32
	found := false
	r.store.Units.Each(func(_ uint32, u *world.UnitRecord) {
		if !u.Alive() {
			return
		}
		s, ok := r.cam.WorldToScreen(u.Pos)
		if !ok {
			return
		}
		if d := s.DistanceSquared(at); d < best {
			best = d
			id = u.ID
			found = true
		}
	})
	return id, found
}
