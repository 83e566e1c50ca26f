// Package selection maps screen coordinates onto the synchronized world:
// ground points for move orders, box selection, point picking, and the
// camera rig the player steers.
package selection

import (
	"math"

	"github.com/tfl/client/internal/geom"
)

// Camera projects between world space and screen pixels. Screen origin is
// the top-left corner of the viewport.
type Camera interface {
	WorldToScreen(p geom.Vec3) (geom.Vec2, bool)
	ScreenRay(x, y float32) geom.Ray
	Viewport() (width, height float32)
}

// MovableCamera is a camera the view rig can reposition.
type MovableCamera interface {
	Camera
	Position() geom.Vec3
	SetPosition(p geom.Vec3)
}

// Terrain answers ground height queries.
type Terrain interface {
	HeightAt(x, z float32) float32
}

// FlatTerrain is level ground at a fixed height.
type FlatTerrain float32

func (f FlatTerrain) HeightAt(_, _ float32) float32 { return float32(f) }

// TopDownCamera is a perspective camera looking straight down -Y. Screen x
// grows along +X and screen y along +Z.
type TopDownCamera struct {
	Pos    geom.Vec3
	Width  float32
	Height float32
	FOVY   float32 // vertical field of view, radians
}

func NewTopDownCamera(width, height float32) *TopDownCamera {
	return &TopDownCamera{Width: width, Height: height, FOVY: math.Pi / 4}
}

func (c *TopDownCamera) Viewport() (float32, float32) { return c.Width, c.Height }
func (c *TopDownCamera) Position() geom.Vec3          { return c.Pos }
func (c *TopDownCamera) SetPosition(p geom.Vec3)      { c.Pos = p }

func (c *TopDownCamera) extent() (halfW, halfH float32) {
	halfH = float32(math.Tan(float64(c.FOVY) / 2))
	halfW = halfH
	if c.Height > 0 {
		halfW = halfH * c.Width / c.Height
	}
	return halfW, halfH
}

// WorldToScreen reports false for points at or above the camera.
func (c *TopDownCamera) WorldToScreen(p geom.Vec3) (geom.Vec2, bool) {
	depth := c.Pos.Y - p.Y
	if depth <= 0 {
		return geom.Vec2{}, false
	}
	halfW, halfH := c.extent()
	nx := (p.X - c.Pos.X) / (depth * halfW)
	ny := (p.Z - c.Pos.Z) / (depth * halfH)
	return geom.Vec2{
		X: (nx + 1) / 2 * c.Width,
		Y: (ny + 1) / 2 * c.Height,
	}, true
}

func (c *TopDownCamera) ScreenRay(x, y float32) geom.Ray {
	halfW, halfH := c.extent()
	nx := 2*x/c.Width - 1
	ny := 2*y/c.Height - 1
	return geom.Ray{
		Origin: c.Pos,
		Dir:    geom.Vec3{X: nx * halfW, Y: -1, Z: ny * halfH},
	}
}
