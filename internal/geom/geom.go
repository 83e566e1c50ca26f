// Package geom holds the small value types shared by the wire codec and the
// client-side world: positions, rotations and picking rays.
package geom

import "math"

type Vec2 struct {
	X, Y float32
}

type Vec3 struct {
	X, Y, Z float32
}

// Quat is a rotation quaternion as sent by the server (x, y, z, w).
type Quat struct {
	X, Y, Z, W float32
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

func (a Vec3) Scale(s float32) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

func (a Vec3) Dot(b Vec3) float32 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// DistanceSquared avoids the square root; all range checks in the client
// compare squared values.
func (a Vec3) DistanceSquared(b Vec3) float32 {
	d := a.Sub(b)
	return d.Dot(d)
}

// XZ projects onto the ground plane.
func (a Vec3) XZ() Vec2 { return Vec2{a.X, a.Z} }

func (a Vec2) DistanceSquared(b Vec2) float32 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// Ray is a half line; Dir need not be normalized.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// At returns Origin + Dir*t.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// Rect is an axis-aligned rectangle with Min <= Max on both axes.
type Rect struct {
	Min, Max Vec2
}

// NewRect orders the two corners.
func NewRect(a, b Vec2) Rect {
	if a.X > b.X {
		a.X, b.X = b.X, a.X
	}
	if a.Y > b.Y {
		a.Y, b.Y = b.Y, a.Y
	}
	return Rect{Min: a, Max: b}
}

// ContainsStrict reports whether p lies strictly inside r.
func (r Rect) ContainsStrict(p Vec2) bool {
	return r.Min.X < p.X && p.X < r.Max.X && r.Min.Y < p.Y && p.Y < r.Max.Y
}

// Contains is the inclusive variant.
func (r Rect) Contains(p Vec2) bool {
	return r.Min.X <= p.X && p.X <= r.Max.X && r.Min.Y <= p.Y && p.Y <= r.Max.Y
}

func IsFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
