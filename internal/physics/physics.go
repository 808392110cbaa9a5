// Package physics provides 2D vector math and collision tests.
package physics

import "math"

// Vec2 is a 2D vector in playfield units. Y grows downward.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// LengthSquared returns |v|². Use this when comparing lengths to avoid the sqrt cost.
func (v Vec2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Length returns |v|.
func (v Vec2) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// FromAngle returns the vector of the given length pointing at angle radians,
// measured counter-clockwise from +X as seen on screen (so +Y on screen is down).
func FromAngle(angle, length float64) Vec2 {
	return Vec2{X: math.Cos(angle) * length, Y: -math.Sin(angle) * length}
}

// LineCircleIntersects reports whether the infinite line through lineStart and
// lineEnd passes closer than radius to center. The line is not clamped to the
// segment: callers anchor it at the muzzle and make it long enough to cross
// the playfield. A zero-length line never intersects.
func LineCircleIntersects(center Vec2, radius float64, lineStart, lineEnd Vec2) bool {
	dir := lineEnd.Sub(lineStart)
	length := dir.Length()
	if length == 0 {
		return false
	}

	toCenter := center.Sub(lineStart)
	projection := toCenter.Dot(dir) / length

	// Float error can push this slightly below zero when center is on the line.
	distSq := toCenter.LengthSquared() - projection*projection
	if distSq < 0 {
		distSq = 0
	}
	return math.Sqrt(distSq) < radius
}
