// Package geom provides the small amount of 2D math the simulation needs:
// a value-type vector, angle wrapping and regular polygon construction.
package geom

import "math"

// Vec2 is a 2D vector in world units. It is a value type; all methods
// return new vectors.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for Vec2{X: x, Y: y}.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// FromAngle returns the unit vector pointing at angle (radians).
func FromAngle(angle float64) Vec2 {
	return Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vec2) LenSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vec2) Len() float64 {
	return math.Sqrt(v.LenSq())
}

// Normalize returns the unit vector in v's direction, or the zero vector
// when v has zero length.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Rotate rotates v by the rotation encoded in the unit vector dir
// (complex multiplication).
func (v Vec2) Rotate(dir Vec2) Vec2 {
	return Vec2{
		X: v.X*dir.X - v.Y*dir.Y,
		Y: v.Y*dir.X + v.X*dir.Y,
	}
}

// IsFinite reports whether both components are neither NaN nor ±Inf.
func (v Vec2) IsFinite() bool {
	return IsFinite(v.X) && IsFinite(v.Y)
}

// Sanitize replaces non-finite components with 0.
func (v Vec2) Sanitize() Vec2 {
	return Vec2{X: Sanitize(v.X), Y: Sanitize(v.Y)}
}

// IsFinite reports whether f is neither NaN nor ±Inf.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Sanitize returns f, or 0 when f is NaN or ±Inf.
func Sanitize(f float64) float64 {
	if !IsFinite(f) {
		return 0
	}
	return f
}

// WrapAngle maps an angle into (-π, π].
func WrapAngle(a float64) float64 {
	if !IsFinite(a) {
		return 0
	}
	if a > -math.Pi && a <= math.Pi {
		return a
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// NearestEquivalentAngle returns target shifted by ±2π when that brings it
// closer to from, so steering never goes the long way around.
func NearestEquivalentAngle(target, from float64) float64 {
	if math.Abs(target+2*math.Pi-from) < math.Abs(target-from) {
		target += 2 * math.Pi
	}
	if math.Abs(target-2*math.Pi-from) < math.Abs(target-from) {
		target -= 2 * math.Pi
	}
	return target
}
