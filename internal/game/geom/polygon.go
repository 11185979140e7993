package geom

import "math"

// RegularPolygon returns the vertices of a regular polygon with the given
// number of sides, centred on the origin, first vertex on the +X axis.
// The circumradius equals radius, which is what gives an entity's
// BaseRadius its physical meaning.
func RegularPolygon(sides int, radius float64) []Vec2 {
	if sides < 3 {
		return nil
	}
	points := make([]Vec2, sides)
	step := 2 * math.Pi / float64(sides)
	for i := range points {
		points[i] = FromAngle(float64(i) * step).Scale(radius)
	}
	return points
}

// Rect returns the four corners of an axis-aligned rectangle starting at the
// origin and extending length along +X, width/2 to either side.
// Cannon barrels use this shape.
func Rect(length, width float64) []Vec2 {
	return []Vec2{
		{X: 0, Y: width / 2},
		{X: length, Y: width / 2},
		{X: length, Y: -width / 2},
		{X: 0, Y: -width / 2},
	}
}

// InsetOffsets returns, for every vertex, the vector that moves it inwards
// by inset along the corner bisector. Renderers add these to the scaled
// points so that a stroked outline does not grow the visible shape.
func InsetOffsets(points []Vec2, inset float64) []Vec2 {
	n := len(points)
	out := make([]Vec2, n)
	if n < 3 {
		return out
	}
	for i, cur := range points {
		prev := points[(i+n-1)%n].Sub(cur).Normalize()
		next := points[(i+1)%n].Sub(cur).Normalize()
		out[i] = prev.Add(next).Normalize().Scale(inset)
	}
	return out
}

// Transform scales, rotates and translates points into world space.
func Transform(points []Vec2, scale, rotation float64, origin Vec2) []Vec2 {
	dir := FromAngle(rotation)
	out := make([]Vec2, len(points))
	for i, p := range points {
		out[i] = origin.Add(p.Scale(scale).Rotate(dir))
	}
	return out
}
