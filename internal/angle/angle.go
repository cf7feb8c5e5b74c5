// Package angle measures the acute angle between a baseline and a free arm
// using three draggable points.
package angle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/shuttle.report/internal/geom"
)

// Angle returns the angle in degrees between segment start→vertex and
// segment vertex→free, folded into [0, 90]. A zero-length segment has no
// defined angle and yields 0.
func Angle(start, vertex, free geom.Point) float64 {
	u := r2.Sub(vertex.Vec(), start.Vec())
	v := r2.Sub(free.Vec(), vertex.Vec())
	nu, nv := r2.Norm(u), r2.Norm(v)
	if nu == 0 || nv == 0 {
		return 0
	}
	c := r2.Dot(u, v) / (nu * nv)
	// rounding can push |c| just past 1
	c = math.Max(-1, math.Min(1, c))
	deg := math.Acos(c) * 180 / math.Pi
	if deg > 90 {
		deg = 180 - deg
	}
	return deg
}

// Reflect mirrors p across the infinite line through a and b. When a and b
// coincide there is no line and p is returned unchanged.
func Reflect(p, a, b geom.Point) geom.Point {
	d := r2.Sub(b.Vec(), a.Vec())
	n2 := r2.Dot(d, d)
	if n2 == 0 {
		return p
	}
	ap := r2.Sub(p.Vec(), a.Vec())
	proj := r2.Add(a.Vec(), r2.Scale(r2.Dot(ap, d)/n2, d))
	return geom.FromVec(r2.Sub(r2.Scale(2, proj), p.Vec()))
}
