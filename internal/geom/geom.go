// Package geom holds the coordinate types shared by the calibration, marking
// and angle tools.
package geom

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position on a measurement surface. Video surfaces use
// normalized frame coordinates where (0,0) is the top-left corner and (1,1)
// the bottom-right corner; the angle rig uses plain surface units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TimedPoint is a user mark: a frame position plus the media timestamp (in
// seconds) at which the frame was paused.
type TimedPoint struct {
	Point
	T float64 `json:"t"`
}

// MediaSize is the intrinsic pixel size of the loaded video, as reported by
// the media element once metadata is available. It is independent of the
// size the video is displayed at.
type MediaSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s MediaSize) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Vec converts the point to a gonum vector.
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// FromVec converts a gonum vector back to a Point.
func FromVec(v r2.Vec) Point {
	return Point{X: v.X, Y: v.Y}
}

// Distance is the euclidean distance between two points in their own units.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(b.Vec(), a.Vec()))
}

// PixelDistance scales two normalized points by the intrinsic media size and
// returns the distance between them in source pixels.
func PixelDistance(a, b Point, size MediaSize) float64 {
	d := r2.Sub(b.Vec(), a.Vec())
	return r2.Norm(r2.Vec{X: d.X * size.Width, Y: d.Y * size.Height})
}
