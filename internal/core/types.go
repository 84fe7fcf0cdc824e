// Package core defines domain models for multi-arm pick-and-place cells.
package core

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a Cartesian position in meters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec converts p to a gonum vector.
func (p Point) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Z)
}

// PointOf converts a gonum vector back to a Point.
func PointOf(v r3.Vec) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return r3.Norm(r3.Sub(a.Vec(), b.Vec()))
}

// Lerp returns the point a fraction frac of the way from a to b.
func Lerp(a, b Point, frac float64) Point {
	av := a.Vec()
	return PointOf(r3.Add(av, r3.Scale(frac, r3.Sub(b.Vec(), av))))
}
