package geom

import "math"

// EuclideanDistance between two points in the (x, y) plane.
func EuclideanDistance(x, y, x1, y1 float64) float64 {
	dx := x - x1
	dy := y - y1
	return math.Sqrt(dx*dx + dy*dy)
}
