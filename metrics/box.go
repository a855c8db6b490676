// Package metrics - Detection scoring against ground truth.
package metrics

import "github.com/chewxy/math32"

// Box is an axis-aligned box in pixel space.
type Box struct {
	X1, Y1, X2, Y2 float32
}

// Detection is one predicted box with its confidence and class index.
type Detection struct {
	Box   Box
	Score float32
	Class int
}

// Area returns the box area, zero for degenerate boxes.
func (b Box) Area() float32 {
	return math32.Max(0, b.X2-b.X1) * math32.Max(0, b.Y2-b.Y1)
}

// IoU returns the intersection-over-union with another box.
func (b Box) IoU(o Box) float32 {
	ix := math32.Min(b.X2, o.X2) - math32.Max(b.X1, o.X1)
	iy := math32.Min(b.Y2, o.Y2) - math32.Max(b.Y1, o.Y1)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
