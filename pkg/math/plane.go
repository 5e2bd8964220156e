package math

import (
	"fmt"
	"math"
)

// Plane is the set of points p with Normal·p + Offset = 0.
// Points with a positive signed distance are in front of the plane.
type Plane struct {
	Normal Vec3
	Offset float64
}

// NewPlane returns a plane from its normal and offset.
func NewPlane(normal Vec3, offset float64) Plane {
	return Plane{Normal: normal, Offset: offset}
}

// PlaneFromPoints builds the plane through three points.
// The normal is normalize((p1-p0) x (p2-p0)), so the winding of the points
// decides which side is the front. ok is false for collinear points, in which
// case the zero plane is returned.
func PlaneFromPoints(p0, p1, p2 Vec3) (p Plane, ok bool) {
	n, ok := p1.Sub(p0).Cross(p2.Sub(p0)).TryNormalize()
	if !ok {
		return Plane{}, false
	}
	return Plane{Normal: n, Offset: -n.Dot(p0)}, true
}

// Flip returns the plane facing the other way.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Neg(), Offset: -p.Offset}
}

// IsDegenerate reports whether the plane has no usable normal.
func (p Plane) IsDegenerate() bool {
	return p.Normal.IsZero()
}

// String returns a readable representation.
func (p Plane) String() string {
	return fmt.Sprintf("%v %g", p.Normal, p.Offset)
}

// Classification is the side of a plane a point lies on.
type Classification uint8

// Classification constants.
const (
	OnPlane Classification = iota // within epsilon of the plane
	Front                         // outside a brush
	Back                          // inside a brush
)

// String returns a human-readable classification name.
func (c Classification) String() string {
	switch c {
	case OnPlane:
		return "OnPlane"
	case Front:
		return "Front"
	case Back:
		return "Back"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// Distance returns the signed distance from the plane to pt.
// Both terms are rounded before summing, see Tolerance.
func (t Tolerance) Distance(p Plane, pt Vec3) float64 {
	return t.Round(p.Normal.Dot(pt)) + t.Round(p.Offset)
}

// Classify returns which side of the plane pt lies on.
func (t Tolerance) Classify(p Plane, pt Vec3) Classification {
	d := t.Distance(p, pt)
	switch {
	case d > t.Epsilon:
		return Front
	case d < -t.Epsilon:
		return Back
	default:
		return OnPlane
	}
}

// IntersectPlanes returns the single point shared by three planes.
// ok is false when two of the planes are parallel or the three share a line.
//
// See "Intersection of 3 Planes", geomalgorithms.com/a05-_intersect-1.html.
func (t Tolerance) IntersectPlanes(a, b, c Plane) (pt Vec3, ok bool) {
	bc := b.Normal.Cross(c.Normal)
	denom := a.Normal.Dot(bc)
	if math.Abs(denom) < t.Epsilon {
		return Vec3{}, false
	}
	ca := c.Normal.Cross(a.Normal)
	ab := a.Normal.Cross(b.Normal)
	sum := bc.Scale(-a.Offset).
		Sub(ca.Scale(b.Offset)).
		Sub(ab.Scale(c.Offset))
	return sum.Scale(1 / denom), true
}

// IntersectSegment intersects the line through start and end with the plane.
// fraction is measured along start->end, so 0 is start and 1 is end; values
// outside [0, 1] mean the hit lies beyond the segment. ok is false for a
// zero-length segment or one parallel to the plane.
func (t Tolerance) IntersectSegment(p Plane, start, end Vec3) (pt Vec3, fraction float64, ok bool) {
	delta := end.Sub(start)
	dir, ok := delta.TryNormalize()
	if !ok {
		return Vec3{}, 0, false
	}
	denom := p.Normal.Dot(dir)
	if math.Abs(denom) < t.Epsilon {
		return Vec3{}, 0, false
	}
	along := -t.Distance(p, start) / denom
	pt = start.Add(dir.Scale(along))
	return pt, along / delta.Length(), true
}
