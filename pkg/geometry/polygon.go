// Package geometry rebuilds the visible faces of convex brushes from their
// bounding planes.
package geometry

import (
	"github.com/Faultbox/brushmap/pkg/math"
)

// Vertex is a corner of a generated polygon.
type Vertex struct {
	Position math.Vec3
}

// Polygon is a convex face of a brush. Vertices are coplanar with Plane and
// wound clockwise when viewed from in front of the plane.
type Polygon struct {
	Plane    math.Plane
	Vertices []Vertex
}

// Len returns the number of vertices.
func (p *Polygon) Len() int {
	return len(p.Vertices)
}

// Positions returns the vertex positions in winding order.
func (p *Polygon) Positions() []math.Vec3 {
	out := make([]math.Vec3, len(p.Vertices))
	for i, v := range p.Vertices {
		out[i] = v.Position
	}
	return out
}

// Centroid returns the average of the vertex positions.
func (p *Polygon) Centroid() math.Vec3 {
	return centroid(p.Positions())
}

// WindingNormal returns the Newell normal of the vertex loop, scaled to twice
// the polygon area. For the clockwise winding produced by BuildPolygons it
// points opposite to Plane.Normal.
func (p *Polygon) WindingNormal() math.Vec3 {
	var n math.Vec3
	for i, v := range p.Vertices {
		a := v.Position
		b := p.Vertices[(i+1)%len(p.Vertices)].Position
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// Area returns the surface area.
func (p *Polygon) Area() float64 {
	return p.WindingNormal().Length() / 2
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// BoundsOf returns the box enclosing points. ok is false when points is empty.
func BoundsOf(points []math.Vec3) (box AABB, ok bool) {
	if len(points) == 0 {
		return AABB{}, false
	}
	box = AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = box.Min.Min(p)
		box.Max = box.Max.Max(p)
	}
	return box, true
}

// Size returns the extent along each axis.
func (b AABB) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the middle of the box.
func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Union returns the box enclosing both boxes.
func (b AABB) Union(other AABB) AABB {
	return AABB{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

func centroid(points []math.Vec3) math.Vec3 {
	var sum math.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Div(float64(len(points)))
}
