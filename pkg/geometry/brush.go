package geometry

import (
	"gonum.org/v1/gonum/stat/combin"

	"github.com/Faultbox/brushmap/pkg/math"
)

// MinBrushPlanes is the fewest planes that can enclose a finite volume.
const MinBrushPlanes = 4

// BuildPolygons returns the polygon of every face of the convex brush bounded
// by planes. The result is index-aligned with planes; an entry is nil when the
// face does not touch the brush's volume with at least three corners. The solid
// side of each plane is its back.
//
// Every corner is the intersection of the face plane with two other planes and
// is kept only if no remaining plane has it in front. The cost is O(n³) in the
// number of planes, which is fine for hand-made brushes.
//
// planes is not modified.
func BuildPolygons(planes []math.Plane, tol math.Tolerance) []*Polygon {
	polys := make([]*Polygon, len(planes))
	if len(planes) < MinBrushPlanes {
		return polys
	}

	pairs := combin.Combinations(len(planes), 2)
	for face := range planes {
		polys[face] = buildFace(planes, face, pairs, tol)
	}
	return polys
}

func buildFace(planes []math.Plane, face int, pairs [][]int, tol math.Tolerance) *Polygon {
	var corners []math.Vec3
	for _, pair := range pairs {
		i, j := pair[0], pair[1]
		if i == face || j == face {
			continue
		}
		pt, ok := tol.IntersectPlanes(planes[face], planes[i], planes[j])
		if !ok {
			continue
		}
		if !inside(planes, pt, tol, face, i, j) {
			continue
		}
		corners = appendUnique(corners, pt, tol.Epsilon)
	}
	if len(corners) < 3 {
		return nil
	}

	plane := planes[face]
	wound := WindClockwise(corners, plane.Normal)
	poly := &Polygon{Plane: plane, Vertices: make([]Vertex, len(wound))}
	for k, p := range wound {
		poly.Vertices[k] = Vertex{Position: p}
	}
	return poly
}

// inside reports whether pt is behind or on every plane except the three
// that produced it.
func inside(planes []math.Plane, pt math.Vec3, tol math.Tolerance, face, i, j int) bool {
	for k, p := range planes {
		if k == face || k == i || k == j {
			continue
		}
		if tol.Classify(p, pt) == math.Front {
			return false
		}
	}
	return true
}

// appendUnique appends pt unless an existing point matches it within eps.
// Corners where more than three planes meet are found once per triple.
func appendUnique(points []math.Vec3, pt math.Vec3, eps float64) []math.Vec3 {
	for _, p := range points {
		if p.ApproxEqual(pt, eps) {
			return points
		}
	}
	return append(points, pt)
}
