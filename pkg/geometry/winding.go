package geometry

import (
	gomath "math"
	"sort"

	"github.com/Faultbox/brushmap/pkg/math"
)

// PlaneBasis returns two unit axes spanning the plane with the given normal.
// (u, v, normal) is right-handed: u x v = normal.
func PlaneBasis(normal math.Vec3) (u, v math.Vec3) {
	// Start from the world axis least aligned with the normal so the
	// projection below never collapses.
	ax, ay, az := gomath.Abs(normal.X), gomath.Abs(normal.Y), gomath.Abs(normal.Z)
	var axis math.Vec3
	switch {
	case ax <= ay && ax <= az:
		axis = math.Vec3{X: 1}
	case ay <= az:
		axis = math.Vec3{Y: 1}
	default:
		axis = math.Vec3{Z: 1}
	}
	u = axis.Sub(normal.Scale(axis.Dot(normal))).Normalize()
	v = normal.Cross(u)
	return u, v
}

// Project returns the coordinates of p in the (u, v) basis around origin.
func Project(p, origin, u, v math.Vec3) math.Vec2 {
	d := p.Sub(origin)
	return math.Vec2{X: d.Dot(u), Y: d.Dot(v)}
}

// WindClockwise returns points ordered clockwise around their centroid as seen
// from the side normal points to. points must be coplanar and convex; the
// input slice is not modified.
func WindClockwise(points []math.Vec3, normal math.Vec3) []math.Vec3 {
	out := make([]math.Vec3, len(points))
	copy(out, points)
	if len(out) < 3 {
		return out
	}

	u, v := PlaneBasis(normal)
	c := centroid(out)
	angles := make(map[math.Vec3]float64, len(out))
	for _, p := range out {
		angles[p] = Project(p, c, u, v).Angle()
	}
	// Counter-clockwise is increasing angle in a right-handed basis.
	sort.SliceStable(out, func(i, j int) bool {
		return angles[out[i]] > angles[out[j]]
	})
	return out
}
