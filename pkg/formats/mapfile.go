// Package formats provides parsers for Quake-family level editor files.
package formats

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/Faultbox/brushmap/pkg/geometry"
	"github.com/Faultbox/brushmap/pkg/math"
)

// FaceFormat identifies how a face stores its texture alignment.
type FaceFormat uint8

// Face format constants.
const (
	FormatValve    FaceFormat = iota // [ ux uy uz shift ] [ vx vy vz shift ] rotation sx sy
	FormatStandard                   // shiftX shiftY rotation sx sy
)

// String returns a human-readable format name.
func (f FaceFormat) String() string {
	switch f {
	case FormatValve:
		return "Valve220"
	case FormatStandard:
		return "Standard"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// Face is one bounding plane of a brush with its texture settings.
type Face struct {
	// Points are the three plane points in file order, with the second and
	// third coordinates swapped.
	Points  [3]math.Vec3
	Plane   math.Plane
	Texture string
	// TexAxis holds the U and V texture axes. Zero for FormatStandard.
	TexAxis  [2]math.Plane
	Shift    [2]float64 // FormatStandard only
	Rotation float64
	Scale    [2]float64
	// Extra holds trailing values some editors append (Quake 2 surface flags).
	Extra  []float64
	Format FaceFormat

	// Polygon is the face's visible outline, or nil when the plane does not
	// bound the brush.
	Polygon *geometry.Polygon
}

// Brush is a convex solid: the intersection of the back half-spaces of its faces.
type Brush struct {
	Faces []Face
}

// Planes returns the face planes in order.
func (b *Brush) Planes() []math.Plane {
	planes := make([]math.Plane, len(b.Faces))
	for i := range b.Faces {
		planes[i] = b.Faces[i].Plane
	}
	return planes
}

// Rebuild computes the polygon of every face.
func (b *Brush) Rebuild(tol math.Tolerance) {
	polys := geometry.BuildPolygons(b.Planes(), tol)
	for i := range b.Faces {
		b.Faces[i].Polygon = polys[i]
	}
}

// Polygons returns the generated polygons, skipping faces without one.
func (b *Brush) Polygons() []*geometry.Polygon {
	var out []*geometry.Polygon
	for i := range b.Faces {
		if p := b.Faces[i].Polygon; p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Vertices returns the distinct corners of the brush.
func (b *Brush) Vertices(eps float64) []math.Vec3 {
	var out []math.Vec3
	for _, p := range b.Polygons() {
	next:
		for _, v := range p.Vertices {
			for _, seen := range out {
				if seen.ApproxEqual(v.Position, eps) {
					continue next
				}
			}
			out = append(out, v.Position)
		}
	}
	return out
}

// Bounds returns the box around the brush's corners.
// ok is false when no face produced a polygon.
func (b *Brush) Bounds() (geometry.AABB, bool) {
	var pts []math.Vec3
	for _, p := range b.Polygons() {
		pts = append(pts, p.Positions()...)
	}
	return geometry.BoundsOf(pts)
}

// Property is a key/value pair of an entity.
type Property struct {
	Key   string
	Value string
}

// Entity is an object in the map with properties and optional brushes.
type Entity struct {
	Properties []Property
	Brushes    []*Brush
}

// Property returns the value of the first property named key.
func (e *Entity) Property(key string) (string, bool) {
	for _, p := range e.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// ClassName returns the "classname" property, or "" when missing.
func (e *Entity) ClassName() string {
	v, _ := e.Property("classname")
	return v
}

// Map is a parsed map file.
type Map struct {
	Entities []*Entity
}

// Worldspawn returns the worldspawn entity, or nil.
func (m *Map) Worldspawn() *Entity {
	for _, e := range m.Entities {
		if e.ClassName() == "worldspawn" {
			return e
		}
	}
	return nil
}

// Brushes returns every brush of every entity in file order.
func (m *Map) Brushes() []*Brush {
	var out []*Brush
	for _, e := range m.Entities {
		out = append(out, e.Brushes...)
	}
	return out
}

// Rebuild recomputes all face polygons. Brushes are independent, so with
// workers > 1 they are spread over that many goroutines.
func (m *Map) Rebuild(tol math.Tolerance, workers int) {
	brushes := m.Brushes()
	if workers <= 1 || len(brushes) < 2 {
		for _, b := range brushes {
			b.Rebuild(tol)
		}
		return
	}

	jobs := make(chan *Brush)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				b.Rebuild(tol)
			}
		}()
	}
	for _, b := range brushes {
		jobs <- b
	}
	close(jobs)
	wg.Wait()
}

// MapStats summarizes a map.
type MapStats struct {
	Entities int
	Brushes  int
	Faces    int
	Polygons int
	// Degenerate counts faces whose plane points are collinear.
	Degenerate int
	Vertices   int
}

// Stats counts the parts of the map.
func (m *Map) Stats() MapStats {
	var s MapStats
	s.Entities = len(m.Entities)
	for _, b := range m.Brushes() {
		s.Brushes++
		for i := range b.Faces {
			f := &b.Faces[i]
			s.Faces++
			if f.Plane.IsDegenerate() {
				s.Degenerate++
			}
			if f.Polygon != nil {
				s.Polygons++
				s.Vertices += f.Polygon.Len()
			}
		}
	}
	return s
}

// Bounds returns the box around every generated polygon.
func (m *Map) Bounds() (geometry.AABB, bool) {
	var box geometry.AABB
	found := false
	for _, b := range m.Brushes() {
		bb, ok := b.Bounds()
		if !ok {
			continue
		}
		if !found {
			box, found = bb, true
			continue
		}
		box = box.Union(bb)
	}
	return box, found
}

// Option configures ParseMap.
type Option func(*options)

type options struct {
	tolerance math.Tolerance
	workers   int
}

// WithTolerance sets the tolerance used to build polygons.
func WithTolerance(tol math.Tolerance) Option {
	return func(o *options) { o.tolerance = tol }
}

// WithWorkers sets how many goroutines build polygons. Values below 1 use
// one per CPU.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		o.workers = n
	}
}

// ParseMap parses map source text and builds the polygons of every brush.
// A syntax error aborts the whole parse; degenerate geometry does not.
func ParseMap(text string, opts ...Option) (*Map, error) {
	o := options{tolerance: math.DefaultTolerance(), workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	m, err := parseMap(NewCursor(text))
	if err != nil {
		return nil, err
	}
	m.Rebuild(o.tolerance, o.workers)
	return m, nil
}

// ParseMapFile parses a map file from disk.
func ParseMapFile(path string, opts ...Option) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file: %w", err)
	}
	return ParseMap(string(data), opts...)
}

func parseMap(c *Cursor) (*Map, error) {
	m := &Map{}
	for {
		ch, ok := c.Peek()
		if !ok {
			return m, nil
		}
		if ch != '{' {
			return nil, c.fail(c.skipSpace(c.Offset()), ErrUnexpectedChar,
				fmt.Sprintf("expected '{' to start an entity, found %q", ch))
		}
		e, err := parseEntity(c)
		if err != nil {
			return nil, err
		}
		m.Entities = append(m.Entities, e)
	}
}

func parseEntity(c *Cursor) (*Entity, error) {
	if err := c.Expect('{'); err != nil {
		return nil, err
	}
	e := &Entity{}
	for {
		ch, ok := c.Peek()
		switch {
		case !ok:
			return nil, c.fail(c.Offset(), ErrUnexpectedEOF, "entity is missing '}'")
		case ch == '"':
			p, err := parseProperty(c)
			if err != nil {
				return nil, err
			}
			e.Properties = append(e.Properties, p)
		case ch == '{':
			b, err := parseBrush(c)
			if err != nil {
				return nil, err
			}
			e.Brushes = append(e.Brushes, b)
		case ch == '}':
			_, err := c.Skip()
			return e, err
		default:
			return nil, c.fail(c.skipSpace(c.Offset()), ErrUnexpectedChar,
				fmt.Sprintf("expected property, brush or '}', found %q", ch))
		}
	}
}

func parseProperty(c *Cursor) (Property, error) {
	key, err := c.Token()
	if err != nil {
		return Property{}, err
	}
	value, err := c.Token()
	if err != nil {
		return Property{}, err
	}
	return Property{Key: key, Value: value}, nil
}

func parseBrush(c *Cursor) (*Brush, error) {
	start := c.skipSpace(c.Offset())
	if err := c.Expect('{'); err != nil {
		return nil, err
	}
	b := &Brush{}
	for {
		ch, ok := c.Peek()
		switch {
		case !ok:
			return nil, c.fail(c.Offset(), ErrUnexpectedEOF, "brush is missing '}'")
		case ch == '(':
			f, err := parseFace(c)
			if err != nil {
				return nil, err
			}
			b.Faces = append(b.Faces, f)
		case ch == '}':
			if len(b.Faces) == 0 {
				return nil, c.fail(start, ErrEmptyBrush, "")
			}
			_, err := c.Skip()
			return b, err
		default:
			return nil, c.fail(c.skipSpace(c.Offset()), ErrUnexpectedChar,
				fmt.Sprintf("expected face or '}', found %q", ch))
		}
	}
}

func parseFace(c *Cursor) (Face, error) {
	var f Face
	for i := range f.Points {
		p, err := parsePoint(c)
		if err != nil {
			return Face{}, err
		}
		f.Points[i] = p
	}
	// Collinear points leave a zero plane; the face then gets no polygon.
	f.Plane, _ = math.PlaneFromPoints(f.Points[0], f.Points[1], f.Points[2])

	tex, err := c.Token()
	if err != nil {
		return Face{}, err
	}
	f.Texture = tex

	if ch, ok := c.Peek(); ok && ch == '[' {
		f.Format = FormatValve
		for i := range f.TexAxis {
			if f.TexAxis[i], err = parseAxis(c); err != nil {
				return Face{}, err
			}
		}
		err = numbers(c, &f.Rotation, &f.Scale[0], &f.Scale[1])
	} else {
		f.Format = FormatStandard
		err = numbers(c, &f.Shift[0], &f.Shift[1], &f.Rotation, &f.Scale[0], &f.Scale[1])
	}
	if err != nil {
		return Face{}, err
	}

	for {
		ch, ok := c.Peek()
		if !ok || ch == '(' || ch == '}' {
			return f, nil
		}
		v, err := c.Number()
		if err != nil {
			return Face{}, err
		}
		f.Extra = append(f.Extra, v)
	}
}

// parsePoint reads "( a b c )" as (a, c, b): files store Z second.
func parsePoint(c *Cursor) (math.Vec3, error) {
	if err := c.Expect('('); err != nil {
		return math.Vec3{}, err
	}
	var a, b, d float64
	if err := numbers(c, &a, &b, &d); err != nil {
		return math.Vec3{}, err
	}
	if err := c.Expect(')'); err != nil {
		return math.Vec3{}, err
	}
	return math.Vec3{X: a, Y: d, Z: b}, nil
}

// parseAxis reads "[ a b c offset ]" with the same swap as parsePoint.
func parseAxis(c *Cursor) (math.Plane, error) {
	if err := c.Expect('['); err != nil {
		return math.Plane{}, err
	}
	var a, b, d, offset float64
	if err := numbers(c, &a, &b, &d, &offset); err != nil {
		return math.Plane{}, err
	}
	if err := c.Expect(']'); err != nil {
		return math.Plane{}, err
	}
	return math.Plane{Normal: math.Vec3{X: a, Y: d, Z: b}, Offset: offset}, nil
}

func numbers(c *Cursor, dst ...*float64) error {
	for _, p := range dst {
		v, err := c.Number()
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}
