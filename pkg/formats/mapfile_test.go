package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/brushmap/pkg/math"
)

const cubeBrush = `{
( -64 -64 -16 ) ( -64 -63 -16 ) ( -64 -64 -15 ) __TB_empty [ 0 -1 0 -0 ] [ 0 0 -1 -0 ] -0 1 1
( -64 -64 -16 ) ( -64 -64 -15 ) ( -63 -64 -16 ) __TB_empty [ 1 0 0 -0 ] [ 0 0 -1 -0 ] -0 1 1
( -64 -64 -16 ) ( -63 -64 -16 ) ( -64 -63 -16 ) __TB_empty [ -1 0 0 -0 ] [ 0 -1 0 -0 ] -0 1 1
( 64 64 16 ) ( 64 65 16 ) ( 65 64 16 ) __TB_empty [ 1 0 0 -0 ] [ 0 -1 0 -0 ] -0 1 1
( 64 64 16 ) ( 65 64 16 ) ( 64 64 17 ) __TB_empty [ -1 0 0 -0 ] [ 0 0 -1 -0 ] -0 1 1
( 64 64 16 ) ( 64 64 17 ) ( 64 65 16 ) __TB_empty [ 0 1 0 -0 ] [ 0 0 -1 -0 ] -0 1 1
}`

const cubeMap = `// Game: Quake
// Format: Valve
// entity 0
{
"mapversion" "220"
"classname" "worldspawn"
// brush 0
` + cubeBrush + `
}
{
"classname" "info_player_start"
"origin" "0 0 24"
}
`

func TestParseMap_Cube(t *testing.T) {
	m, err := ParseMap(cubeMap)
	require.NoError(t, err)
	require.Len(t, m.Entities, 2)

	world := m.Worldspawn()
	require.NotNil(t, world)
	assert.Equal(t, []Property{
		{Key: "mapversion", Value: "220"},
		{Key: "classname", Value: "worldspawn"},
	}, world.Properties)
	require.Len(t, world.Brushes, 1)

	player := m.Entities[1]
	assert.Equal(t, "info_player_start", player.ClassName())
	origin, ok := player.Property("origin")
	assert.True(t, ok)
	assert.Equal(t, "0 0 24", origin)
	_, ok = player.Property("angle")
	assert.False(t, ok)
	assert.Empty(t, player.Brushes)

	brush := world.Brushes[0]
	require.Len(t, brush.Faces, 6)
	for i, f := range brush.Faces {
		require.NotNil(t, f.Polygon, "face %d", i)
		assert.Equal(t, 4, f.Polygon.Len(), "face %d", i)
		assert.Equal(t, FormatValve, f.Format)
		assert.Equal(t, "__TB_empty", f.Texture)
	}

	bounds, ok := brush.Bounds()
	require.True(t, ok)
	assert.True(t, bounds.Min.ApproxEqual(math.Vec3{X: -64, Y: -16, Z: -64}, 1e-9), "min %v", bounds.Min)
	assert.True(t, bounds.Max.ApproxEqual(math.Vec3{X: 64, Y: 16, Z: 64}, 1e-9), "max %v", bounds.Max)
	assert.Len(t, brush.Vertices(1e-3), 8)

	mb, ok := m.Bounds()
	require.True(t, ok)
	assert.Equal(t, bounds, mb)
}

func TestParseMap_FaceFields(t *testing.T) {
	m, err := ParseMap(cubeMap)
	require.NoError(t, err)
	f := m.Entities[0].Brushes[0].Faces[0]

	// Second and third coordinates are swapped on the way in.
	assert.Equal(t, [3]math.Vec3{
		{X: -64, Y: -16, Z: -64},
		{X: -64, Y: -16, Z: -63},
		{X: -64, Y: -15, Z: -64},
	}, f.Points)
	assert.Equal(t, math.NewPlane(math.Vec3{X: -1}, -64), f.Plane)
	assert.Equal(t, math.Plane{Normal: math.Vec3{Z: -1}}, f.TexAxis[0])
	assert.Equal(t, math.Plane{Normal: math.Vec3{Y: -1}}, f.TexAxis[1])
	assert.Equal(t, 0.0, f.Rotation)
	assert.Equal(t, [2]float64{1, 1}, f.Scale)
	assert.Empty(t, f.Extra)
}

func TestParseMap_PointSwap(t *testing.T) {
	c := NewCursor("( 1 2 3 )")
	p, err := parsePoint(c)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{X: 1, Y: 3, Z: 2}, p)

	a, err := parseAxis(NewCursor("[ 1 2 3 4.5 ]"))
	require.NoError(t, err)
	assert.Equal(t, math.Plane{Normal: math.Vec3{X: 1, Y: 3, Z: 2}, Offset: 4.5}, a)
}

func TestParseMap_StandardFormat(t *testing.T) {
	src := `{
"classname" "worldspawn"
{
( -64 -64 -16 ) ( -64 -63 -16 ) ( -64 -64 -15 ) base/wall 8 -4 90 0.5 2
( -64 -64 -16 ) ( -64 -64 -15 ) ( -63 -64 -16 ) base/wall 0 0 0 1 1
( -64 -64 -16 ) ( -63 -64 -16 ) ( -64 -63 -16 ) base/wall 0 0 0 1 1
( 64 64 16 ) ( 64 65 16 ) ( 65 64 16 ) base/wall 0 0 0 1 1 0 16 100
( 64 64 16 ) ( 65 64 16 ) ( 64 64 17 ) base/wall 0 0 0 1 1
( 64 64 16 ) ( 64 64 17 ) ( 64 65 16 ) base/wall 0 0 0 1 1
}
}`
	m, err := ParseMap(src)
	require.NoError(t, err)
	faces := m.Entities[0].Brushes[0].Faces
	require.Len(t, faces, 6)

	f := faces[0]
	assert.Equal(t, FormatStandard, f.Format)
	assert.Equal(t, [2]float64{8, -4}, f.Shift)
	assert.Equal(t, 90.0, f.Rotation)
	assert.Equal(t, [2]float64{0.5, 2}, f.Scale)
	assert.Equal(t, [2]math.Plane{}, f.TexAxis)

	assert.Equal(t, []float64{0, 16, 100}, faces[3].Extra)
	for i := range faces {
		assert.NotNil(t, faces[i].Polygon, "face %d", i)
	}
}

func TestParseMap_OpenBrush(t *testing.T) {
	// Three faces cannot close a volume; the brush parses without polygons.
	lines := strings.Split(cubeBrush, "\n")
	src := "{\n" + strings.Join(append(lines[:4], "}"), "\n") + "\n}"

	m, err := ParseMap(src)
	require.NoError(t, err)
	b := m.Entities[0].Brushes[0]
	require.Len(t, b.Faces, 3)
	assert.Empty(t, b.Polygons())
	_, ok := b.Bounds()
	assert.False(t, ok)

	s := m.Stats()
	assert.Equal(t, MapStats{Entities: 1, Brushes: 1, Faces: 3}, s)
}

func TestParseMap_DegenerateFace(t *testing.T) {
	lines := strings.Split(cubeBrush, "\n")
	lines = append(lines[:len(lines)-1],
		"( 0 0 0 ) ( 1 1 1 ) ( 2 2 2 ) __TB_empty [ 1 0 0 0 ] [ 0 1 0 0 ] 0 1 1",
		"}")
	m, err := ParseMap("{\n" + strings.Join(lines, "\n") + "\n}")
	require.NoError(t, err)

	b := m.Entities[0].Brushes[0]
	require.Len(t, b.Faces, 7)
	assert.True(t, b.Faces[6].Plane.IsDegenerate())
	assert.Nil(t, b.Faces[6].Polygon)
	assert.Len(t, b.Polygons(), 6)

	s := m.Stats()
	assert.Equal(t, 1, s.Degenerate)
	assert.Equal(t, 6, s.Polygons)
	assert.Equal(t, 24, s.Vertices)
}

func TestParseMap_Empty(t *testing.T) {
	for _, src := range []string{"", "   \n", "// only a comment\n", "\uFEFF"} {
		m, err := ParseMap(src)
		require.NoError(t, err, "source %q", src)
		assert.Empty(t, m.Entities)
		assert.Nil(t, m.Worldspawn())
	}
}

func TestParseMap_EntityWithoutProperties(t *testing.T) {
	m, err := ParseMap("{ }{\"classname\" \"light\"}")
	require.NoError(t, err)
	require.Len(t, m.Entities, 2)
	assert.Empty(t, m.Entities[0].Properties)
	assert.Equal(t, "", m.Entities[0].ClassName())
	assert.Equal(t, "light", m.Entities[1].ClassName())
}

func TestParseMap_Errors(t *testing.T) {
	face := "( 0 0 0 ) ( 1 0 0 ) ( 0 1 0 ) tex [ 1 0 0 0 ] [ 0 1 0 0 ] 0 1 1"
	tests := []struct {
		name   string
		src    string
		want   error
		offset int
	}{
		{"stray top level", "  x", ErrUnexpectedChar, 2},
		{"missing entity brace", `{ "a" "b"`, ErrUnexpectedEOF, 9},
		{"property without value", `{ "a" `, ErrUnexpectedEOF, 6},
		{"unterminated key", `{ "abc }`, ErrUnterminatedString, 2},
		{"empty brush", "{ { } }", ErrEmptyBrush, 2},
		{"missing brush brace", "{ { " + face, ErrUnexpectedEOF, 0},
		{"bad coordinate", "{ { ( 0 x 0 ) } }", ErrInvalidNumber, 8},
		{"missing point paren", "{ { ( 0 0 0 ( 1 0 0 ) } }", ErrUnexpectedChar, 12},
		{"bad trailing value", "{ { " + face + " junk } }", ErrInvalidNumber, 4 + len(face) + 1},
		{"unexpected in entity", "{ ( }", ErrUnexpectedChar, 2},
		{"bad axis close", "{ { ( 0 0 0 ) ( 1 0 0 ) ( 0 1 0 ) tex [ 1 0 0 0 ) } }", ErrUnexpectedChar, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMap(tt.src)
			assert.Nil(t, m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
			if tt.offset > 0 {
				assert.Equal(t, tt.offset, pe.Offset)
			}
		})
	}
}

func TestParseMap_ParallelMatchesSequential(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("{\n\"classname\" \"worldspawn\"\n")
	for i := 0; i < 40; i++ {
		lo, hi := float64(i*256-64), float64(i*256+64)
		fmt.Fprintf(&sb, "{\n")
		fmt.Fprintf(&sb, "( %g -64 -16 ) ( %g -63 -16 ) ( %g -64 -15 ) t [ 0 -1 0 0 ] [ 0 0 -1 0 ] 0 1 1\n", lo, lo, lo)
		fmt.Fprintf(&sb, "( %g -64 -16 ) ( %g -64 -15 ) ( %g -64 -16 ) t [ 1 0 0 0 ] [ 0 0 -1 0 ] 0 1 1\n", lo, lo, lo+1)
		fmt.Fprintf(&sb, "( %g -64 -16 ) ( %g -64 -16 ) ( %g -63 -16 ) t [ -1 0 0 0 ] [ 0 -1 0 0 ] 0 1 1\n", lo, lo+1, lo)
		fmt.Fprintf(&sb, "( %g 64 16 ) ( %g 65 16 ) ( %g 64 16 ) t [ 1 0 0 0 ] [ 0 -1 0 0 ] 0 1 1\n", hi, hi, hi+1)
		fmt.Fprintf(&sb, "( %g 64 16 ) ( %g 64 16 ) ( %g 64 17 ) t [ -1 0 0 0 ] [ 0 0 -1 0 ] 0 1 1\n", hi, hi+1, hi)
		fmt.Fprintf(&sb, "( %g 64 16 ) ( %g 64 17 ) ( %g 65 16 ) t [ 0 1 0 0 ] [ 0 0 -1 0 ] 0 1 1\n", hi, hi, hi)
		fmt.Fprintf(&sb, "}\n")
	}
	sb.WriteString("}\n")
	src := sb.String()

	seq, err := ParseMap(src, WithWorkers(1))
	require.NoError(t, err)
	par, err := ParseMap(src, WithWorkers(4))
	require.NoError(t, err)
	auto, err := ParseMap(src, WithWorkers(0))
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	assert.Equal(t, seq, auto)

	s := par.Stats()
	assert.Equal(t, 40, s.Brushes)
	assert.Equal(t, 240, s.Polygons)
	assert.Equal(t, 960, s.Vertices)
}

func TestParseMap_Tolerance(t *testing.T) {
	tight, err := ParseMap(cubeMap, WithTolerance(math.Tolerance{Epsilon: 1e-9, SignificantDigits: 0}))
	require.NoError(t, err)
	assert.Len(t, tight.Entities[0].Brushes[0].Polygons(), 6)
}

func TestParseMapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.map")
	require.NoError(t, os.WriteFile(path, []byte(cubeMap), 0o644))

	m, err := ParseMapFile(path)
	require.NoError(t, err)
	assert.Len(t, m.Entities, 2)

	_, err = ParseMapFile(filepath.Join(t.TempDir(), "missing.map"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFaceFormat_String(t *testing.T) {
	assert.Equal(t, "Valve220", FormatValve.String())
	assert.Equal(t, "Standard", FormatStandard.String())
	assert.Equal(t, "Unknown(9)", FaceFormat(9).String())
}
