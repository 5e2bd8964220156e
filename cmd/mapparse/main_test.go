package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/brushmap/internal/logger"
	"github.com/Faultbox/brushmap/pkg/pak"
)

const roomMap = `// Game: Quake
{
"classname" "worldspawn"
"wad" "gfx/base.wad"
{
( -64 -64 -16 ) ( -64 -63 -16 ) ( -64 -64 -15 ) floor [ 0 -1 0 0 ] [ 0 0 -1 0 ] 0 1 1
( -64 -64 -16 ) ( -64 -64 -15 ) ( -63 -64 -16 ) floor [ 1 0 0 0 ] [ 0 0 -1 0 ] 0 1 1
( -64 -64 -16 ) ( -63 -64 -16 ) ( -64 -63 -16 ) floor [ -1 0 0 0 ] [ 0 -1 0 0 ] 0 1 1
( 64 64 16 ) ( 64 65 16 ) ( 65 64 16 ) floor [ 1 0 0 0 ] [ 0 -1 0 0 ] 0 1 1
( 64 64 16 ) ( 65 64 16 ) ( 64 64 17 ) floor [ -1 0 0 0 ] [ 0 0 -1 0 ] 0 1 1
( 64 64 16 ) ( 64 64 17 ) ( 64 65 16 ) floor [ 0 1 0 0 ] [ 0 0 -1 0 ] 0 1 1
}
}
{
"classname" "light"
"origin" "0 0 64"
}
`

// run executes mapparse with args in an isolated config environment.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	orig, _ := os.Getwd()
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(orig)
	defer logger.InitNop()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeMap(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "room.map")
	require.NoError(t, os.WriteFile(path, []byte(roomMap), 0o644))
	return path
}

func TestInfo(t *testing.T) {
	path := writeMap(t)
	out, _, err := run(t, "info", "-e", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Map: "+path)
	assert.Contains(t, out, "Entities:   2")
	assert.Contains(t, out, "Brushes:    1")
	assert.Contains(t, out, "Polygons:   6")
	assert.Contains(t, out, "Bounds:     (-64 -16 -64) .. (64 16 64)")
	assert.Contains(t, out, "worldspawn")
	assert.Contains(t, out, "light")
	assert.NotContains(t, out, "Degenerate")
}

func TestInfoFromArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "pak0.pak")
	require.NoError(t, pak.WriteFile(archive, []pak.File{{Name: "maps/room.map", Data: []byte(roomMap)}}))

	out, _, err := run(t, "info", archive+":maps/room.map")
	require.NoError(t, err)
	assert.Contains(t, out, "Polygons:   6")
}

func TestInfoParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.map")
	require.NoError(t, os.WriteFile(path, []byte("{\n\"classname\" \"worldspawn\"\n{ }\n}"), 0o644))

	_, stderr, err := run(t, "info", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 sources failed")
	assert.Contains(t, stderr, "line 3, column 1: brush has no faces")
}

func TestDump(t *testing.T) {
	path := writeMap(t)
	out, _, err := run(t, "dump", path)
	require.NoError(t, err)

	var d dumpMap
	require.NoError(t, yaml.Unmarshal([]byte(out), &d))
	require.Len(t, d.Entities, 2)
	assert.Equal(t, "classname", d.Entities[0].Properties[0].Key)
	assert.Equal(t, "worldspawn", d.Entities[0].Properties[0].Value)
	require.Len(t, d.Entities[0].Brushes, 1)

	faces := d.Entities[0].Brushes[0].Faces
	require.Len(t, faces, 6)
	assert.Equal(t, "floor", faces[0].Texture)
	assert.Equal(t, "Valve220", faces[0].Format)
	assert.Equal(t, [3]float64{-1, 0, 0}, faces[0].Normal)
	assert.Equal(t, -64.0, faces[0].Offset)
	for _, f := range faces {
		assert.Len(t, f.Vertices, 4)
	}
	assert.Empty(t, d.Entities[1].Brushes)
}

func TestDumpToFile(t *testing.T) {
	path := writeMap(t)
	output := filepath.Join(t.TempDir(), "room.yaml")

	out, _, err := run(t, "dump", "--no-polygons", "-o", output, path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "texture: floor")
	assert.NotContains(t, string(data), "vertices")
}

func TestConfigFlags(t *testing.T) {
	out, _, err := run(t, "--epsilon", "0.5", "--workers", "2", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "epsilon: 0.5")
	assert.Contains(t, out, "workers: 2")

	_, _, err = run(t, "--encoding", "ebcdic", "config", "show")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapparse.yaml")
	out, _, err := run(t, "--digits", "3", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "significant_digits: 3")

	_, _, err = run(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = run(t, "--digits", "4", "config", "init", "--force", path)
	require.NoError(t, err)

	// The overwritten file is picked up with --config.
	out, _, err = run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "significant_digits: 4")
}

func TestConfigEncodings(t *testing.T) {
	out, _, err := run(t, "config", "encodings")
	require.NoError(t, err)
	lines := strings.Fields(out)
	assert.Equal(t, "auto", lines[0])
	assert.Contains(t, lines, "windows-1252")
}

func TestWatchRejectsArchive(t *testing.T) {
	_, _, err := run(t, "watch", "pak0.pak:maps/room.map")
	assert.ErrorContains(t, err, "cannot watch archive entry")
}
