package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/brushmap/pkg/formats"
	"github.com/Faultbox/brushmap/pkg/math"
)

type dumpMap struct {
	Source   string       `yaml:"source"`
	Entities []dumpEntity `yaml:"entities"`
}

type dumpEntity struct {
	Index      int                `yaml:"index"`
	Properties []formats.Property `yaml:"properties,omitempty"`
	Brushes    []dumpBrush        `yaml:"brushes,omitempty"`
}

type dumpBrush struct {
	Index int        `yaml:"index"`
	Faces []dumpFace `yaml:"faces"`
}

type dumpFace struct {
	Texture  string       `yaml:"texture"`
	Format   string       `yaml:"format"`
	Normal   [3]float64   `yaml:"normal,flow"`
	Offset   float64      `yaml:"offset"`
	Vertices [][3]float64 `yaml:"vertices,omitempty,flow"`
}

func newDumpCmd(a *app) *cobra.Command {
	var (
		output     string
		noPolygons bool
	)
	cmd := &cobra.Command{
		Use:   "dump <source>",
		Short: "Write the parsed map with face polygons as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.loader.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeDump(w, buildDump(res.Source, res.Map, !noPolygons))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&noPolygons, "no-polygons", false, "Leave out face vertices")
	return cmd
}

func buildDump(source string, m *formats.Map, polygons bool) dumpMap {
	out := dumpMap{Source: source}
	for ei, e := range m.Entities {
		de := dumpEntity{Index: ei, Properties: e.Properties}
		for bi, b := range e.Brushes {
			db := dumpBrush{Index: bi}
			for i := range b.Faces {
				f := &b.Faces[i]
				df := dumpFace{
					Texture: f.Texture,
					Format:  f.Format.String(),
					Normal:  triple(f.Plane.Normal),
					Offset:  f.Plane.Offset,
				}
				if polygons && f.Polygon != nil {
					for _, v := range f.Polygon.Vertices {
						df.Vertices = append(df.Vertices, triple(v.Position))
					}
				}
				db.Faces = append(db.Faces, df)
			}
			de.Brushes = append(de.Brushes, db)
		}
		out.Entities = append(out.Entities, de)
	}
	return out
}

func triple(v math.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func writeDump(w io.Writer, d dumpMap) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
