package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Faultbox/brushmap/internal/loader"
)

func newInfoCmd(a *app) *cobra.Command {
	var listEntities bool
	cmd := &cobra.Command{
		Use:   "info <source>...",
		Short: "Show counts, bounds and entity classes of map files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, source := range args {
				res, err := a.loader.Load(cmd.Context(), source)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
					failed++
					continue
				}
				printInfo(cmd.OutOrStdout(), res, listEntities)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sources failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&listEntities, "entities", "e", false, "List every entity")
	return cmd
}

func printInfo(w io.Writer, res *loader.Result, listEntities bool) {
	s := res.Stats
	fmt.Fprintf(w, "Map: %s (%d bytes)\n", res.Source, res.Size)
	fmt.Fprintf(w, "  Entities:   %d\n", s.Entities)
	fmt.Fprintf(w, "  Brushes:    %d\n", s.Brushes)
	fmt.Fprintf(w, "  Faces:      %d\n", s.Faces)
	fmt.Fprintf(w, "  Polygons:   %d\n", s.Polygons)
	fmt.Fprintf(w, "  Vertices:   %d\n", s.Vertices)
	if s.Degenerate > 0 {
		fmt.Fprintf(w, "  Degenerate: %d\n", s.Degenerate)
	}
	if box, ok := res.Map.Bounds(); ok {
		fmt.Fprintf(w, "  Bounds:     %v .. %v\n", box.Min, box.Max)
		fmt.Fprintf(w, "  Size:       %v\n", box.Size())
	}

	classes := make(map[string]int)
	for _, e := range res.Map.Entities {
		name := e.ClassName()
		if name == "" {
			name = "(none)"
		}
		classes[name]++
	}
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if classes[names[i]] != classes[names[j]] {
			return classes[names[i]] > classes[names[j]]
		}
		return names[i] < names[j]
	})

	fmt.Fprintln(w, "  Classes:")
	for _, name := range names {
		fmt.Fprintf(w, "    %-24s %d\n", name, classes[name])
	}

	if listEntities {
		fmt.Fprintln(w, "  Entities:")
		for i, e := range res.Map.Entities {
			fmt.Fprintf(w, "    %4d %-24s %d brushes, %d properties\n",
				i, e.ClassName(), len(e.Brushes), len(e.Properties))
		}
	}
	fmt.Fprintf(w, "  Parsed in %v\n", res.Elapsed)
}
