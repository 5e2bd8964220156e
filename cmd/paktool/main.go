// paktool is a CLI utility for working with Quake PAK archives.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/brushmap/pkg/encoding"
	"github.com/Faultbox/brushmap/pkg/formats"
	"github.com/Faultbox/brushmap/pkg/pak"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "extract", "x":
		cmdExtract(args)
	case "create", "c":
		cmdCreate(args)
	case "maps":
		cmdMaps(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`paktool - Quake PAK archive utility

Usage:
  paktool <command> [options]

Commands:
  info <file.pak>                      Show archive information
  list <file.pak> [pattern]            List files (optional glob pattern)
  extract <file.pak> <path> [output]   Extract file(s) to directory
  create <file.pak> <dir>              Pack a directory into a new archive
  maps <file.pak>                      Parse every .map file and show counts

Examples:
  paktool info pak0.pak
  paktool list pak0.pak "*.map"
  paktool extract pak0.pak "*.map" ./maps
  paktool create mymod.pak ./src`)
}

func openArchive(path string) *pak.Archive {
	archive, err := pak.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return archive
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: paktool info <file.pak>")
		os.Exit(1)
	}

	archive := openArchive(args[0])
	defer archive.Close()

	files := archive.List()

	extCount := make(map[string]int)
	var totalSize int64
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++
		if e, err := archive.Stat(f); err == nil {
			totalSize += e.Size
		}
	}

	fmt.Printf("Archive: %s\n", args[0])
	fmt.Printf("Files:   %d\n", len(files))
	fmt.Printf("Size:    %.2f MB\n", float64(totalSize)/(1024*1024))
	fmt.Println()
	fmt.Println("Files by type:")

	type extStat struct {
		ext   string
		count int
	}
	var stats []extStat
	for ext, count := range extCount {
		stats = append(stats, extStat{ext, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].ext < stats[j].ext
	})

	for _, s := range stats {
		fmt.Printf("  %-10s %d\n", s.ext, s.count)
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	long := fs.Bool("l", false, "Show offsets and sizes")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: paktool list [-n N] [-l] <file.pak> [pattern]")
		os.Exit(1)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, f := range archive.List() {
		if pattern != "" && !matches(pattern, f) {
			continue
		}
		if *long {
			e, _ := archive.Stat(f)
			fmt.Printf("%10d %10d  %s\n", e.Offset, e.Size, f)
		} else {
			fmt.Println(f)
		}
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", count)
	}
}

// matches reports whether name matches a glob on its base name or contains
// pattern as a substring.
func matches(pattern, name string) bool {
	matched, _ := filepath.Match(pattern, filepath.Base(name))
	return matched || strings.Contains(name, pattern)
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: paktool extract <file.pak> <path|pattern> [output_dir]")
		os.Exit(1)
	}

	filePath := fs.Arg(1)
	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	var names []string
	if strings.ContainsAny(filePath, "*?[") {
		pattern := strings.ToLower(filePath)
		for _, f := range archive.List() {
			if ok, _ := filepath.Match(pattern, filepath.Base(f)); ok {
				names = append(names, f)
			}
		}
	} else {
		if !archive.Contains(filePath) {
			fmt.Fprintf(os.Stderr, "File not found: %s\n", filePath)
			os.Exit(1)
		}
		names = []string{filePath}
	}

	extracted := 0
	for _, f := range names {
		data, err := archive.Read(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", f, err)
			continue
		}

		// Preserve directory structure
		outputPath := filepath.Join(outputDir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
			continue
		}

		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
			continue
		}

		fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
}

func cmdCreate(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: paktool create <file.pak> <dir>")
		os.Exit(1)
	}

	files, err := collectFiles(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := pak.WriteFile(args[0], files); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created: %s (%d files)\n", args[0], len(files))
}

// collectFiles reads every regular file under root, named by its
// slash-separated path relative to root.
func collectFiles(root string) ([]pak.File, error) {
	var files []pak.File
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, pak.File{Name: filepath.ToSlash(rel), Data: data})
		return nil
	})
	return files, err
}

func cmdMaps(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: paktool maps <file.pak>")
		os.Exit(1)
	}

	archive := openArchive(args[0])
	failed := reportMaps(os.Stdout, os.Stderr, archive)
	archive.Close()
	if failed > 0 {
		os.Exit(1)
	}
}

// reportMaps parses every .map entry in archive and writes one line of
// counts per map to out. It returns the number of maps that failed.
func reportMaps(out, errOut io.Writer, archive *pak.Archive) int {
	failed := 0
	for _, f := range archive.List() {
		if filepath.Ext(f) != ".map" {
			continue
		}
		data, err := archive.Read(f)
		if err != nil {
			fmt.Fprintf(errOut, "Error reading %s: %v\n", f, err)
			failed++
			continue
		}
		text, err := encoding.Decode(data, encoding.Auto)
		if err != nil {
			fmt.Fprintf(errOut, "Error decoding %s: %v\n", f, err)
			failed++
			continue
		}
		m, err := formats.ParseMap(text, formats.WithWorkers(0))
		if err != nil {
			fmt.Fprintf(out, "%-32s error: %v\n", f, err)
			failed++
			continue
		}
		s := m.Stats()
		fmt.Fprintf(out, "%-32s %4d entities %5d brushes %6d faces %6d polygons\n",
			f, s.Entities, s.Brushes, s.Faces, s.Polygons)
	}
	return failed
}
