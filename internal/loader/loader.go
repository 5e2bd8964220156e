// Package loader reads, decodes and parses map sources.
//
// A source is either a path on disk or an entry inside a PAK archive written
// as "archive.pak:maps/e1m1.map".
package loader

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/brushmap/internal/config"
	"github.com/Faultbox/brushmap/pkg/encoding"
	"github.com/Faultbox/brushmap/pkg/formats"
	"github.com/Faultbox/brushmap/pkg/pak"
)

const pakSeparator = ".pak:"

// Result is a parsed map with what it took to produce it.
type Result struct {
	Source  string
	Size    int
	Map     *formats.Map
	Stats   formats.MapStats
	Elapsed time.Duration
}

// Loader parses map sources with a fixed configuration.
type Loader struct {
	cfg *config.Config
	log *zap.Logger
}

// New returns a loader. A nil log discards output.
func New(cfg *config.Config, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{cfg: cfg, log: log}
}

// SplitSource splits "archive.pak:entry" into its parts. ok is false for a
// plain file path.
func SplitSource(source string) (archive, entry string, ok bool) {
	i := strings.LastIndex(strings.ToLower(source), pakSeparator)
	if i < 0 {
		return "", "", false
	}
	cut := i + len(pakSeparator) - 1
	return source[:cut], source[cut+1:], true
}

// Read returns the raw bytes of a source.
func (l *Loader) Read(source string) ([]byte, error) {
	archivePath, entry, ok := SplitSource(source)
	if !ok {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("reading map file: %w", err)
		}
		return data, nil
	}

	archive, err := pak.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", archivePath, err)
	}
	defer archive.Close()

	data, err := archive.Read(entry)
	if err != nil {
		return nil, err
	}
	l.log.Debug("read archive entry",
		zap.String("archive", archivePath),
		zap.String("entry", entry),
		zap.Int("bytes", len(data)))
	return data, nil
}

// Load reads, decodes and parses source.
func (l *Loader) Load(ctx context.Context, source string) (*Result, error) {
	start := time.Now()

	data, err := l.Read(source)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := encoding.Decode(data, l.cfg.Parser.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	m, err := formats.ParseMap(text,
		formats.WithTolerance(l.cfg.Geometry.Tolerance()),
		formats.WithWorkers(l.cfg.Parser.Workers))
	if err != nil {
		l.log.Error("parse failed", zap.String("source", source), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	res := &Result{
		Source:  source,
		Size:    len(data),
		Map:     m,
		Stats:   m.Stats(),
		Elapsed: time.Since(start),
	}
	l.report(res)
	return res, nil
}

func (l *Loader) report(res *Result) {
	for ei, e := range res.Map.Entities {
		for bi, b := range e.Brushes {
			for fi := range b.Faces {
				if b.Faces[fi].Plane.IsDegenerate() {
					l.log.Warn("face plane points are collinear",
						zap.Int("entity", ei), zap.Int("brush", bi), zap.Int("face", fi))
				}
			}
			if len(b.Faces) > 0 && len(b.Polygons()) == 0 {
				l.log.Warn("brush encloses no volume",
					zap.Int("entity", ei), zap.Int("brush", bi), zap.Int("faces", len(b.Faces)))
			}
		}
	}

	s := res.Stats
	l.log.Info("parsed map",
		zap.String("source", res.Source),
		zap.Int("bytes", res.Size),
		zap.Int("entities", s.Entities),
		zap.Int("brushes", s.Brushes),
		zap.Int("faces", s.Faces),
		zap.Int("polygons", s.Polygons),
		zap.Duration("elapsed", res.Elapsed))
}
