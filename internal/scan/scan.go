// Package scan parses many beatmaps concurrently.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/beatmap/pkg/beatmap"
	"github.com/Faultbox/beatmap/pkg/osz"
)

// Result is the outcome of parsing one chart.
type Result struct {
	Path    string // file path, or archive path joined with the entry name
	Beatmap *beatmap.Beatmap
	Err     error
	Elapsed time.Duration

	// Skipped is set when the chart is for a game mode other than
	// osu!standard. Err still holds the parse error.
	Skipped bool
}

func newResult(path string, bm *beatmap.Beatmap, err error, elapsed time.Duration) Result {
	return Result{
		Path:    path,
		Beatmap: bm,
		Err:     err,
		Elapsed: elapsed,
		Skipped: errors.Is(err, beatmap.ErrUnsupportedMode),
	}
}

// Scanner parses charts with a bounded number of workers.
type Scanner struct {
	workers int
	pattern string
	log     *zap.Logger
}

// New creates a Scanner. workers <= 0 uses one worker per CPU. Files are
// selected by matching their base name against pattern; .osz archives are
// always included.
func New(workers int, pattern string, log *zap.Logger) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if pattern == "" {
		pattern = "*.osu"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{workers: workers, pattern: pattern, log: log}
}

// Workers returns the worker limit.
func (s *Scanner) Workers() int {
	return s.workers
}

// Find walks root and returns the matching files in lexical order.
func (s *Scanner) Find(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := filepath.Match(s.pattern, d.Name())
		if err != nil {
			return err
		}
		if ok || osz.IsArchive(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return paths, nil
}

// Run parses paths concurrently. Results keep the order of paths, with the
// charts of an archive in the archive's order. Parse failures are recorded
// on each Result and also combined into the returned error, except for
// skipped charts; a canceled context stops the scan and is returned alone.
func (s *Scanner) Run(ctx context.Context, paths []string) ([]Result, error) {
	perFile := make([][]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if osz.IsArchive(path) {
				perFile[i] = s.parseArchive(path)
			} else {
				perFile[i] = []Result{s.parseFile(path)}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []Result
	var errs error
	skipped := 0
	for _, rs := range perFile {
		for _, r := range rs {
			if r.Err != nil && !r.Skipped {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Path, r.Err))
			}
			if r.Skipped {
				skipped++
			}
			results = append(results, r)
		}
	}

	s.log.Info("scan finished",
		zap.Int("files", len(paths)),
		zap.Int("charts", len(results)),
		zap.Int("failed", len(multierr.Errors(errs))),
		zap.Int("skipped", skipped),
	)
	return results, errs
}

// Dir finds and parses every matching file under root.
func (s *Scanner) Dir(ctx context.Context, root string) ([]Result, error) {
	paths, err := s.Find(root)
	if err != nil {
		return nil, err
	}
	s.log.Debug("scanning", zap.String("root", root), zap.Int("files", len(paths)), zap.Int("workers", s.workers))
	return s.Run(ctx, paths)
}

func (s *Scanner) parseFile(path string) Result {
	start := time.Now()
	bm, err := beatmap.ParseFile(path, beatmap.WithLogger(s.log.With(zap.String("path", path))))
	r := newResult(path, bm, err, time.Since(start))
	s.logResult(r)
	return r
}

func (s *Scanner) parseArchive(path string) []Result {
	archive, err := osz.Open(path)
	if err != nil {
		r := newResult(path, nil, err, 0)
		s.logResult(r)
		return []Result{r}
	}
	defer archive.Close()

	var results []Result
	for _, name := range archive.Beatmaps() {
		entry := path + "/" + name
		start := time.Now()
		bm, err := archive.ParseBeatmap(name, beatmap.WithLogger(s.log.With(zap.String("path", entry))))
		r := newResult(entry, bm, err, time.Since(start))
		s.logResult(r)
		results = append(results, r)
	}
	return results
}

func (s *Scanner) logResult(r Result) {
	if r.Skipped {
		s.log.Debug("skipped", zap.String("path", r.Path), zap.Error(r.Err))
		return
	}
	if r.Err != nil {
		s.log.Warn("parse failed", zap.String("path", r.Path), zap.Error(r.Err))
		return
	}
	s.log.Debug("parsed",
		zap.String("path", r.Path),
		zap.Int("objects", len(r.Beatmap.HitObjects)),
		zap.Int("warnings", len(r.Beatmap.Warnings)),
		zap.Duration("elapsed", r.Elapsed),
	)
}
