// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/ditto/pkg/types"
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
	// Outcomes is in the same order as the requests.
	Outcomes []Outcome
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Status returns the per-document status of outcome i.
func (r BatchResult) Status(i int) types.ConversionStatus {
	o := r.Outcomes[i]
	switch {
	case o.Skipped:
		return types.ConversionSkipped
	case o.Err != nil:
		return types.ConversionFailed
	default:
		return types.ConversionDone
	}
}

// ConvertBatch converts reqs with at most cfg.Jobs conversions in flight,
// printing per-file status to w and returning a summary. A failed document
// does not stop the others.
func (c *Converter) ConvertBatch(ctx context.Context, reqs []Request, cfg types.BatchConfig, w io.Writer) BatchResult {
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = 1
	}

	outcomes := make([]Outcome, len(reqs))
	collisions := outputCollisions(reqs, runtime.GOOS)
	var mu sync.Mutex
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, req := range reqs {
		g.Go(func() error {
			name := filepath.Base(req.InputPath)

			if first, ok := collisions[i]; ok {
				err := newError(KindInputInvalid, req.OutputPath, "output collides with "+first, nil)
				outcomes[i] = Outcome{Request: req, Err: err}
				report("failed:    %s (%s: %v)\n", name, err.Kind, firstLine(err.Error()))
				return nil
			}

			if cfg.SkipExisting {
				if _, err := os.Stat(req.OutputPath); err == nil {
					outcomes[i] = Outcome{Request: req, Result: Result{OutputPath: req.OutputPath}, Skipped: true}
					report("skipped:   %s (already exists)\n", name)
					return nil
				}
			}

			res, err := c.Convert(ctx, req)
			outcomes[i] = Outcome{Request: req, Result: res, Err: err}
			if err != nil {
				report("failed:    %s (%s: %v)\n", name, KindFromError(err), firstLine(err.Error()))
				return nil
			}
			report("converted: %s -> %s (%s, %s)\n",
				name, res.OutputPath, humanize.Bytes(uint64(res.Size)), res.Duration.Round(time.Millisecond))
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{Outcomes: outcomes}
	for i := range outcomes {
		switch result.Status(i) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionSkipped:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// outputCollisions maps the index of every request whose output path was
// already claimed by an earlier request to that earlier request's input.
func outputCollisions(reqs []Request, goos string) map[int]string {
	claimed := make(map[string]string, len(reqs))
	collisions := make(map[int]string)
	for i, req := range reqs {
		key := outputKey(req.OutputPath, goos)
		if first, ok := claimed[key]; ok {
			collisions[i] = first
			continue
		}
		claimed[key] = req.InputPath
	}
	return collisions
}

// outputKey normalises an output path for comparison. Paths are compared
// case-insensitively where the default filesystem folds case.
func outputKey(path, goos string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.Clean(path)
	if caseFolding(goos) {
		path = strings.ToLower(path)
	}
	return path
}

func caseFolding(goos string) bool {
	return goos == "darwin" || goos == "windows"
}

// RequestsFromPaths builds one Request per input path. Each PDF goes to
// outDir/<stem>.pdf, or next to its input when outDir is empty.
func RequestsFromPaths(paths []string, outDir string) []Request {
	reqs := make([]Request, len(paths))
	for i, p := range paths {
		base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		dir := outDir
		if dir == "" {
			dir = filepath.Dir(p)
		}
		reqs[i] = Request{
			InputPath:  p,
			OutputPath: filepath.Join(dir, base+outputExt),
		}
	}
	return reqs
}

// FindDocuments lists the .docx files directly inside dir, skipping Word
// lock files (~$name.docx).
func FindDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), inputExt) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
