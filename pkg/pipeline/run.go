package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
	"github.com/ChrisMcGann/PeakTab/pkg/formula"
	"github.com/ChrisMcGann/PeakTab/pkg/reader/peaktable"
)

// DefaultPatterns matches the sample table formats the loader understands.
var DefaultPatterns = []string{"*.xlsx", "*.xls", "*.csv", "*.tsv"}

// Options configures a batch run.
type Options struct {
	Layout  peaktable.Layout
	Workers int          // parallel file loads; values below 1 mean 1
	Logger  *slog.Logger // nil discards log output
}

// FileStats records what was read from one sample file.
type FileStats struct {
	Path   string
	Sample string
	peaktable.LoadStats
}

// SkippedFile is a sample file that could not be loaded.
type SkippedFile struct {
	Path string
	Err  error
}

// Report summarizes a batch run.
type Report struct {
	Files    []FileStats
	Skipped  []SkippedFile
	Warnings []core.Warning
}

// Rows returns the number of data rows kept across all files.
func (r Report) Rows() int {
	n := 0
	for _, f := range r.Files {
		n += f.Rows
	}
	return n
}

// Dropped returns the number of rows discarded by the loader.
func (r Report) Dropped() int {
	n := 0
	for _, f := range r.Files {
		n += f.Dropped()
	}
	return n
}

// Result is the output of a batch run. Metadata is decomposed.
type Result struct {
	Tables
	Samples []string
	Report  Report
}

// Discover lists the sample files in dir matching any of patterns, sorted by
// name. Spreadsheet lock files (~$name) are ignored.
func Discover(dir string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	seen := make(map[string]bool)
	var paths []string
	for _, p := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, p))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		for _, m := range matches {
			if seen[m] || strings.HasPrefix(filepath.Base(m), "~$") {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

type loadResult struct {
	rows  []core.RawSampleRow
	stats peaktable.LoadStats
	err   error
}

// Run loads every sample file, combines and splits the rows, and decomposes
// the formula metadata. Files that fail to load are skipped and listed in the
// report. Loads may run in parallel; rows are always combined in the order of
// paths.
func Run(ctx context.Context, paths []string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	loaded, err := loadAll(ctx, paths, opts, log)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	var samples []core.SampleRows
	for i, path := range paths {
		l := loaded[i]
		if l.err != nil {
			log.Warn("skipping sample file", "path", path, "err", l.err)
			res.Report.Skipped = append(res.Report.Skipped, SkippedFile{Path: path, Err: l.err})
			continue
		}
		sample := core.SampleID(path)
		res.Report.Files = append(res.Report.Files, FileStats{Path: path, Sample: sample, LoadStats: l.stats})
		samples = append(samples, core.SampleRows{Sample: sample, Rows: l.rows})
	}

	tables, warnings := Split(Combine(samples))
	res.Report.Warnings = append(res.Report.Warnings, warnings...)
	for _, s := range samples {
		tables.Intensities.AddSample(s.Sample)
		tables.Errors.AddSample(s.Sample)
	}

	meta, warnings := formula.DecomposeAll(tables.Metadata)
	res.Report.Warnings = append(res.Report.Warnings, warnings...)
	tables.Metadata = meta

	if err := core.CheckIntegrity(tables.Intensities, tables.Metadata); err != nil {
		return nil, err
	}

	res.Tables = tables
	res.Samples = tables.Intensities.Samples()
	log.Debug("pipeline finished",
		"files", len(res.Report.Files),
		"skipped", len(res.Report.Skipped),
		"formulas", tables.Metadata.Len(),
		"warnings", len(res.Report.Warnings))
	return res, nil
}

func loadAll(ctx context.Context, paths []string, opts Options, log *slog.Logger) ([]loadResult, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]loadResult, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rows, stats, err := peaktable.Load(paths[i], opts.Layout)
				results[i] = loadResult{rows: rows, stats: stats, err: err}
				log.Debug("loaded sample file", "path", paths[i], "rows", stats.Rows, "dropped", stats.Dropped())
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
