// Package labels reads the table that assigns samples to groups.
package labels

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
	"github.com/ChrisMcGann/PeakTab/pkg/reader/peaktable"
)

// Record is one row of a label file.
type Record struct {
	Sample string `csv:"sample"`
	Group  string `csv:"group"`
}

// Load reads a CSV/TSV label file with Sample and Group columns. Sample
// names given as file names are reduced to sample identifiers, so "S1.xlsx"
// and "S1" both label sample S1.
func Load(path string) (core.SampleLabels, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(b))
	r.Comma = peaktable.DetermineDelimiter(bytes.NewReader(b), filepath.Ext(path))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records []*Record
	if err := gocsv.UnmarshalCSV(&foldHeader{r: r}, &records); err != nil {
		return nil, fmt.Errorf("failed to parse label file %s: %w", path, err)
	}
	return FromRecords(records), nil
}

// FromRecords builds a label map. Rows without a sample are ignored and a
// repeated sample keeps its last group.
func FromRecords(records []*Record) core.SampleLabels {
	out := make(core.SampleLabels, len(records))
	for _, rec := range records {
		sample := strings.TrimSpace(rec.Sample)
		if sample == "" {
			continue
		}
		out[sampleKey(sample)] = strings.TrimSpace(rec.Group)
	}
	return out
}

// sampleKey strips a sample table extension from a label's sample name.
func sampleKey(s string) string {
	switch strings.ToLower(filepath.Ext(s)) {
	case ".xlsx", ".xlsm", ".xls", ".csv", ".tsv", ".txt":
		return core.SampleID(s)
	}
	return s
}

// foldHeader lower-cases the header row so column names match regardless
// of case.
type foldHeader struct {
	r    *csv.Reader
	seen bool
}

func (f *foldHeader) Read() ([]string, error) {
	rec, err := f.r.Read()
	if err != nil {
		return nil, err
	}
	if !f.seen {
		f.seen = true
		for i := range rec {
			rec[i] = strings.ToLower(strings.TrimSpace(rec[i]))
		}
	}
	return rec, nil
}

func (f *foldHeader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := f.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, rec)
	}
}
