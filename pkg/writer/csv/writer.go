// Package csv writes wide peak tables and aggregated points as delimited text.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
	"github.com/ChrisMcGann/PeakTab/pkg/filter"
)

// AggregateRecord is the flat form of a filter.Point.
type AggregateRecord struct {
	Parameter string  `csv:"parameter"`
	Sample    string  `csv:"sample"`
	Group     string  `csv:"group"`
	Intensity float64 `csv:"intensity"`
}

// Records flattens points; a null group becomes an empty string.
func Records(points []filter.Point) []AggregateRecord {
	out := make([]AggregateRecord, 0, len(points))
	for _, p := range points {
		out = append(out, AggregateRecord{
			Parameter: p.Parameter,
			Sample:    p.Sample,
			Group:     p.Group.String,
			Intensity: p.Intensity,
		})
	}
	return out
}

// WriteAggregate writes points with a header row.
func WriteAggregate(w io.Writer, points []filter.Point) error {
	records := Records(points)
	return gocsv.Marshal(&records, w)
}

// WriteTable writes t in wide form: a Formula column followed by one column
// per sample. Null cells are written empty.
func WriteTable(w io.Writer, t *core.Table) error {
	cw := csv.NewWriter(w)

	samples := t.Samples()
	header := append([]string{"Formula"}, samples...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(samples)+1)
	for _, f := range t.Formulas() {
		record[0] = f
		for i, s := range samples {
			record[i+1] = ""
			if v := t.Get(f, s); v.Valid {
				record[i+1] = strconv.FormatFloat(v.Float64, 'g', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTableFile creates path and writes t to it.
func WriteTableFile(path string, t *core.Table) error {
	return writeFile(path, func(w io.Writer) error { return WriteTable(w, t) })
}

// WriteAggregateFile creates path and writes points to it.
func WriteAggregateFile(path string, points []filter.Point) error {
	return writeFile(path, func(w io.Writer) error { return WriteAggregate(w, points) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
