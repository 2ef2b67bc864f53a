// Package peaktable provides streaming readers for per-sample peak tables
// exported by the instrument software (XLSX, XLS, CSV/TSV).
package peaktable

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
)

// MinColumns is the number of columns a sample table must carry.
const MinColumns = 7

// Layout describes where the column header sits and how columns are named.
type Layout struct {
	SkipRows    int    // metadata rows before the column header
	Formula     string // required
	DBE         string // required
	CalcMZ      string // required
	PPMError    string // required
	MonoInty    string // required
	IsotopeFrac string // required
	Extra       string // optional, kept for schema parity
}

// DefaultLayout returns the layout of the instrument peak-list export.
func DefaultLayout() Layout {
	return Layout{
		SkipRows:    6,
		Formula:     "Formula",
		DBE:         "DBE",
		CalcMZ:      "Calc m/z",
		PPMError:    "ppm Error",
		MonoInty:    "Mono Inty",
		IsotopeFrac: "Isotope frac",
		Extra:       "Meas m/z",
	}
}

// LoadStats counts the rows seen by a Reader.
type LoadStats struct {
	Rows         int // data rows kept
	DroppedBlank int // rows without a formula
	DroppedEcho  int // repeated header rows
}

// Dropped returns the total number of discarded rows.
func (s LoadStats) Dropped() int {
	return s.DroppedBlank + s.DroppedEcho
}

type columnIndex struct {
	formula, dbe, calcMZ, ppmError, monoInty, isotopeFrac, extra int
}

// Reader provides streaming access to the data rows of one sample table
type Reader struct {
	src     RowSource
	path    string
	cols    columnIndex
	lineNum int
	current core.RawSampleRow
	stats   LoadStats
	err     error
}

// NewReader skips the metadata block of src, resolves the column header and
// returns a Reader positioned before the first data row. A header that does
// not match layout yields a *core.MalformedInputError.
func NewReader(src RowSource, path string, layout Layout) (*Reader, error) {
	r := &Reader{src: src, path: path}

	for i := 0; i < layout.SkipRows; i++ {
		if _, err := r.next(); err != nil {
			return nil, r.malformed(fmt.Sprintf("file ends within the %d metadata rows", layout.SkipRows), err)
		}
	}

	header, err := r.next()
	if err != nil {
		return nil, r.malformed("missing column header", err)
	}
	if len(header) < MinColumns {
		return nil, r.malformed(fmt.Sprintf("line %d: expected at least %d columns, got %d", r.lineNum, MinColumns, len(header)), nil)
	}

	cols, err := resolveColumns(header, layout)
	if err != nil {
		return nil, r.malformed(fmt.Sprintf("line %d", r.lineNum), err)
	}
	r.cols = cols
	return r, nil
}

func (r *Reader) malformed(reason string, err error) error {
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return &core.MalformedInputError{Path: r.path, Reason: reason, Err: err}
}

func (r *Reader) next() ([]string, error) {
	row, err := r.src.Next()
	if err != nil {
		return nil, err
	}
	r.lineNum++
	return row, nil
}

// Next advances to the next valid data row. Returns false when no more rows or error.
func (r *Reader) Next() bool {
	for {
		cells, err := r.next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = r.malformed(fmt.Sprintf("line %d", r.lineNum+1), err)
			}
			return false
		}

		row := r.project(cells)
		if strings.TrimSpace(row.Formula) == "" {
			r.stats.DroppedBlank++
			continue
		}
		if !row.Valid() {
			r.stats.DroppedEcho++
			continue
		}

		r.stats.Rows++
		r.current = row
		return true
	}
}

// Row returns the current row
func (r *Reader) Row() core.RawSampleRow {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// Stats returns the row counts gathered so far.
func (r *Reader) Stats() LoadStats {
	return r.stats
}

func (r *Reader) project(cells []string) core.RawSampleRow {
	return core.RawSampleRow{
		Formula:     cell(cells, r.cols.formula),
		DBE:         cell(cells, r.cols.dbe),
		CalcMZ:      cell(cells, r.cols.calcMZ),
		PPMError:    cell(cells, r.cols.ppmError),
		MonoInty:    cell(cells, r.cols.monoInty),
		IsotopeFrac: cell(cells, r.cols.isotopeFrac),
		Extra:       cell(cells, r.cols.extra),
	}
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// resolveColumns maps the layout's column names onto header positions.
// Header names compare case-insensitively.
func resolveColumns(header []string, layout Layout) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := pos[key]; !seen {
			pos[key] = i
		}
	}

	var missing []string
	find := func(name string, required bool) int {
		i, ok := pos[strings.ToLower(strings.TrimSpace(name))]
		if !ok || name == "" {
			if required {
				missing = append(missing, name)
			}
			return -1
		}
		return i
	}

	cols := columnIndex{
		formula:     find(layout.Formula, true),
		dbe:         find(layout.DBE, true),
		calcMZ:      find(layout.CalcMZ, true),
		ppmError:    find(layout.PPMError, true),
		monoInty:    find(layout.MonoInty, true),
		isotopeFrac: find(layout.IsotopeFrac, true),
		extra:       find(layout.Extra, false),
	}
	if len(missing) > 0 {
		return columnIndex{}, fmt.Errorf("columns not found in header: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}
