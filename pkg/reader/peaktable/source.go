package peaktable

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/csimplestring/go-csv/detector"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// RowSource yields the raw cells of a sheet one row at a time. Next returns
// io.EOF after the last row.
type RowSource interface {
	Next() ([]string, error)
	Close() error
}

// Open selects a RowSource for path based on its extension.
func Open(path string) (RowSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return openXLSX(path)
	case ".xls":
		return openXLS(path)
	case ".csv", ".tsv", ".txt":
		return openCSV(path)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

// sliceSource serves rows that were read in one go.
type sliceSource struct {
	rows [][]string
	pos  int
}

// NewSliceSource wraps in-memory rows as a RowSource.
func NewSliceSource(rows [][]string) RowSource {
	return &sliceSource{rows: rows}
}

func (s *sliceSource) Next() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

func (s *sliceSource) Close() error { return nil }

// xlsxSource streams the first worksheet of a workbook.
type xlsxSource struct {
	file *excelize.File
	rows *excelize.Rows
}

func openXLSX(path string) (*xlsxSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return &xlsxSource{file: f, rows: rows}, nil
}

func (s *xlsxSource) Next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	// Raw values keep the stored precision regardless of the cell's number format.
	return s.rows.Columns(excelize.Options{RawCellValue: true})
}

func (s *xlsxSource) Close() error {
	s.rows.Close()
	return s.file.Close()
}

// openXLS reads the first sheet of a legacy BIFF workbook.
func openXLS(path string) (RowSource, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("sheet 0 is nil")
	}

	var rows [][]string
	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		row := sheet.Row(rowID)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for colID := 0; colID <= row.LastCol(); colID++ {
			cells = append(cells, row.Col(colID))
		}
		rows = append(rows, cells)
	}
	return NewSliceSource(rows), nil
}

// csvSource reads delimited text files.
type csvSource struct {
	r *csv.Reader
}

func openCSV(path string) (*csvSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	r := csv.NewReader(bytes.NewReader(b))
	r.Comma = DetermineDelimiter(bytes.NewReader(b), filepath.Ext(path))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return &csvSource{r: r}, nil
}

func (s *csvSource) Next() ([]string, error) {
	return s.r.Read()
}

func (s *csvSource) Close() error { return nil }

// DetermineDelimiter returns the most likely delimiter of a CSV-like stream.
// Only common table delimiters are accepted from the detector; otherwise the
// extension decides.
func DetermineDelimiter(r io.Reader, ext string) rune {
	fallback := ','
	if strings.EqualFold(ext, ".tsv") {
		fallback = '\t'
	}

	d := detector.New()
	for _, candidate := range d.DetectDelimiter(r, '"') {
		if len(candidate) != 1 {
			continue
		}
		switch c := rune(candidate[0]); c {
		case ',', ';', '\t', '|':
			return c
		}
	}
	return fallback
}
