package core

import (
	"fmt"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// Table is a wide Formula × Sample table of nullable values. Rows and columns
// keep the order in which they were first seen.
type Table struct {
	Name     string
	formulas []string
	samples  []string
	cells    map[string]map[string]null.Float
	colIndex map[string]int
}

// NewTable creates an empty table.
func NewTable(name string) *Table {
	return &Table{
		Name:     name,
		cells:    make(map[string]map[string]null.Float),
		colIndex: make(map[string]int),
	}
}

// Set stores a value for a (formula, sample) cell and reports whether a
// previous value for the same cell was overwritten.
func (t *Table) Set(formula, sample string, v null.Float) bool {
	t.AddSample(sample)
	row, ok := t.cells[formula]
	if !ok {
		row = make(map[string]null.Float)
		t.cells[formula] = row
		t.formulas = append(t.formulas, formula)
	}
	_, replaced := row[sample]
	row[sample] = v
	return replaced
}

// AddSample registers a sample column without assigning any cell.
func (t *Table) AddSample(sample string) {
	if _, ok := t.colIndex[sample]; ok {
		return
	}
	t.colIndex[sample] = len(t.samples)
	t.samples = append(t.samples, sample)
}

// Get returns the value of a cell; absent cells are null.
func (t *Table) Get(formula, sample string) null.Float {
	row, ok := t.cells[formula]
	if !ok {
		return null.Float{}
	}
	return row[sample]
}

// Has reports whether the table has a row for formula.
func (t *Table) Has(formula string) bool {
	_, ok := t.cells[formula]
	return ok
}

// Formulas returns the row keys in insertion order.
func (t *Table) Formulas() []string {
	out := make([]string, len(t.formulas))
	copy(out, t.formulas)
	return out
}

// Samples returns the column keys in insertion order.
func (t *Table) Samples() []string {
	out := make([]string, len(t.samples))
	copy(out, t.samples)
	return out
}

// Rows returns the number of formulas in the table.
func (t *Table) Rows() int {
	return len(t.formulas)
}

// Column returns the non-null values of one sample column in row order.
func (t *Table) Column(sample string) []float64 {
	var vals []float64
	for _, f := range t.formulas {
		if v := t.cells[f][sample]; v.Valid {
			vals = append(vals, v.Float64)
		}
	}
	return vals
}

// Map returns a new table with fn applied to every non-null cell of each
// sample column.
func (t *Table) Map(name string, fn func(sample string, v float64) float64) *Table {
	out := NewTable(name)
	for _, s := range t.samples {
		out.AddSample(s)
	}
	for _, f := range t.formulas {
		for s, v := range t.cells[f] {
			if v.Valid {
				v = null.FloatFrom(fn(s, v.Float64))
			}
			out.Set(f, s, v)
		}
	}
	return out
}

// FormulaRecord is the metadata of one formula: instrument-reported values
// plus the composition derived from the formula string.
type FormulaRecord struct {
	Formula     string
	CalcMZ      null.Float
	DBE         null.Float // raw until decomposed, corrected afterwards
	IsotopeFrac null.Float

	C, H, Na, S, O, N, Cl null.Int
	Class                 string
	Decomposed            bool
}

// FormulaMetadata is a table of FormulaRecords keyed by formula, in
// insertion order.
type FormulaMetadata struct {
	records []FormulaRecord
	index   map[string]int
}

// NewFormulaMetadata creates an empty metadata table.
func NewFormulaMetadata() *FormulaMetadata {
	return &FormulaMetadata{index: make(map[string]int)}
}

// Add inserts a record. It returns false and leaves the table unchanged when
// the formula is already present.
func (m *FormulaMetadata) Add(rec FormulaRecord) bool {
	if _, ok := m.index[rec.Formula]; ok {
		return false
	}
	m.index[rec.Formula] = len(m.records)
	m.records = append(m.records, rec)
	return true
}

// Get looks up the record of a formula.
func (m *FormulaMetadata) Get(formula string) (FormulaRecord, bool) {
	i, ok := m.index[formula]
	if !ok {
		return FormulaRecord{}, false
	}
	return m.records[i], true
}

// Records returns a copy of all records in insertion order.
func (m *FormulaMetadata) Records() []FormulaRecord {
	out := make([]FormulaRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Len returns the number of formulas.
func (m *FormulaMetadata) Len() int {
	return len(m.records)
}

// ValidationError represents an error found during table validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// CheckIntegrity verifies that every formula of the intensity table has
// exactly one metadata row.
func CheckIntegrity(intensities *Table, meta *FormulaMetadata) error {
	var missing []string
	for _, f := range intensities.formulas {
		if _, ok := meta.index[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	const maxListed = 5
	listed := missing
	if len(listed) > maxListed {
		listed = listed[:maxListed]
	}
	return &ValidationError{
		Field: "FormulaMetadata",
		Message: fmt.Sprintf("%d formulas without metadata (%s)",
			len(missing), strings.Join(listed, ", ")),
	}
}
