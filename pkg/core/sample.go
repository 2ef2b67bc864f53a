// Package core provides the intermediate representation (IR) models and validation logic
// for per-sample peak tables used by PeakTab.
package core

import (
	"path/filepath"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// HeaderEcho is the DBE cell value of a header row repeated inside the data
// block of a concatenated export.
const HeaderEcho = "DBE"

// RawSampleRow is one row of a sample table as read from disk. All cells are
// kept as text; numeric coercion happens when rows are combined.
type RawSampleRow struct {
	Formula     string
	DBE         string
	CalcMZ      string
	PPMError    string
	MonoInty    string
	IsotopeFrac string
	Extra       string // unused column, kept for schema parity
}

// Valid reports whether the row carries a formula and is not a header echo.
func (r RawSampleRow) Valid() bool {
	return strings.TrimSpace(r.Formula) != "" && strings.TrimSpace(r.DBE) != HeaderEcho
}

// SampleRows groups the rows loaded from one sample file.
type SampleRows struct {
	Sample string
	Rows   []RawSampleRow
}

// CombinedRow is a RawSampleRow stamped with its sample and coerced to numbers.
// Cells that failed numeric coercion are null.
type CombinedRow struct {
	Sample      string
	Formula     string
	DBE         null.Float
	CalcMZ      null.Float
	PPMError    null.Float
	MonoInty    null.Float
	IsotopeFrac null.Float
}

// SampleLabels maps a sample identifier to its group label.
type SampleLabels map[string]string

// Group returns the group of a sample, or a null string when the sample is
// not labelled.
func (l SampleLabels) Group(sample string) null.String {
	g, ok := l[sample]
	if !ok {
		return null.String{}
	}
	return null.StringFrom(g)
}

// SampleID derives the sample identifier from a file path: the base name with
// its extension stripped.
func SampleID(path string) string {
	base := filepath.Base(strings.ReplaceAll(path, `\`, "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
