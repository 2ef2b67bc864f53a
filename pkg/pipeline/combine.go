// Package pipeline turns loaded sample tables into the keyed intensity,
// error and formula tables.
package pipeline

import (
	"math"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
)

// Combine concatenates the rows of every sample in input order, stamping each
// row with its sample and coercing numeric cells. Cells that are not numbers
// become null.
func Combine(samples []core.SampleRows) []core.CombinedRow {
	n := 0
	for _, s := range samples {
		n += len(s.Rows)
	}

	out := make([]core.CombinedRow, 0, n)
	for _, s := range samples {
		for _, r := range s.Rows {
			out = append(out, core.CombinedRow{
				Sample:      s.Sample,
				Formula:     strings.TrimSpace(r.Formula),
				DBE:         ParseFloat(r.DBE),
				CalcMZ:      ParseFloat(r.CalcMZ),
				PPMError:    ParseFloat(r.PPMError),
				MonoInty:    ParseFloat(r.MonoInty),
				IsotopeFrac: ParseFloat(r.IsotopeFrac),
			})
		}
	}
	return out
}

// ParseFloat coerces a cell to a number. Blank, non-numeric and non-finite
// cells yield null.
func ParseFloat(s string) null.Float {
	s = strings.TrimSpace(s)
	if s == "" {
		return null.Float{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}
