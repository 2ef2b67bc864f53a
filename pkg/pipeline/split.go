package pipeline

import (
	"github.com/ChrisMcGann/PeakTab/pkg/core"
)

// Table names used in warnings and exports.
const (
	IntensityTableName = "intensity"
	ErrorTableName     = "error"
)

// Tables holds the three keyed projections of a combined table.
type Tables struct {
	Intensities *core.Table
	Errors      *core.Table
	Metadata    *core.FormulaMetadata
}

// Split projects combined rows into the intensity, error and formula tables.
// A duplicate (Formula, Sample) pair keeps the last value and yields an
// AmbiguousKeyWarning; formula metadata keeps the first occurrence.
func Split(rows []core.CombinedRow) (Tables, []core.Warning) {
	t := Tables{
		Intensities: core.NewTable(IntensityTableName),
		Errors:      core.NewTable(ErrorTableName),
		Metadata:    core.NewFormulaMetadata(),
	}

	var warnings []core.Warning
	for _, r := range rows {
		if t.Intensities.Set(r.Formula, r.Sample, r.MonoInty) {
			warnings = append(warnings, core.AmbiguousKeyWarning{
				Formula: r.Formula,
				Sample:  r.Sample,
				Table:   IntensityTableName,
			})
		}
		t.Errors.Set(r.Formula, r.Sample, r.PPMError)

		t.Metadata.Add(core.FormulaRecord{
			Formula:     r.Formula,
			CalcMZ:      r.CalcMZ,
			DBE:         r.DBE,
			IsotopeFrac: r.IsotopeFrac,
		})
	}
	return t, warnings
}
