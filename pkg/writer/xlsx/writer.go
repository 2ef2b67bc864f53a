// Package xlsx writes processed peak tables to an Excel workbook.
package xlsx

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
	"gopkg.in/guregu/null.v3"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
	"github.com/ChrisMcGann/PeakTab/pkg/formula"
)

// Sheet names of the exported workbook.
const (
	IntensitySheet = "Intensities"
	ErrorSheet     = "Errors"
	FormulaSheet   = "Formulas"
)

// FormulaHeader is the header row of the formula sheet.
var FormulaHeader = []string{
	"Formula", "Calc m/z", "DBE", "Isotope frac",
	"C", "H", "Na", "S", "O", "N", "Cl", "Class", "Neutral mass",
}

// Write saves the intensity and error tables in wide form and the formula
// metadata to path. Null cells are left empty.
func Write(path string, intensities, errs *core.Table, meta *core.FormulaMetadata) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", IntensitySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{ErrorSheet, FormulaSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	if err := writeWide(f, IntensitySheet, intensities); err != nil {
		return err
	}
	if err := writeWide(f, ErrorSheet, errs); err != nil {
		return err
	}
	if err := writeFormulas(f, meta); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeWide(f *excelize.File, sheet string, t *core.Table) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", sheet, err)
	}

	samples := t.Samples()
	header := make([]interface{}, 0, len(samples)+1)
	header = append(header, "Formula")
	for _, s := range samples {
		header = append(header, s)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	for i, name := range t.Formulas() {
		row := make([]interface{}, 0, len(samples)+1)
		row = append(row, name)
		for _, s := range samples {
			row = append(row, cellFloat(t.Get(name, s)))
		}
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(axis, row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return sw.Flush()
}

func writeFormulas(f *excelize.File, meta *core.FormulaMetadata) error {
	sw, err := f.NewStreamWriter(FormulaSheet)
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", FormulaSheet, err)
	}

	header := make([]interface{}, len(FormulaHeader))
	for i, h := range FormulaHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write %s header: %w", FormulaSheet, err)
	}

	for i, rec := range meta.Records() {
		var mass interface{} = ""
		if comp, ok := formula.Composition(rec.Formula); ok {
			mass = comp.NeutralMass()
		}
		row := []interface{}{
			rec.Formula,
			cellFloat(rec.CalcMZ),
			cellFloat(rec.DBE),
			cellFloat(rec.IsotopeFrac),
			cellInt(rec.C),
			cellInt(rec.H),
			cellInt(rec.Na),
			cellInt(rec.S),
			cellInt(rec.O),
			cellInt(rec.N),
			cellInt(rec.Cl),
			rec.Class,
			mass,
		}
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(axis, row); err != nil {
			return fmt.Errorf("write %s row %d: %w", FormulaSheet, i+2, err)
		}
	}
	return sw.Flush()
}

func cellFloat(v null.Float) interface{} {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return ""
	}
	return v.Float64
}

func cellInt(v null.Int) interface{} {
	if !v.Valid {
		return ""
	}
	return v.Int64
}
