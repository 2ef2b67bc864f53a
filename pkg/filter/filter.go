// Package filter provides formula filtering and per-sample intensity aggregation
package filter

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gopkg.in/guregu/null.v3"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
)

// GroupDimension selects the formula attribute aggregated intensities are grouped by.
type GroupDimension int

const (
	ByClass GroupDimension = iota
	ByDBE
	ByCarbon
)

func (d GroupDimension) String() string {
	switch d {
	case ByClass:
		return "class"
	case ByDBE:
		return "dbe"
	case ByCarbon:
		return "c"
	}
	return fmt.Sprintf("GroupDimension(%d)", int(d))
}

// ParseGroupDimension parses "class", "dbe" or "c" (also "carbon"), case-insensitively.
func ParseGroupDimension(s string) (GroupDimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "class":
		return ByClass, nil
	case "dbe":
		return ByDBE, nil
	case "c", "carbon":
		return ByCarbon, nil
	}
	return ByClass, fmt.Errorf("invalid group dimension %q, must be class, dbe or c", s)
}

// MissingParameter labels a group whose formulas have no value for the
// grouping dimension.
const MissingParameter = "NA"

// Config holds filtering configuration. A nil filter keeps every observed
// value; an empty non-nil filter keeps nothing.
type Config struct {
	Classes []string  // Class filter
	DBEs    []float64 // corrected DBE filter
	Carbons []int64   // carbon count filter
	GroupBy GroupDimension
}

// Point is one bar segment of the grouped chart: the summed relative
// intensity of a parameter value in one sample.
type Point struct {
	Parameter string
	Sample    string
	Group     null.String
	Intensity float64
}

// matcher is a compiled Config.
type matcher struct {
	classes map[string]bool
	dbes    map[float64]bool
	carbons map[int64]bool
}

func (c Config) compile() matcher {
	var m matcher
	if c.Classes != nil {
		m.classes = make(map[string]bool, len(c.Classes))
		for _, v := range c.Classes {
			m.classes[v] = true
		}
	}
	if c.DBEs != nil {
		m.dbes = make(map[float64]bool, len(c.DBEs))
		for _, v := range c.DBEs {
			m.dbes[v] = true
		}
	}
	if c.Carbons != nil {
		m.carbons = make(map[int64]bool, len(c.Carbons))
		for _, v := range c.Carbons {
			m.carbons[v] = true
		}
	}
	return m
}

// matches checks a formula record against all three filters
func (m matcher) matches(rec core.FormulaRecord) bool {
	if m.classes != nil && !m.classes[rec.Class] {
		return false
	}
	if m.dbes != nil && (!rec.DBE.Valid || !m.dbes[rec.DBE.Float64]) {
		return false
	}
	if m.carbons != nil && (!rec.C.Valid || !m.carbons[rec.C.Int64]) {
		return false
	}
	return true
}

// Matches reports whether a formula record passes the class, DBE and carbon filters.
func (c Config) Matches(rec core.FormulaRecord) bool {
	return c.compile().matches(rec)
}

// parameter is a grouping value with its numeric sort key.
type parameter struct {
	label string
	value float64 // NaN for class labels and missing values
}

func (c Config) parameterOf(rec core.FormulaRecord) parameter {
	switch c.GroupBy {
	case ByDBE:
		if !rec.DBE.Valid {
			return parameter{label: MissingParameter, value: math.NaN()}
		}
		return parameter{label: FormatDBE(rec.DBE.Float64), value: rec.DBE.Float64}
	case ByCarbon:
		if !rec.C.Valid {
			return parameter{label: MissingParameter, value: math.NaN()}
		}
		return parameter{label: strconv.FormatInt(rec.C.Int64, 10), value: float64(rec.C.Int64)}
	}
	return parameter{label: rec.Class, value: math.NaN()}
}

// FormatDBE renders a DBE value the way it is shown as a group label.
func FormatDBE(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Normalize divides every value of a sample column by the sum of the
// column's non-null values. A column summing to zero yields NaN or Inf.
func Normalize(t *core.Table) *core.Table {
	sums := make(map[string]float64)
	for _, s := range t.Samples() {
		sum, err := stats.Sum(t.Column(s))
		if err != nil {
			sum = 0
		}
		sums[s] = sum
	}
	return t.Map(t.Name, func(sample string, v float64) float64 {
		return v / sums[sample]
	})
}

// LongRow is one non-null cell of a wide table.
type LongRow struct {
	Formula string
	Sample  string
	Value   float64
}

// Long reshapes a wide table into (Formula, Sample, Value) rows, dropping
// null cells. Rows follow the table's formula order, then sample order.
func Long(t *core.Table) []LongRow {
	samples := t.Samples()
	var out []LongRow
	for _, f := range t.Formulas() {
		for _, s := range samples {
			if v := t.Get(f, s); v.Valid {
				out = append(out, LongRow{Formula: f, Sample: s, Value: v.Float64})
			}
		}
	}
	return out
}

type groupKey struct {
	parameter string
	sample    string
	group     null.String
}

// Aggregate normalizes intensities per sample, keeps the formulas passing
// the filters, joins sample groups and sums relative intensity per
// (parameter, sample, group). Formulas removed by the filters are absent
// from the result; unlabelled samples get a null group. Points are ordered by
// parameter (numerically for DBE and C), then sample column order.
func (c Config) Aggregate(intensities *core.Table, meta *core.FormulaMetadata, labels core.SampleLabels) []Point {
	m := c.compile()

	params := make(map[string]parameter)
	for _, rec := range meta.Records() {
		if m.matches(rec) {
			params[rec.Formula] = c.parameterOf(rec)
		}
	}

	sampleOrder := make(map[string]int)
	for i, s := range intensities.Samples() {
		sampleOrder[s] = i
	}

	sums := make(map[groupKey]float64)
	keyParam := make(map[string]parameter)
	var keys []groupKey
	for _, row := range Long(Normalize(intensities)) {
		p, ok := params[row.Formula]
		if !ok {
			continue
		}
		k := groupKey{parameter: p.label, sample: row.Sample, group: labels.Group(row.Sample)}
		if _, seen := sums[k]; !seen {
			keys = append(keys, k)
			keyParam[p.label] = p
		}
		sums[k] += row.Value
	}

	sort.SliceStable(keys, func(i, j int) bool {
		pi, pj := keyParam[keys[i].parameter], keyParam[keys[j].parameter]
		if pi.label != pj.label {
			return lessParameter(pi, pj)
		}
		return sampleOrder[keys[i].sample] < sampleOrder[keys[j].sample]
	})

	out := make([]Point, 0, len(keys))
	for _, k := range keys {
		out = append(out, Point{
			Parameter: k.parameter,
			Sample:    k.sample,
			Group:     k.group,
			Intensity: sums[k],
		})
	}
	return out
}

// lessParameter orders numeric parameters by value with missing values last,
// and class labels alphabetically.
func lessParameter(a, b parameter) bool {
	an, bn := !math.IsNaN(a.value), !math.IsNaN(b.value)
	switch {
	case an && bn:
		return a.value < b.value
	case an != bn:
		return an
	}
	return a.label < b.label
}

// Options are the values observed in a metadata table, offered as filter
// choices. Each list is sorted.
type Options struct {
	Classes []string
	DBEs    []float64
	Carbons []int64
}

// ObservedOptions collects the distinct class, DBE and carbon values of meta.
func ObservedOptions(meta *core.FormulaMetadata) Options {
	classes := make(map[string]bool)
	dbes := make(map[float64]bool)
	carbons := make(map[int64]bool)
	for _, rec := range meta.Records() {
		classes[rec.Class] = true
		if rec.DBE.Valid {
			dbes[rec.DBE.Float64] = true
		}
		if rec.C.Valid {
			carbons[rec.C.Int64] = true
		}
	}

	var opt Options
	for v := range classes {
		opt.Classes = append(opt.Classes, v)
	}
	for v := range dbes {
		opt.DBEs = append(opt.DBEs, v)
	}
	for v := range carbons {
		opt.Carbons = append(opt.Carbons, v)
	}
	sort.Strings(opt.Classes)
	sort.Float64s(opt.DBEs)
	sort.Slice(opt.Carbons, func(i, j int) bool { return opt.Carbons[i] < opt.Carbons[j] })
	return opt
}
