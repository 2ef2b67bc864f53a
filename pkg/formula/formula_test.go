package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
)

func n(v int64) null.Int { return null.IntFrom(v) }

func TestDecompose(t *testing.T) {
	tests := []struct {
		name      string
		formula   string
		want      Counts
		wantClass string
		parsed    bool
	}{
		{
			name:      "oxygen class",
			formula:   "C20H30O2",
			want:      Counts{C: n(20), H: n(30), Na: n(1), S: n(1), O: n(2), N: n(1), Cl: n(1)},
			wantClass: "O2",
			parsed:    true,
		},
		{
			name:      "hydrocarbon",
			formula:   "C15H24",
			want:      Counts{C: n(15), H: n(24), Na: n(1), S: n(1), O: n(1), N: n(1), Cl: n(1)},
			wantClass: "CH",
			parsed:    true,
		},
		{
			name:      "bare sulfur token",
			formula:   "C10H10S",
			want:      Counts{C: n(10), H: n(10), Na: n(1), S: n(1), O: n(1), N: n(1), Cl: n(1)},
			wantClass: "S",
			parsed:    true,
		},
		{
			name:      "nitrogen and oxygen",
			formula:   "C12H9N1O3",
			want:      Counts{C: n(12), H: n(9), Na: n(1), S: n(1), O: n(3), N: n(1), Cl: n(1)},
			wantClass: "N1O3",
			parsed:    true,
		},
		{
			name:      "sodium is not nitrogen",
			formula:   "C8H7Na1O2",
			want:      Counts{C: n(8), H: n(7), Na: n(1), S: n(1), O: n(2), N: n(1), Cl: n(1)},
			wantClass: "Na1O2",
			parsed:    true,
		},
		{
			name:      "chlorine class",
			formula:   "C6H5Cl2O1",
			want:      Counts{C: n(6), H: n(5), Na: n(1), S: n(1), O: n(1), N: n(1), Cl: n(2)},
			wantClass: "Cl2O1",
			parsed:    true,
		},
		{
			name:      "count-less carbon is null",
			formula:   "CH4",
			want:      Counts{C: null.Int{}, H: n(4), Na: n(1), S: n(1), O: n(1), N: n(1), Cl: n(1)},
			wantClass: "CH",
			parsed:    true,
		},
		{
			name:      "no element tokens",
			formula:   "unknown",
			want:      Counts{C: null.Int{}, H: null.Int{}, Na: n(1), S: n(1), O: n(1), N: n(1), Cl: n(1)},
			wantClass: "CH",
			parsed:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decompose(tt.formula)
			assert.Equal(t, tt.want, got.Counts)
			assert.Equal(t, tt.wantClass, got.Class)
			assert.Equal(t, tt.parsed, got.Parsed)
		})
	}
}

func TestDecomposeDeterministic(t *testing.T) {
	for _, f := range []string{"C20H30O2", "C15H24", "C6H5Cl2O1S", "", "xyz"} {
		assert.Equal(t, Decompose(f), Decompose(f), f)
	}
}

func TestCorrectDBE(t *testing.T) {
	for _, v := range []float64{0, 5, 4.5, -1, 12.25} {
		got := CorrectDBE(null.FloatFrom(v))
		require.True(t, got.Valid)
		assert.Equal(t, v-0.5, got.Float64)
	}
	assert.False(t, CorrectDBE(null.Float{}).Valid)
}

func TestDecomposeAll(t *testing.T) {
	meta := core.NewFormulaMetadata()
	meta.Add(core.FormulaRecord{Formula: "C20H30O2", DBE: null.FloatFrom(5), CalcMZ: null.FloatFrom(301.2173)})
	meta.Add(core.FormulaRecord{Formula: "???", DBE: null.FloatFrom(1)})

	out, warnings := DecomposeAll(meta)
	require.Equal(t, 2, out.Len())
	require.Len(t, warnings, 1)
	assert.Equal(t, core.UnparseableFormulaWarning{Formula: "???"}, warnings[0])

	rec, ok := out.Get("C20H30O2")
	require.True(t, ok)
	assert.Equal(t, 4.5, rec.DBE.Float64)
	assert.Equal(t, "O2", rec.Class)
	assert.Equal(t, int64(20), rec.C.Int64)
	assert.True(t, rec.Decomposed)
	assert.Equal(t, 301.2173, rec.CalcMZ.Float64)

	// the input table is left untouched
	orig, _ := meta.Get("C20H30O2")
	assert.Equal(t, 5.0, orig.DBE.Float64)

	again, warnings := DecomposeAll(out)
	assert.Empty(t, warnings)
	assert.Equal(t, out.Records(), again.Records())
}

func TestComposition(t *testing.T) {
	tests := []struct {
		formula string
		want    core.Composition
		ok      bool
	}{
		{"C20H30O2", core.Composition{C: 20, H: 30, O: 2}, true},
		{"CH4", core.Composition{C: 1, H: 4}, true},
		{"C10H10S", core.Composition{C: 10, H: 10, S: 1}, true},
		{"C8H7Na1O2", core.Composition{C: 8, H: 7, Na: 1, O: 2}, true},
		{"H2O", core.Composition{}, false},
		{"unknown", core.Composition{}, false},
	}
	for _, tt := range tests {
		got, ok := Composition(tt.formula)
		assert.Equal(t, tt.ok, ok, tt.formula)
		assert.Equal(t, tt.want, got, tt.formula)
	}
}
