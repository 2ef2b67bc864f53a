package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
	"github.com/ChrisMcGann/PeakTab/pkg/filter"
	"github.com/ChrisMcGann/PeakTab/pkg/formula"
)

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")

	intensities := core.NewTable("intensity")
	intensities.Set("C20H30O2", "S1", null.FloatFrom(100))
	intensities.Set("C20H30O2", "S2", null.Float{})
	errs := core.NewTable("error")
	errs.Set("C20H30O2", "S1", null.FloatFrom(0.2))

	raw := core.NewFormulaMetadata()
	raw.Add(core.FormulaRecord{Formula: "C20H30O2", DBE: null.FloatFrom(6), CalcMZ: null.FloatFrom(301.2173)})
	meta, _ := formula.DecomposeAll(raw)
	labels := core.SampleLabels{"S1": "A"}

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NotEmpty(t, w.RunID())
	require.NoError(t, w.WriteSamples(intensities.Samples(), labels))
	require.NoError(t, w.WriteFormulas(meta))
	require.NoError(t, w.WriteIntensities(intensities))
	require.NoError(t, w.WriteErrors(errs))
	points := filter.Config{}.Aggregate(intensities, meta, labels)
	require.NoError(t, w.WriteAggregate(filter.ByClass, points))
	require.NoError(t, w.Finalize(2, meta.Len()))
	require.NoError(t, w.Close(), "Close after Finalize is a no-op")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM IntensityTable`).Scan(&count))
	assert.Equal(t, 1, count, "null cells are not exported")

	var dbe float64
	var class string
	var o int
	var mass float64
	require.NoError(t, db.QueryRow(`SELECT DBE, Class, O, NeutralMass FROM FormulaTable WHERE Formula = ?`, "C20H30O2").
		Scan(&dbe, &class, &o, &mass))
	assert.Equal(t, 5.5, dbe)
	assert.Equal(t, "O2", class)
	assert.Equal(t, 2, o)
	assert.InDelta(t, 302.2246, mass, 0.001)

	var group sql.NullString
	require.NoError(t, db.QueryRow(`SELECT SampleGroup FROM SampleTable WHERE Sample = ?`, "S2").Scan(&group))
	assert.False(t, group.Valid)

	var runID string
	var samples int
	require.NoError(t, db.QueryRow(`SELECT RunId, Samples FROM RunTable`).Scan(&runID, &samples))
	assert.Equal(t, w.RunID(), runID)
	assert.Equal(t, 2, samples)

	var agg float64
	require.NoError(t, db.QueryRow(`SELECT Intensity FROM AggregateTable WHERE Sample = ?`, "S1").Scan(&agg))
	assert.Equal(t, 1.0, agg)
}

func TestCloseDiscardsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteSamples([]string{"S1"}, nil))
	require.NoError(t, w.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM SampleTable`).Scan(&count))
	assert.Equal(t, 0, count)
}
