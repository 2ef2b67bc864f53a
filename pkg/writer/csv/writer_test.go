package csv

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
	"github.com/ChrisMcGann/PeakTab/pkg/filter"
)

func TestWriteTable(t *testing.T) {
	tbl := core.NewTable("intensity")
	tbl.Set("C10H16", "S1", null.FloatFrom(100))
	tbl.Set("C10H16", "S2", null.FloatFrom(2.5))
	tbl.Set("C20H30O2", "S2", null.FloatFrom(7))

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl))

	want := "Formula,S1,S2\nC10H16,100,2.5\nC20H30O2,,7\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteAggregate(t *testing.T) {
	points := []filter.Point{
		{Parameter: "O2", Sample: "S1", Group: null.StringFrom("A"), Intensity: 0.5},
		{Parameter: "O2", Sample: "S2", Intensity: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAggregate(&buf, points))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "parameter,sample,group,intensity", lines[0])
	assert.Equal(t, "O2,S1,A,0.5", lines[1])
	assert.Equal(t, "O2,S2,,1", lines[2])
}

func TestWriteTableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intensity.csv")
	tbl := core.NewTable("intensity")
	tbl.Set("C10H16", "S1", null.FloatFrom(1))

	require.NoError(t, WriteTableFile(path, tbl))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Formula,S1\nC10H16,1\n", string(data))

	err = WriteTableFile(filepath.Join(t.TempDir(), "missing", "x.csv"), tbl)
	assert.Error(t, err)
}
