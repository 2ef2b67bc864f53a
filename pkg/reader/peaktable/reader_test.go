package peaktable

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
)

var metadataRows = [][]string{
	{"Peak List Report", "", "", "", "", "", ""},
	{"Instrument", "FT-ICR", "", "", "", "", ""},
	{"Polarity", "negative", "", "", "", "", ""},
	{"Acquired", "2024-05-01", "", "", "", "", ""},
	{"Operator", "lab", "", "", "", "", ""},
	{"Scan range", "150-1000", "", "", "", "", ""},
}

var header = []string{"Formula", "Meas m/z", "Calc m/z", "ppm Error", "DBE", "Mono Inty", "Isotope frac"}

func sampleTable(data ...[]string) [][]string {
	rows := append([][]string{}, metadataRows...)
	rows = append(rows, header)
	return append(rows, data...)
}

func writeCSV(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(strings.Join(r, ","))
		b.WriteString("\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func writeXLSX(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cells := make([]interface{}, len(r))
		for j, v := range r {
			cells[j] = v
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &cells))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReaderDropsHeaderEchoAndBlankRows(t *testing.T) {
	rows := sampleTable(
		[]string{"C20H30O2", "301.2173", "301.2173", "0.12", "6", "15000", "0.22"},
		[]string{"Formula", "Meas m/z", "Calc m/z", "ppm Error", "DBE", "Mono Inty", "Isotope frac"},
		[]string{"", "", "", "", "", "", ""},
		[]string{"C15H24", "203.1806", "203.1805", "-0.3", "4", "800", "0.16"},
	)

	r, err := NewReader(NewSliceSource(rows), "S1.csv", DefaultLayout())
	require.NoError(t, err)

	var got []core.RawSampleRow
	for r.Next() {
		got = append(got, r.Row())
	}
	require.NoError(t, r.Err())

	require.Len(t, got, 2)
	assert.Equal(t, core.RawSampleRow{
		Formula:     "C20H30O2",
		DBE:         "6",
		CalcMZ:      "301.2173",
		PPMError:    "0.12",
		MonoInty:    "15000",
		IsotopeFrac: "0.22",
		Extra:       "301.2173",
	}, got[0])
	assert.Equal(t, "C15H24", got[1].Formula)

	stats := r.Stats()
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 1, stats.DroppedEcho)
	assert.Equal(t, 1, stats.DroppedBlank)
	assert.Equal(t, 2, stats.Dropped())
}

func TestReaderMalformedHeader(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{
			name: "too few columns",
			rows: append(append([][]string{}, metadataRows...), []string{"Formula", "DBE", "Calc m/z"}),
		},
		{
			name: "skip offset misaligned",
			rows: append([][]string{header}, metadataRows...),
		},
		{
			name: "file ends in metadata",
			rows: metadataRows[:3],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(NewSliceSource(tt.rows), "bad.csv", DefaultLayout())
			var merr *core.MalformedInputError
			require.True(t, errors.As(err, &merr), "want MalformedInputError, got %v", err)
			assert.Equal(t, "bad.csv", merr.Path)
		})
	}
}

func TestResolveColumnsCaseInsensitive(t *testing.T) {
	hdr := []string{" formula ", "MONO INTY", "dbe", "calc m/z", "PPM error", "isotope FRAC", "x"}
	cols, err := resolveColumns(hdr, DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 0, cols.formula)
	assert.Equal(t, 1, cols.monoInty)
	assert.Equal(t, -1, cols.extra)
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "S1.csv", sampleTable(
		[]string{"C10H16", "137.1330", "137.1325", "0.5", "3", "100", "0.11"},
		[]string{"C10H16O", "153.1280", "153.1274", "0.4", "3", "50", "0.11"},
	))

	rows, stats, err := Load(path, DefaultLayout())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "C10H16", rows[0].Formula)
	assert.Equal(t, "100", rows[0].MonoInty)
	assert.Equal(t, 2, stats.Rows)
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := writeXLSX(t, dir, "S2.xlsx", sampleTable(
		[]string{"C10H16", "137.1330", "137.1325", "0.5", "3", "300", "0.11"},
		[]string{"Formula", "Meas m/z", "Calc m/z", "ppm Error", "DBE", "Mono Inty", "Isotope frac"},
	))

	rows, stats, err := Load(path, DefaultLayout())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "300", rows[0].MonoInty)
	assert.Equal(t, 1, stats.DroppedEcho)
}

func TestLoadXLSXIgnoresNumberFormats(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range sampleTable() {
		cells := make([]interface{}, len(r))
		for j, v := range r {
			cells[j] = v
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &cells))
	}
	// Instrument exports store numbers with display formats "0.00" and "#,##0".
	row := []interface{}{"C10H16", 137.1330, 137.1325, 0.123456, 3, 1234567, 0.11}
	require.NoError(t, f.SetSheetRow("Sheet1", "A8", &row))
	twoDecimals, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	require.NoError(t, err)
	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "B8", "D8", twoDecimals))
	require.NoError(t, f.SetCellStyle("Sheet1", "F8", "F8", thousands))
	path := filepath.Join(dir, "S3.xlsx")
	require.NoError(t, f.SaveAs(path))

	rows, _, err := Load(path, DefaultLayout())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "137.1325", rows[0].CalcMZ)
	assert.Equal(t, "0.123456", rows[0].PPMError)
	assert.Equal(t, "1234567", rows[0].MonoInty)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "S1.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, _, err := Load(path, DefaultLayout())
	var merr *core.MalformedInputError
	require.True(t, errors.As(err, &merr))
}

func TestDetermineDelimiter(t *testing.T) {
	semi := "a;b;c\n1;2;3\n4;5;6\n"
	assert.Equal(t, ';', DetermineDelimiter(strings.NewReader(semi), ".csv"))
	assert.Equal(t, '\t', DetermineDelimiter(strings.NewReader("abc\ndef\n"), ".tsv"))
	assert.Equal(t, ',', DetermineDelimiter(strings.NewReader("abc\ndef\n"), ".csv"))
}
