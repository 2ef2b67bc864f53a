package labels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "comma separated",
			file:    "labels.csv",
			content: "Sample,Group\nS1,A\nS2.xlsx,B\nS3,U\n",
		},
		{
			name:    "tab separated lower-case header",
			file:    "labels.tsv",
			content: "sample\tgroup\nS1\tA\nS2\tB\nS3\tU\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "A", got["S1"])
			assert.Equal(t, "B", got["S2"])
			assert.Equal(t, "U", got["S3"])
			assert.Len(t, got, 3)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestFromRecords(t *testing.T) {
	got := FromRecords([]*Record{
		{Sample: "S1", Group: "A"},
		{Sample: " ", Group: "B"},
		{Sample: "S1", Group: "B"},
		{Sample: "run.2024", Group: "C"},
	})
	assert.Equal(t, "B", got["S1"])
	assert.Equal(t, "C", got["run.2024"])
	assert.Len(t, got, 2)
	assert.False(t, got.Group("S9").Valid)
	assert.Equal(t, "B", got.Group("S1").String)
}
