package peaktable

import (
	"github.com/ChrisMcGann/PeakTab/pkg/core"
)

// Load reads every valid data row of the sample table at path. File-level
// failures are returned as *core.MalformedInputError.
func Load(path string, layout Layout) ([]core.RawSampleRow, LoadStats, error) {
	src, err := Open(path)
	if err != nil {
		return nil, LoadStats{}, &core.MalformedInputError{Path: path, Reason: "cannot open", Err: err}
	}
	defer src.Close()

	reader, err := NewReader(src, path, layout)
	if err != nil {
		return nil, LoadStats{}, err
	}

	var rows []core.RawSampleRow
	for reader.Next() {
		rows = append(rows, reader.Row())
	}
	if err := reader.Err(); err != nil {
		return nil, reader.Stats(), err
	}

	return rows, reader.Stats(), nil
}
