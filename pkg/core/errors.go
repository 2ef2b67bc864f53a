package core

import "fmt"

// MalformedInputError reports a sample file that cannot be parsed into the
// expected column layout. It is fatal for that file only.
type MalformedInputError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed input %s: %s", e.Path, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Warning is a non-fatal condition surfaced in the run report.
type Warning interface {
	Warning() string
}

// AmbiguousKeyWarning reports a duplicate (Formula, Sample) pair. The last
// value read wins.
type AmbiguousKeyWarning struct {
	Formula string
	Sample  string
	Table   string
}

func (w AmbiguousKeyWarning) Warning() string {
	return fmt.Sprintf("duplicate key (%s, %s) in %s table, last value kept", w.Formula, w.Sample, w.Table)
}

// UnparseableFormulaWarning reports a formula without any element token. The
// row is kept with null C and H counts.
type UnparseableFormulaWarning struct {
	Formula string
}

func (w UnparseableFormulaWarning) Warning() string {
	return fmt.Sprintf("formula %q has no element tokens", w.Formula)
}
