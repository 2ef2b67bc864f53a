// Package sqlite provides SQLite database export of processed peak tables
package sqlite

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/guregu/null.v3"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
	"github.com/ChrisMcGann/PeakTab/pkg/filter"
	"github.com/ChrisMcGann/PeakTab/pkg/formula"
)

const (
	// Date format for RunTable (ISO 8601)
	runDateFormat = "2006-01-02T15:04:05Z07:00"
)

// Writer handles writing processed tables to an SQLite database file
type Writer struct {
	db         *sql.DB
	tx         *sql.Tx
	outputPath string
	runID      string
	closed     bool
}

// NewWriter creates a new SQLite writer. All rows are written in a single
// transaction that is committed by Finalize.
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		runID:      uuid.NewString(),
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	w.tx, err = db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return w, nil
}

// RunID returns the identifier stamped on this export.
func (w *Writer) RunID() string {
	return w.runID
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		CreationDate TEXT,
		Samples INTEGER,
		Formulas INTEGER
	);

	CREATE TABLE IF NOT EXISTS SampleTable (
		Sample TEXT PRIMARY KEY,
		SampleGroup TEXT
	);

	CREATE TABLE IF NOT EXISTS FormulaTable (
		Formula TEXT PRIMARY KEY,
		CalcMZ DOUBLE,
		DBE DOUBLE,
		IsotopeFrac DOUBLE,
		C INTEGER,
		H INTEGER,
		Na INTEGER,
		S INTEGER,
		O INTEGER,
		N INTEGER,
		Cl INTEGER,
		Class TEXT,
		NeutralMass DOUBLE,
		HC DOUBLE,
		OC DOUBLE
	);

	CREATE TABLE IF NOT EXISTS IntensityTable (
		Formula TEXT REFERENCES FormulaTable(Formula),
		Sample TEXT REFERENCES SampleTable(Sample),
		Intensity DOUBLE,
		PRIMARY KEY (Formula, Sample)
	);

	CREATE TABLE IF NOT EXISTS ErrorTable (
		Formula TEXT REFERENCES FormulaTable(Formula),
		Sample TEXT REFERENCES SampleTable(Sample),
		PPMError DOUBLE,
		PRIMARY KEY (Formula, Sample)
	);

	CREATE TABLE IF NOT EXISTS AggregateTable (
		GroupBy TEXT,
		Parameter TEXT,
		Sample TEXT,
		SampleGroup TEXT,
		Intensity DOUBLE
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// WriteSamples writes the sample list with their group labels
func (w *Writer) WriteSamples(samples []string, labels core.SampleLabels) error {
	stmt, err := w.tx.Prepare(`INSERT OR REPLACE INTO SampleTable (Sample, SampleGroup) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.Exec(s, nullString(labels.Group(s))); err != nil {
			return fmt.Errorf("failed to insert sample %s: %w", s, err)
		}
	}
	return nil
}

// WriteFormulas writes the formula metadata with derived composition values
func (w *Writer) WriteFormulas(meta *core.FormulaMetadata) error {
	stmt, err := w.tx.Prepare(`
		INSERT INTO FormulaTable (
			Formula, CalcMZ, DBE, IsotopeFrac, C, H, Na, S, O, N, Cl,
			Class, NeutralMass, HC, OC
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare formula statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range meta.Records() {
		var mass, hc, oc interface{}
		if comp, ok := formula.Composition(rec.Formula); ok {
			mass = comp.NeutralMass()
			hc = finite(comp.HC())
			oc = finite(comp.OC())
		}

		_, err := stmt.Exec(
			rec.Formula,
			nullFloat(rec.CalcMZ),
			nullFloat(rec.DBE),
			nullFloat(rec.IsotopeFrac),
			nullInt(rec.C),
			nullInt(rec.H),
			nullInt(rec.Na),
			nullInt(rec.S),
			nullInt(rec.O),
			nullInt(rec.N),
			nullInt(rec.Cl),
			rec.Class,
			mass,
			hc,
			oc,
		)
		if err != nil {
			return fmt.Errorf("failed to insert formula %s: %w", rec.Formula, err)
		}
	}
	return nil
}

// WriteIntensities writes the intensity table in long form; null cells are omitted
func (w *Writer) WriteIntensities(t *core.Table) error {
	return w.writeLong(`INSERT INTO IntensityTable (Formula, Sample, Intensity) VALUES (?, ?, ?)`, t)
}

// WriteErrors writes the ppm error table in long form; null cells are omitted
func (w *Writer) WriteErrors(t *core.Table) error {
	return w.writeLong(`INSERT INTO ErrorTable (Formula, Sample, PPMError) VALUES (?, ?, ?)`, t)
}

func (w *Writer) writeLong(query string, t *core.Table) error {
	stmt, err := w.tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare %s statement: %w", t.Name, err)
	}
	defer stmt.Close()

	for _, row := range filter.Long(t) {
		if _, err := stmt.Exec(row.Formula, row.Sample, finite(row.Value)); err != nil {
			return fmt.Errorf("failed to insert %s value (%s, %s): %w", t.Name, row.Formula, row.Sample, err)
		}
	}
	return nil
}

// WriteAggregate writes the points of one aggregation
func (w *Writer) WriteAggregate(groupBy filter.GroupDimension, points []filter.Point) error {
	stmt, err := w.tx.Prepare(`
		INSERT INTO AggregateTable (GroupBy, Parameter, Sample, SampleGroup, Intensity)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare aggregate statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(groupBy.String(), p.Parameter, p.Sample, nullString(p.Group), finite(p.Intensity)); err != nil {
			return fmt.Errorf("failed to insert aggregate point: %w", err)
		}
	}
	return nil
}

// Finalize writes the run record, commits and closes the database
func (w *Writer) Finalize(samples, formulas int) error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.tx.Exec(`
		INSERT INTO RunTable (RunId, CreationDate, Samples, Formulas)
		VALUES (?, ?, ?, ?)
	`, w.runID, time.Now().UTC().Format(runDateFormat), samples, formulas)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit: %w", err)
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close discards uncommitted rows and closes the database. It is a no-op
// after Finalize.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.tx.Rollback()
	return w.db.Close()
}

func nullFloat(v null.Float) interface{} {
	if !v.Valid {
		return nil
	}
	return finite(v.Float64)
}

func nullInt(v null.Int) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Int64
}

func nullString(v null.String) interface{} {
	if !v.Valid {
		return nil
	}
	return v.String
}

// finite maps NaN and Inf to NULL.
func finite(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
