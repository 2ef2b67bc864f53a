package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PeakTab/internal/config"
	"github.com/ChrisMcGann/PeakTab/pkg/core"
	"github.com/ChrisMcGann/PeakTab/pkg/pipeline"
	"github.com/ChrisMcGann/PeakTab/pkg/reader/labels"
	csvwriter "github.com/ChrisMcGann/PeakTab/pkg/writer/csv"
	"github.com/ChrisMcGann/PeakTab/pkg/writer/sqlite"
	"github.com/ChrisMcGann/PeakTab/pkg/writer/xlsx"
)

var (
	// Flags for process command
	outputFile string
	outputDir  string
)

func init() {
	addInputFlags(processCmd)
	processCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output file: .db (SQLite) or .xlsx (workbook)")
	processCmd.Flags().StringVar(&outputDir, "out-dir", "", "Output directory for intensity.csv, error.csv and aggregate.csv")
	processCmd.MarkFlagsOneRequired("out", "out-dir")
	processCmd.MarkFlagsMutuallyExclusive("out", "out-dir")
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Merge sample tables and export the processed tables",
	Long: `Load every sample table of a directory, build the intensity, ppm error and
formula metadata tables and export them.

Examples:
  # Export to SQLite, including the aggregation configured in the config file
  peaktab process --in data/ --out run.db

  # Export to an Excel workbook
  peaktab process --in data/ --out run.xlsx

  # Export wide CSV tables
  peaktab process --in data/ --out-dir tables/`,
	RunE: runProcess,
}

func runProcess(c *cobra.Command, args []string) error {
	s, err := settings()
	if err != nil {
		return err
	}

	var write func(*pipeline.Result) error
	switch {
	case outputDir != "":
		write = func(res *pipeline.Result) error { return exportCSV(res, s) }
	case strings.EqualFold(filepath.Ext(outputFile), ".db"):
		write = func(res *pipeline.Result) error { return exportSQLite(res, s) }
	case strings.EqualFold(filepath.Ext(outputFile), ".xlsx"):
		write = func(res *pipeline.Result) error {
			return xlsx.Write(outputFile, res.Intensities, res.Errors, res.Metadata)
		}
	default:
		return fmt.Errorf("cannot infer output format from '%s', use .db or .xlsx", outputFile)
	}

	res, err := runPipeline(c, s)
	if err != nil {
		return err
	}

	if err := write(res); err != nil {
		return fmt.Errorf("failed to export tables: %w", err)
	}

	fmt.Printf("\nProcessing complete!\n")
	if outputDir != "" {
		fmt.Printf("Output: %s\n", outputDir)
	} else {
		fmt.Printf("Output: %s\n", outputFile)
	}
	return nil
}

func exportSQLite(res *pipeline.Result, s *config.Global) error {
	sampleLabels, err := loadLabels(s.LabelsFile)
	if err != nil {
		return err
	}
	f, err := s.Filter()
	if err != nil {
		return err
	}

	writer, err := sqlite.NewWriter(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	if err := writer.WriteSamples(res.Samples, sampleLabels); err != nil {
		return err
	}
	if err := writer.WriteFormulas(res.Metadata); err != nil {
		return err
	}
	if err := writer.WriteIntensities(res.Intensities); err != nil {
		return err
	}
	if err := writer.WriteErrors(res.Errors); err != nil {
		return err
	}
	if err := writer.WriteAggregate(f.GroupBy, f.Aggregate(res.Intensities, res.Metadata, sampleLabels)); err != nil {
		return err
	}

	if err := writer.Finalize(len(res.Samples), res.Metadata.Len()); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}
	fmt.Printf("Run ID: %s\n", writer.RunID())
	return nil
}

func exportCSV(res *pipeline.Result, s *config.Global) error {
	sampleLabels, err := loadLabels(s.LabelsFile)
	if err != nil {
		return err
	}
	f, err := s.Filter()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := csvwriter.WriteTableFile(filepath.Join(outputDir, "intensity.csv"), res.Intensities); err != nil {
		return err
	}
	if err := csvwriter.WriteTableFile(filepath.Join(outputDir, "error.csv"), res.Errors); err != nil {
		return err
	}
	points := f.Aggregate(res.Intensities, res.Metadata, sampleLabels)
	return csvwriter.WriteAggregateFile(filepath.Join(outputDir, "aggregate.csv"), points)
}

// loadLabels reads the sample label file; an empty path yields no labels.
func loadLabels(path string) (core.SampleLabels, error) {
	if path == "" {
		return nil, nil
	}
	l, err := labels.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load sample labels: %w", err)
	}
	fmt.Printf("Loaded %d sample labels\n", len(l))
	return l, nil
}
