// Package cmd provides CLI command implementations
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PeakTab/internal/config"
	"github.com/ChrisMcGann/PeakTab/pkg/pipeline"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Flags shared by the commands that run the pipeline
	inputDir string
	workers  int

	// Loaded configuration
	cfg     *config.Global
	cfgErr  error
	version = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:   "peaktab",
	Short: "PeakTab - mass spectrometry peak table processing",
	Long: `PeakTab merges per-sample peak tables exported by the instrument software
(XLSX, XLS, CSV/TSV) into formula x sample tables.

Processing steps:
- Load every sample table in a directory and drop repeated header rows
- Split into intensity, ppm error and formula metadata tables
- Decompose formulas into element counts and heteroatom classes
- Filter by class, DBE and carbon number and aggregate relative intensity`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.peaktab/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging on stderr")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() {
	cfg, cfgErr = config.Load(cfgFile)
}

// settings returns the loaded configuration or the error that prevented loading it.
func settings() (*config.Global, error) {
	if cfgErr != nil {
		return nil, fmt.Errorf("failed to load config: %w", cfgErr)
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	if !debug {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// addInputFlags registers --in and --workers on c.
func addInputFlags(c *cobra.Command) {
	c.Flags().StringVarP(&inputDir, "in", "i", "", "Directory of sample tables (default from config input_dir)")
	c.Flags().IntVar(&workers, "workers", 0, "Number of files loaded in parallel (default from config)")
}

// runPipeline discovers the sample tables of the input directory and runs
// the pipeline over them, printing a load report.
func runPipeline(c *cobra.Command, s *config.Global) (*pipeline.Result, error) {
	dir := s.InputDir
	if inputDir != "" {
		dir = inputDir
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("input directory does not exist: %s", dir)
	}

	paths, err := pipeline.Discover(dir, s.Patterns)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no sample tables found in %s", dir)
	}

	n := s.Workers
	if c.Flags().Changed("workers") {
		n = workers
	}

	fmt.Printf("Loading %d sample tables from %s...\n", len(paths), dir)
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := pipeline.Run(ctx, paths, pipeline.Options{
		Layout:  s.Layout(),
		Workers: n,
		Logger:  newLogger(),
	})
	if err != nil {
		return nil, err
	}

	for _, sk := range res.Report.Skipped {
		fmt.Fprintf(os.Stderr, "Warning: skipped %s: %v\n", sk.Path, sk.Err)
	}
	for _, w := range res.Report.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w.Warning())
	}
	if len(res.Samples) == 0 {
		return nil, fmt.Errorf("no sample table in %s could be loaded", dir)
	}

	fmt.Printf("Samples: %d\n", len(res.Samples))
	fmt.Printf("Formulas: %d\n", res.Metadata.Len())
	fmt.Printf("Rows: %d", res.Report.Rows())
	if d := res.Report.Dropped(); d > 0 {
		fmt.Printf(" (%d dropped)", d)
	}
	fmt.Println()
	return res, nil
}
