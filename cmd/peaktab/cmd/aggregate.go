package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PeakTab/internal/config"
	"github.com/ChrisMcGann/PeakTab/pkg/filter"
	"github.com/ChrisMcGann/PeakTab/pkg/render"
	csvwriter "github.com/ChrisMcGann/PeakTab/pkg/writer/csv"
)

var (
	// Flags for aggregate command
	labelsFile  string
	classes     []string
	dbes        []float64
	carbons     []int64
	groupBy     string
	pointsFile  string
	plotFile    string
	chartWidth  int
	chartHeight int
)

func init() {
	addInputFlags(aggregateCmd)
	aggregateCmd.Flags().StringVarP(&labelsFile, "labels", "l", "", "Sample label file with sample and group columns (default from config)")
	aggregateCmd.Flags().StringSliceVar(&classes, "class", nil, "Heteroatom classes to keep, e.g. 'CH,O2' (default all)")
	aggregateCmd.Flags().Float64SliceVar(&dbes, "dbe", nil, "Corrected DBE values to keep, e.g. '4.5,5.5' (default all)")
	aggregateCmd.Flags().Int64SliceVar(&carbons, "carbon", nil, "Carbon numbers to keep (default all)")
	aggregateCmd.Flags().StringVarP(&groupBy, "group-by", "g", "", "Group by class, dbe or c (default from config)")
	aggregateCmd.Flags().StringVarP(&pointsFile, "out", "o", "", "Write aggregated points to a CSV file")
	aggregateCmd.Flags().StringVar(&plotFile, "plot", "", "Write a stacked bar chart PNG")
	aggregateCmd.Flags().IntVar(&chartWidth, "width", 0, "Chart width in pixels (default from config)")
	aggregateCmd.Flags().IntVar(&chartHeight, "height", 0, "Chart height in pixels (default from config)")
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Filter formulas and sum relative intensity per group",
	Long: `Normalize intensities per sample, keep the formulas matching the class, DBE
and carbon filters and sum relative intensity per parameter, sample and group.

Examples:
  # Class distribution of all formulas
  peaktab aggregate --in data/ --labels groups.csv

  # DBE distribution of the O2 class, written to CSV and plotted
  peaktab aggregate --in data/ --class O2 --group-by dbe --out o2.csv --plot o2.png`,
	RunE: runAggregate,
}

func runAggregate(c *cobra.Command, args []string) error {
	s, err := settings()
	if err != nil {
		return err
	}
	f, err := filterFromFlags(c, s)
	if err != nil {
		return err
	}

	res, err := runPipeline(c, s)
	if err != nil {
		return err
	}

	path := s.LabelsFile
	if c.Flags().Changed("labels") {
		path = labelsFile
	}
	sampleLabels, err := loadLabels(path)
	if err != nil {
		return err
	}
	for _, sample := range res.Samples {
		if _, ok := sampleLabels[sample]; !ok && sampleLabels != nil {
			fmt.Fprintf(os.Stderr, "Warning: sample %s has no group label\n", sample)
		}
	}

	points := f.Aggregate(res.Intensities, res.Metadata, sampleLabels)
	if len(points) == 0 {
		fmt.Fprintf(os.Stderr, "Warning: no formula matches the filters\n")
	}

	if pointsFile != "" {
		if err := csvwriter.WriteAggregateFile(pointsFile, points); err != nil {
			return err
		}
		fmt.Printf("Points: %s\n", pointsFile)
	} else {
		fmt.Println(pointsTable(f.GroupBy, points))
	}

	if plotFile != "" && len(points) > 0 {
		opts := render.Options{
			Title:  fmt.Sprintf("Relative intensity by %s", f.GroupBy),
			Width:  s.ChartWidth,
			Height: s.ChartHeight,
		}
		if chartWidth > 0 {
			opts.Width = chartWidth
		}
		if chartHeight > 0 {
			opts.Height = chartHeight
		}
		png, err := render.BarChart(points, opts)
		if err != nil {
			return err
		}
		if err := os.WriteFile(plotFile, png, 0o644); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		fmt.Printf("Chart: %s\n", plotFile)
	}
	return nil
}

// filterFromFlags starts from the configured filter and replaces every
// dimension given on the command line.
func filterFromFlags(c *cobra.Command, s *config.Global) (filter.Config, error) {
	f, err := s.Filter()
	if err != nil {
		return f, err
	}
	flags := c.Flags()
	if flags.Changed("class") {
		f.Classes = append([]string{}, classes...)
	}
	if flags.Changed("dbe") {
		f.DBEs = append([]float64{}, dbes...)
	}
	if flags.Changed("carbon") {
		f.Carbons = append([]int64{}, carbons...)
	}
	if flags.Changed("group-by") {
		if f.GroupBy, err = filter.ParseGroupDimension(groupBy); err != nil {
			return f, err
		}
	}
	return f, nil
}

func pointsTable(groupBy filter.GroupDimension, points []filter.Point) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{groupBy.String(), "Sample", "Group", "Relative intensity"})
	for _, p := range points {
		group := ""
		if p.Group.Valid {
			group = p.Group.String
		}
		t.AppendRow(table.Row{p.Parameter, p.Sample, group, fmt.Sprintf("%.4f", p.Intensity)})
	}
	t.SetStyle(table.StyleDefault)
	return t.Render()
}
