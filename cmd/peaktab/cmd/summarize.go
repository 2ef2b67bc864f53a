package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
	"github.com/ChrisMcGann/PeakTab/pkg/filter"
	"github.com/ChrisMcGann/PeakTab/pkg/pipeline"
)

func init() {
	addInputFlags(summarizeCmd)
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the sample tables of a directory",
	Long: `Print per-sample statistics (formula count, intensity and ppm error
distribution) and the class, DBE and carbon values available as filters.`,
	RunE: func(c *cobra.Command, args []string) error {
		s, err := settings()
		if err != nil {
			return err
		}
		res, err := runPipeline(c, s)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(sampleStatsTable(res))
		fmt.Println(optionsTable(filter.ObservedOptions(res.Metadata)))
		return nil
	},
}

// SampleStats describes one sample column.
type SampleStats struct {
	Sample          string
	Formulas        int
	TotalIntensity  float64
	MedianIntensity float64
	MaxIntensity    float64
	MeanPPMError    float64
	MaxAbsPPMError  float64
}

func summarizeSample(res *pipeline.Result, sample string) SampleStats {
	inty := res.Intensities.Column(sample)
	errs := res.Errors.Column(sample)

	st := SampleStats{Sample: sample, Formulas: len(inty)}
	st.TotalIntensity, _ = stats.Sum(inty)
	st.MedianIntensity, _ = stats.Median(inty)
	st.MaxIntensity, _ = stats.Max(inty)
	st.MeanPPMError, _ = stats.Mean(errs)

	abs := make([]float64, len(errs))
	for i, v := range errs {
		if v < 0 {
			v = -v
		}
		abs[i] = v
	}
	st.MaxAbsPPMError, _ = stats.Max(abs)
	return st
}

func sampleStatsTable(res *pipeline.Result) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Sample", "Formulas", "Total inty", "Median inty", "Max inty", "Mean ppm", "Max |ppm|"})
	for _, sample := range res.Samples {
		st := summarizeSample(res, sample)
		t.AppendRow(table.Row{
			st.Sample,
			st.Formulas,
			fmt.Sprintf("%.4g", st.TotalIntensity),
			fmt.Sprintf("%.4g", st.MedianIntensity),
			fmt.Sprintf("%.4g", st.MaxIntensity),
			fmt.Sprintf("%.3f", core.RoundFloat(st.MeanPPMError, 3)),
			fmt.Sprintf("%.3f", core.RoundFloat(st.MaxAbsPPMError, 3)),
		})
	}
	t.SetStyle(table.StyleDefault)
	return t.Render()
}

func optionsTable(opt filter.Options) string {
	dbes := make([]string, len(opt.DBEs))
	for i, v := range opt.DBEs {
		dbes[i] = filter.FormatDBE(v)
	}
	carbons := make([]string, len(opt.Carbons))
	for i, v := range opt.Carbons {
		carbons[i] = strconv.FormatInt(v, 10)
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Filter", "Values", "Observed"})
	t.AppendRow(table.Row{"class", len(opt.Classes), strings.Join(opt.Classes, " ")})
	t.AppendRow(table.Row{"dbe", len(dbes), strings.Join(dbes, " ")})
	t.AppendRow(table.Row{"c", len(carbons), strings.Join(carbons, " ")})
	t.SetStyle(table.StyleDefault)
	return t.Render()
}
