package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/PeakTab/pkg/filter"
	"github.com/ChrisMcGann/PeakTab/pkg/pipeline"
	"github.com/ChrisMcGann/PeakTab/pkg/reader/peaktable"
)

// EnvPrefix prefixes every environment override, e.g. PEAKTAB_WORKERS.
const EnvPrefix = "PEAKTAB"

// Columns names the header cells of a sample table.
type Columns struct {
	Formula     string `mapstructure:"formula" yaml:"formula"`
	DBE         string `mapstructure:"dbe" yaml:"dbe"`
	CalcMZ      string `mapstructure:"calc_mz" yaml:"calc_mz"`
	PPMError    string `mapstructure:"ppm_error" yaml:"ppm_error"`
	MonoInty    string `mapstructure:"mono_inty" yaml:"mono_inty"`
	IsotopeFrac string `mapstructure:"isotope_frac" yaml:"isotope_frac"`
	Extra       string `mapstructure:"extra" yaml:"extra"`
}

// Global configuration structure.
type Global struct {
	InputDir   string   `mapstructure:"input_dir" yaml:"input_dir"`
	Patterns   []string `mapstructure:"patterns" yaml:"patterns"`
	SkipRows   int      `mapstructure:"skip_rows" yaml:"skip_rows"`
	Columns    Columns  `mapstructure:"columns" yaml:"columns"`
	LabelsFile string   `mapstructure:"labels_file" yaml:"labels_file"`
	Workers    int      `mapstructure:"workers" yaml:"workers"`

	// Aggregation defaults; empty filters keep every observed value
	Classes     []string  `mapstructure:"classes" yaml:"classes"`
	DBE         []float64 `mapstructure:"dbe" yaml:"dbe"`
	Carbon      []int64   `mapstructure:"carbon" yaml:"carbon"`
	GroupBy     string    `mapstructure:"group_by" yaml:"group_by"`
	ChartWidth  int       `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int       `mapstructure:"chart_height" yaml:"chart_height"`
}

// Default returns the built-in configuration.
func Default() *Global {
	l := peaktable.DefaultLayout()
	return &Global{
		InputDir: ".",
		Patterns: append([]string(nil), pipeline.DefaultPatterns...),
		SkipRows: l.SkipRows,
		Columns: Columns{
			Formula:     l.Formula,
			DBE:         l.DBE,
			CalcMZ:      l.CalcMZ,
			PPMError:    l.PPMError,
			MonoInty:    l.MonoInty,
			IsotopeFrac: l.IsotopeFrac,
			Extra:       l.Extra,
		},
		Workers:     1,
		Classes:     []string{},
		DBE:         []float64{},
		Carbon:      []int64{},
		GroupBy:     filter.ByClass.String(),
		ChartWidth:  1600,
		ChartHeight: 900,
	}
}

// DefaultPath returns ~/.peaktab/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".peaktab", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.peaktab/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (including a .env file in the working directory) > config
// file > defaults. An explicit cfgFile must exist; the default file is optional.
func Load(cfgFile string) (*Global, error) {
	// optional .env; variables already set in the environment win
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("patterns", d.Patterns)
	v.SetDefault("skip_rows", d.SkipRows)
	v.SetDefault("columns.formula", d.Columns.Formula)
	v.SetDefault("columns.dbe", d.Columns.DBE)
	v.SetDefault("columns.calc_mz", d.Columns.CalcMZ)
	v.SetDefault("columns.ppm_error", d.Columns.PPMError)
	v.SetDefault("columns.mono_inty", d.Columns.MonoInty)
	v.SetDefault("columns.isotope_frac", d.Columns.IsotopeFrac)
	v.SetDefault("columns.extra", d.Columns.Extra)
	v.SetDefault("labels_file", "")
	v.SetDefault("workers", d.Workers)
	v.SetDefault("classes", d.Classes)
	v.SetDefault("dbe", d.DBE)
	v.SetDefault("carbon", d.Carbon)
	v.SetDefault("group_by", d.GroupBy)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else if path, err := DefaultPath(); err == nil {
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges.
func (c *Global) Validate() error {
	if c.SkipRows < 0 {
		return fmt.Errorf("skip_rows must not be negative, got %d", c.SkipRows)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := filter.ParseGroupDimension(c.GroupBy); err != nil {
		return fmt.Errorf("group_by: %w", err)
	}
	return nil
}

// Layout returns the sample table layout described by the configuration.
func (c *Global) Layout() peaktable.Layout {
	return peaktable.Layout{
		SkipRows:    c.SkipRows,
		Formula:     c.Columns.Formula,
		DBE:         c.Columns.DBE,
		CalcMZ:      c.Columns.CalcMZ,
		PPMError:    c.Columns.PPMError,
		MonoInty:    c.Columns.MonoInty,
		IsotopeFrac: c.Columns.IsotopeFrac,
		Extra:       c.Columns.Extra,
	}
}

// Filter returns the configured aggregation. An empty list in the
// configuration means no restriction on that dimension.
func (c *Global) Filter() (filter.Config, error) {
	groupBy, err := filter.ParseGroupDimension(c.GroupBy)
	if err != nil {
		return filter.Config{}, err
	}
	cfg := filter.Config{GroupBy: groupBy}
	if len(c.Classes) > 0 {
		cfg.Classes = c.Classes
	}
	if len(c.DBE) > 0 {
		cfg.DBEs = c.DBE
	}
	if len(c.Carbon) > 0 {
		cfg.Carbons = c.Carbon
	}
	return cfg, nil
}
