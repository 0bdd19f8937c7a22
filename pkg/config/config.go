package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/gilchrisn/potts-clustering/pkg/multires"
	"github.com/gilchrisn/potts-clustering/pkg/potts"
)

// Config manages configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Minimizer parameters
	v.SetDefault("algorithm.gamma", 1.0)
	v.SetDefault("algorithm.trials", 1)
	v.SetDefault("algorithm.max_rounds", potts.DefaultMaxRounds)
	v.SetDefault("algorithm.neighbor_mode", string(potts.NeighborAttractive))
	v.SetDefault("algorithm.combine_mode", string(potts.CombinePairwise))
	v.SetDefault("algorithm.supernode_depth", 1)
	v.SetDefault("algorithm.check_invariants", false)
	v.SetDefault("algorithm.random_seed", time.Now().UnixNano())

	// Resolution scan
	v.SetDefault("scan.low", 0.01)
	v.SetDefault("scan.high", 100.0)
	v.SetDefault("scan.density", 10)
	v.SetDefault("scan.replicas", 10)
	v.SetDefault("scan.trials", 10)
	v.SetDefault("scan.workers", runtime.NumCPU())
	v.SetDefault("scan.hist_bins", 50)
	v.SetDefault("scan.output", "")
	v.SetDefault("scan.histograms", "")
	v.SetDefault("scan.metrics_file", "")

	// Edge list weights are similarities; negating them makes edges attractive
	v.SetDefault("graph.default_weight", 1.0)
	v.SetDefault("graph.edge_scale", -1.0)

	v.SetDefault("logging.level", "info")

	v.SetDefault("analysis.track_moves", false)
	v.SetDefault("analysis.output_file", "moves.jsonl")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Viper exposes the underlying store for flag binding
func (c *Config) Viper() *viper.Viper { return c.v }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// LogLevel returns the configured zerolog level name
func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

// AlgorithmSettings configures the minimizer
type AlgorithmSettings struct {
	Gamma           float64 `mapstructure:"gamma" validate:"gte=0"`
	Trials          int     `mapstructure:"trials" validate:"min=1"`
	MaxRounds       int     `mapstructure:"max_rounds" validate:"min=1"`
	NeighborMode    string  `mapstructure:"neighbor_mode" validate:"oneof=attractive nonzero all"`
	CombineMode     string  `mapstructure:"combine_mode" validate:"oneof=pairwise supernode none"`
	SupernodeDepth  int     `mapstructure:"supernode_depth" validate:"min=0"`
	CheckInvariants bool    `mapstructure:"check_invariants"`
	RandomSeed      int64   `mapstructure:"random_seed"`
}

// ScanSettings configures a resolution scan
type ScanSettings struct {
	Low         float64 `mapstructure:"low" validate:"gt=0"`
	High        float64 `mapstructure:"high" validate:"gtefield=Low"`
	Density     int     `mapstructure:"density" validate:"min=1"`
	Replicas    int     `mapstructure:"replicas" validate:"min=2"`
	Trials      int     `mapstructure:"trials" validate:"min=1"`
	Workers     int     `mapstructure:"workers" validate:"min=0"`
	HistBins    int     `mapstructure:"hist_bins" validate:"min=2"`
	Output      string  `mapstructure:"output"`
	Histograms  string  `mapstructure:"histograms"`
	MetricsFile string  `mapstructure:"metrics_file"`
}

// GraphSettings controls how input graphs become interaction matrices
type GraphSettings struct {
	DefaultWeight float64 `mapstructure:"default_weight"`
	EdgeScale     float64 `mapstructure:"edge_scale" validate:"ne=0"`
}

type LoggingSettings struct {
	Level string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
}

type AnalysisSettings struct {
	TrackMoves bool   `mapstructure:"track_moves"`
	OutputFile string `mapstructure:"output_file" validate:"required_if=TrackMoves true"`
}

// Settings is a validated snapshot of the configuration
type Settings struct {
	Algorithm AlgorithmSettings `mapstructure:"algorithm"`
	Scan      ScanSettings      `mapstructure:"scan"`
	Graph     GraphSettings     `mapstructure:"graph"`
	Logging   LoggingSettings   `mapstructure:"logging"`
	Analysis  AnalysisSettings  `mapstructure:"analysis"`
}

var validate = validator.New()

// Settings decodes and validates the current configuration
func (c *Config) Settings() (Settings, error) {
	var s Settings
	if err := c.v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := validate.Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// MinimizerOptions converts the algorithm section
func (s Settings) MinimizerOptions() potts.Options {
	return potts.Options{
		MaxRounds:       s.Algorithm.MaxRounds,
		NeighborMode:    potts.NeighborMode(s.Algorithm.NeighborMode),
		CombineMode:     potts.CombineMode(s.Algorithm.CombineMode),
		SupernodeDepth:  s.Algorithm.SupernodeDepth,
		CheckInvariants: s.Algorithm.CheckInvariants,
	}
}

// ScanOptions converts the scan section
func (s Settings) ScanOptions() multires.ScanOptions {
	return multires.ScanOptions{
		Low:      s.Scan.Low,
		High:     s.Scan.High,
		Number:   s.Scan.Density,
		Trials:   s.Scan.Trials,
		Workers:  s.Scan.Workers,
		HistBins: s.Scan.HistBins,
		Output:   s.Scan.Output,
	}
}

// GraphOptions converts the graph section
func (s Settings) GraphOptions() potts.GraphOptions {
	return potts.GraphOptions{
		DefaultWeight: s.Graph.DefaultWeight,
		EdgeScale:     s.Graph.EdgeScale,
	}
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "potts").Logger()
}
