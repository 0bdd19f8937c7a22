package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/potts-clustering/pkg/multires"
	"github.com/gilchrisn/potts-clustering/pkg/potts"
)

var scanGraph string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a range of resolutions and compare replicas",
	Long: `Minimize independent replicas at every resolution of a log-spaced range
and report how much they agree. Plateaus of high normalized mutual
information mark resolutions with a stable community structure.

The result table goes to --output (updated as indices finish) or stdout.

Examples:
  potts scan --graph net.txt --low 0.01 --high 100 --density 10 --replicas 10
  potts scan --graph net.txt --workers 8 --output curve.txt --histograms sizes.yaml`,
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringVar(&scanGraph, "graph", "", "edge list file")
	f.Float64("low", 0.01, "lowest resolution")
	f.Float64("high", 100, "highest resolution")
	f.Int("density", 10, "resolutions per decade")
	f.Int("replicas", 10, "independent replicas per resolution")
	f.Int("trials", 10, "trials per replica")
	f.Int("workers", 1, "resolutions minimized in parallel")
	f.String("output", "", "result table file")
	f.String("histograms", "", "community size histogram YAML file")
	f.String("metrics-file", "", "write Prometheus metrics in text format to this file")

	for flag, key := range map[string]string{
		"low":          "scan.low",
		"high":         "scan.high",
		"density":      "scan.density",
		"replicas":     "scan.replicas",
		"trials":       "scan.trials",
		"workers":      "scan.workers",
		"output":       "scan.output",
		"histograms":   "scan.histograms",
		"metrics-file": "scan.metrics_file",
	} {
		bindFlag(f.Lookup(flag), key)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	logger := cfg.CreateLogger()

	_, m, _, err := loadGraph(scanGraph, settings.GraphOptions(), logger)
	if err != nil {
		return err
	}

	mz, err := potts.NewMinimizer(settings.MinimizerOptions(), logger)
	if err != nil {
		return err
	}
	sc, err := multires.NewScanner(settings.ScanOptions(), mz, logger, nil)
	if err != nil {
		return err
	}
	sc.OnRecord = func(rec *multires.ResolutionRecord, best *potts.State) {
		logger.Info().
			Int("index", rec.Index).
			Float64("gamma", rec.Gamma).
			Float64("q", rec.Q).
			Float64("nmi", rec.In).
			Int("best_q", best.Q()).
			Msg("Resolution done")
	}

	seed := uint64(settings.Algorithm.RandomSeed)
	templates := make([]*potts.State, settings.Scan.Replicas)
	for i := range templates {
		templates[i] = potts.NewState(m, seed+uint64(i))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	scanErr := sc.Scan(ctx, templates)

	if path := settings.Scan.MetricsFile; path != "" {
		if err := sc.Metrics().WriteToTextfile(path); err != nil {
			logger.Error().Err(err).Str("file", path).Msg("Failed to write metrics")
		}
	}
	if scanErr != nil {
		return scanErr
	}

	agg, err := sc.Aggregate()
	if err != nil {
		return err
	}
	if settings.Scan.Output == "" {
		if err := multires.WriteTable(os.Stdout, agg, time.Now()); err != nil {
			return err
		}
	}
	if path := settings.Scan.Histograms; path != "" {
		if err := writeHistograms(path, agg); err != nil {
			return err
		}
	}
	return nil
}

func writeHistograms(path string, agg *multires.Aggregate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create histogram file: %w", err)
	}
	if err := multires.WriteHistogramsYAML(f, agg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
