package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gilchrisn/potts-clustering/pkg/config"
	"github.com/gilchrisn/potts-clustering/pkg/graphs"
	"github.com/gilchrisn/potts-clustering/pkg/potts"
)

var (
	cfg        = config.NewConfig()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "potts",
	Short: "Potts model community detection",
	Long: `Detect communities by minimizing the absolute Potts model energy of a
weighted graph, at one resolution or over a log-spaced range of resolutions.

Edge list input has one "from to [weight]" edge per line; # starts a comment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile == "" {
			return nil
		}
		return cfg.LoadFromFile(configFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Int64("seed", 0, "random seed (default: current time)")
	bindFlag(rootCmd.PersistentFlags().Lookup("log-level"), "logging.level")
	bindFlag(rootCmd.PersistentFlags().Lookup("seed"), "algorithm.random_seed")

	rootCmd.AddCommand(minimizeCmd, scanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadGraph reads an edge list and converts it to an interaction matrix
func loadGraph(path string, opts potts.GraphOptions, logger zerolog.Logger) (*graphs.EdgeList, *potts.InteractionMatrix, potts.NodeIndex, error) {
	if path == "" {
		return nil, nil, potts.NodeIndex{}, fmt.Errorf("no graph given; use --graph")
	}
	el, err := graphs.ReadEdgeListFile(path)
	if err != nil {
		return nil, nil, potts.NodeIndex{}, err
	}
	if el.SelfLoops > 0 {
		logger.Warn().Int("self_loops", el.SelfLoops).Msg("Skipped self loops in edge list")
	}

	m, index, err := potts.FromGraph(el.Graph, opts)
	if err != nil {
		return nil, nil, potts.NodeIndex{}, fmt.Errorf("failed to build interaction matrix: %w", err)
	}
	if w := m.Asymmetry(); w != nil {
		logger.Warn().Int("pairs", w.Pairs).Msg(w.String())
	}

	logger.Info().
		Str("graph", path).
		Int("nodes", m.N()).
		Int("edges", el.Graph.Edges().Len()).
		Msg("Loaded graph")
	return el, m, index, nil
}

// communityLabels lists the members of every community by edge list label
func communityLabels(s *potts.State, el *graphs.EdgeList, index potts.NodeIndex) [][]string {
	var out [][]string
	for c := range s.Communities() {
		members := s.Members(c)
		labels := make([]string, len(members))
		for i, n := range members {
			labels[i] = el.Labels[index.ID(n)]
		}
		out = append(out, labels)
	}
	return out
}

func bindFlag(flag *pflag.Flag, key string) {
	if err := cfg.Viper().BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag.Name, err))
	}
}
