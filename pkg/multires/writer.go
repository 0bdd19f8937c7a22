package multires

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ctimeLayout matches the C library's ctime(3) output
const ctimeLayout = "Mon Jan _2 15:04:05 2006"

// TableFields names the columns of the result table
var TableFields = []string{"gammas", "qs", "Es", "entropies", "Is", "VIs", "Ins", "qmins", "n_mean"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteTable writes the resolution curve as a whitespace separated table
// with a commented header.
func WriteTable(w io.Writer, agg *Aggregate, now time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %s\n", now.Format(ctimeLayout))
	fmt.Fprintf(bw, "# replicas: %d\n", agg.Replicas)
	fmt.Fprintf(bw, "# trials per replica: %d\n", agg.Trials)
	fmt.Fprint(bw, "#")
	for i, name := range TableFields {
		if i > 0 {
			fmt.Fprint(bw, " ")
		}
		fmt.Fprint(bw, name)
	}
	fmt.Fprintln(bw)

	for i := 0; i < agg.Len(); i++ {
		fmt.Fprintf(bw, "%s %s %s %s %s %s %s %d %s\n",
			formatFloat(agg.Gammas[i]),
			formatFloat(agg.Qs[i]),
			formatFloat(agg.Es[i]),
			formatFloat(agg.Entropies[i]),
			formatFloat(agg.Is[i]),
			formatFloat(agg.VIs[i]),
			formatFloat(agg.Ins[i]),
			agg.QMins[i],
			formatFloat(agg.NMeans[i]),
		)
	}
	return bw.Flush()
}

// WriteFile writes the table to path through a temporary file and a rename,
// so readers never observe a half written table.
func WriteFile(path string, agg *Aggregate, now time.Time) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteTable(tmp, agg, now); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

type histogramEntry struct {
	Index  int       `yaml:"index"`
	Gamma  float64   `yaml:"gamma"`
	Counts []float64 `yaml:"counts"`
	Edges  []float64 `yaml:"edges"`
}

type histogramDump struct {
	RunID      string           `yaml:"run_id"`
	N          int              `yaml:"n"`
	Replicas   int              `yaml:"replicas"`
	Trials     int              `yaml:"trials"`
	Histograms []histogramEntry `yaml:"histograms"`
}

// WriteHistogramsYAML writes the log-binned community size histogram of
// every index as YAML, for external plotting.
func WriteHistogramsYAML(w io.Writer, agg *Aggregate) error {
	dump := histogramDump{
		RunID:    agg.RunID,
		N:        agg.N,
		Replicas: agg.Replicas,
		Trials:   agg.Trials,
	}
	for i := 0; i < agg.Len(); i++ {
		dump.Histograms = append(dump.Histograms, histogramEntry{
			Index:  agg.Indices[i],
			Gamma:  agg.Gammas[i],
			Counts: agg.NHists[i],
			Edges:  agg.NHistEdges[i],
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(dump); err != nil {
		return fmt.Errorf("failed to encode histograms: %w", err)
	}
	return enc.Close()
}
