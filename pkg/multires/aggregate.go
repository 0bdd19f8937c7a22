package multires

// Aggregate is the resolution curve of a scan: one entry per index, in
// ascending index order, for every field of ResolutionRecord.
type Aggregate struct {
	RunID    string
	N        int
	Replicas int
	Trials   int

	Indices   []int
	Gammas    []float64
	Qs        []float64
	QStds     []float64
	QMins     []int
	Es        []float64
	Entropies []float64
	Is        []float64
	VIs       []float64
	Ins       []float64
	NMeans    []float64

	NHists     [][]float64
	NHistEdges [][]float64
}

// newAggregate assembles records already sorted by index
func newAggregate(records []*ResolutionRecord, replicas, trials int, runID string) *Aggregate {
	agg := &Aggregate{
		RunID:    runID,
		Replicas: replicas,
		Trials:   trials,
	}
	for _, rec := range records {
		if agg.N == 0 {
			agg.N = rec.N
		}
		agg.Indices = append(agg.Indices, rec.Index)
		agg.Gammas = append(agg.Gammas, rec.Gamma)
		agg.Qs = append(agg.Qs, rec.Q)
		agg.QStds = append(agg.QStds, rec.QStd)
		agg.QMins = append(agg.QMins, rec.QMin)
		agg.Es = append(agg.Es, rec.E)
		agg.Entropies = append(agg.Entropies, rec.Entropy)
		agg.Is = append(agg.Is, rec.I)
		agg.VIs = append(agg.VIs, rec.VI)
		agg.Ins = append(agg.Ins, rec.In)
		agg.NMeans = append(agg.NMeans, rec.NMean)
		agg.NHists = append(agg.NHists, rec.NHist)
		agg.NHistEdges = append(agg.NHistEdges, rec.NHistEdges)
	}
	return agg
}

// Len returns the number of indices held
func (a *Aggregate) Len() int { return len(a.Indices) }
