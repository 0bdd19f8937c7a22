package multires

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/potts-clustering/pkg/potts"
	"github.com/gilchrisn/potts-clustering/pkg/utils"
)

// TrialMinimizer is the part of potts.Minimizer the scanner depends on
type TrialMinimizer interface {
	MinimizeTrials(s *potts.State, gamma float64, trials int) (potts.Result, error)
}

// ScanOptions configures a resolution scan
type ScanOptions struct {
	Low      float64 `validate:"gt=0"`
	High     float64 `validate:"gt=0,gtefield=Low"`
	Number   int     `validate:"min=1"` // indices per decade
	Trials   int     `validate:"min=1"`
	Workers  int     `validate:"min=0"` // 0 or 1 runs sequentially
	HistBins int     `validate:"min=2"`
	Output   string  // incremental table export; empty disables it
}

// DefaultScanOptions returns the standard scan settings
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Low:      0.01,
		High:     100,
		Number:   10,
		Trials:   10,
		Workers:  1,
		HistBins: 50,
	}
}

var validate = validator.New()

// Validate checks the options
func (o ScanOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid scan options: %w", err)
	}
	return nil
}

// RecordCallback receives every finished record together with its lowest
// energy replica.
type RecordCallback func(rec *ResolutionRecord, best *potts.State)

// Scanner minimizes replicas over a log-spaced range of resolutions
type Scanner struct {
	opts      ScanOptions
	interval  utils.LogInterval
	indexLow  int
	indexHigh int

	minimizer TrialMinimizer
	logger    zerolog.Logger
	metrics   *Metrics
	runID     string

	// OnRecord, when set, is called from the worker that finished the index
	OnRecord RecordCallback

	records  []atomic.Pointer[ResolutionRecord]
	replicas int

	copyMu  sync.Mutex // guards copies of the shared templates
	writeMu sync.Mutex // guards the output file; contended writes are skipped

	now func() time.Time
}

// NewScanner validates opts and creates a scanner. A nil metrics gets a
// private registry.
func NewScanner(opts ScanOptions, minimizer TrialMinimizer, logger zerolog.Logger, metrics *Metrics) (*Scanner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if minimizer == nil {
		return nil, fmt.Errorf("scanner needs a minimizer")
	}
	interval, err := utils.NewLogInterval(opts.Number)
	if err != nil {
		return nil, err
	}
	low, high, err := interval.Range(opts.Low, opts.High)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	runID := uuid.New().String()
	return &Scanner{
		opts:      opts,
		interval:  interval,
		indexLow:  low,
		indexHigh: high,
		minimizer: minimizer,
		logger:    logger.With().Str("run_id", runID).Logger(),
		metrics:   metrics,
		runID:     runID,
		records:   make([]atomic.Pointer[ResolutionRecord], high-low+1),
		now:       time.Now,
	}, nil
}

// IndexRange returns the inclusive range of scanned indices
func (sc *Scanner) IndexRange() (low, high int) { return sc.indexLow, sc.indexHigh }

// Gamma returns the resolution of index
func (sc *Scanner) Gamma(index int) float64 { return sc.interval.Value(index) }

// RunID identifies this scanner in logs and dumps
func (sc *Scanner) RunID() string { return sc.runID }

// Metrics returns the scanner metrics
func (sc *Scanner) Metrics() *Metrics { return sc.metrics }

// Scan minimizes copies of every template at every index in range. With
// Workers > 1 indices are consumed from a shared queue by a worker pool.
// Scan returns once every index has a record; failed indices are recorded
// as failed, never dropped. When ctx is cancelled, indices not yet started
// are recorded as failed and ctx's error is returned.
func (sc *Scanner) Scan(ctx context.Context, templates []*potts.State) error {
	if len(templates) < 2 {
		return fmt.Errorf("%w: got %d templates", ErrTooFewReplicas, len(templates))
	}
	for i, tpl := range templates {
		if tpl.N() != templates[0].N() {
			return fmt.Errorf("template %d has %d nodes, expected %d", i, tpl.N(), templates[0].N())
		}
	}

	sc.replicas = len(templates)
	for i := range sc.records {
		sc.records[i].Store(nil)
	}

	start := sc.now()
	sc.logger.Info().
		Int("index_low", sc.indexLow).
		Int("index_high", sc.indexHigh).
		Int("replicas", len(templates)).
		Int("trials", sc.opts.Trials).
		Int("workers", sc.opts.Workers).
		Msg("Starting resolution scan")

	if sc.opts.Workers <= 1 {
		for index := sc.indexLow; index <= sc.indexHigh; index++ {
			sc.process(ctx, index, templates)
		}
	} else {
		queue := make(chan int, len(sc.records))
		for index := sc.indexLow; index <= sc.indexHigh; index++ {
			queue <- index
		}
		close(queue)

		var g errgroup.Group
		for w := 0; w < sc.opts.Workers; w++ {
			g.Go(func() error {
				for index := range queue {
					sc.process(ctx, index, templates)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if sc.opts.Output != "" {
		sc.writeMu.Lock()
		err := sc.writeOutput()
		sc.writeMu.Unlock()
		if err != nil {
			sc.logger.Error().Err(err).Str("output", sc.opts.Output).Msg("Failed to write final results")
		}
	}

	failed := 0
	for i := range sc.records {
		if rec := sc.records[i].Load(); rec == nil || rec.Failed {
			failed++
		}
	}
	sc.logger.Info().
		Int("indices", len(sc.records)).
		Int("failed", failed).
		Dur("runtime", sc.now().Sub(start)).
		Msg("Resolution scan finished")

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}
	return nil
}

// process runs one index and stores its record, failed or not
func (sc *Scanner) process(ctx context.Context, index int, templates []*potts.State) {
	if err := ctx.Err(); err != nil {
		sc.store(sc.failedRecord(index, err, 0))
		return
	}

	sc.metrics.BusyWorkers.Inc()
	defer sc.metrics.BusyWorkers.Dec()

	start := time.Now()
	rec, best, err := sc.runIndexSafe(index, templates)
	elapsed := time.Since(start)
	sc.metrics.IndexDuration.Observe(elapsed.Seconds())

	if err != nil {
		sc.logger.Error().Err(err).Int("index", index).Float64("gamma", sc.Gamma(index)).Msg("Resolution index failed")
		sc.store(sc.failedRecord(index, err, elapsed))
		return
	}
	rec.Duration = elapsed
	sc.store(rec)

	sc.logger.Debug().
		Int("index", index).
		Float64("gamma", rec.Gamma).
		Float64("q", rec.Q).
		Float64("nmi", rec.In).
		Dur("runtime", elapsed).
		Msg("Resolution index finished")

	if sc.opts.Output != "" {
		sc.writeIncremental()
	}
	if sc.OnRecord != nil {
		sc.OnRecord(rec, best)
	}
}

func (sc *Scanner) runIndexSafe(index int, templates []*potts.State) (rec *ResolutionRecord, best *potts.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			sc.logger.Error().Bytes("stack", debug.Stack()).Int("index", index).Msg("Recovered panic in resolution index")
			err = fmt.Errorf("panic at index %d: %v", index, r)
		}
	}()
	return sc.RunIndex(index, templates)
}

// RunIndex minimizes a copy of every template at the gamma of index and
// compares the results. It returns the record and the lowest energy
// replica.
func (sc *Scanner) RunIndex(index int, templates []*potts.State) (*ResolutionRecord, *potts.State, error) {
	gamma := sc.Gamma(index)
	states := make([]*potts.State, len(templates))
	for i, tpl := range templates {
		// Copy draws the clone's seed from the template.
		sc.copyMu.Lock()
		s := tpl.Copy()
		sc.copyMu.Unlock()

		if _, err := sc.minimizer.MinimizeTrials(s, gamma, sc.opts.Trials); err != nil {
			return nil, nil, fmt.Errorf("replica %d at gamma %g: %w", i, gamma, err)
		}
		states[i] = s
	}

	rec, err := NewResolutionRecord(gamma, states, sc.opts.HistBins)
	if err != nil {
		return nil, nil, err
	}
	rec.Index = index
	rec.Trials = sc.opts.Trials

	best := states[0]
	for _, s := range states[1:] {
		if s.Energy(gamma) < best.Energy(gamma) {
			best = s
		}
	}
	return rec, best, nil
}

func (sc *Scanner) failedRecord(index int, err error, elapsed time.Duration) *ResolutionRecord {
	return &ResolutionRecord{
		Index:    index,
		Gamma:    sc.Gamma(index),
		Replicas: sc.replicas,
		Trials:   sc.opts.Trials,
		Duration: elapsed,
		Failed:   true,
		Err:      err,
	}
}

func (sc *Scanner) store(rec *ResolutionRecord) {
	sc.records[rec.Index-sc.indexLow].Store(rec)
	status := StatusCompleted
	if rec.Failed {
		status = StatusFailed
	}
	sc.metrics.IndicesTotal.WithLabelValues(status).Inc()
}

// writeIncremental exports the records finished so far unless another
// worker is already writing.
func (sc *Scanner) writeIncremental() {
	if !sc.writeMu.TryLock() {
		sc.metrics.IncrementalWrites.WithLabelValues(WriteSkipped).Inc()
		return
	}
	defer sc.writeMu.Unlock()

	if err := sc.writeOutput(); err != nil {
		sc.metrics.IncrementalWrites.WithLabelValues(WriteError).Inc()
		sc.logger.Warn().Err(err).Str("output", sc.opts.Output).Msg("Incremental write failed")
		return
	}
	sc.metrics.IncrementalWrites.WithLabelValues(WriteWritten).Inc()
}

// writeOutput writes the finished records to the output file. writeMu must
// be held.
func (sc *Scanner) writeOutput() error {
	return WriteFile(sc.opts.Output, sc.partial(), sc.now())
}

// Records returns the record of every index in range, in index order. An
// index that has not finished yet is nil.
func (sc *Scanner) Records() []*ResolutionRecord {
	out := make([]*ResolutionRecord, len(sc.records))
	for i := range sc.records {
		out[i] = sc.records[i].Load()
	}
	return out
}

// ErrIncomplete is returned by Aggregate when an index is missing or failed
var ErrIncomplete = errors.New("resolution scan is incomplete")

// IncompleteError lists the indices that prevent aggregation
type IncompleteError struct {
	Missing []int
	Failed  []int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: missing indices %v, failed indices %v", ErrIncomplete, e.Missing, e.Failed)
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

// Aggregate collects the records of every index in range, in index order.
// It fails with an *IncompleteError when any index is missing or failed.
func (sc *Scanner) Aggregate() (*Aggregate, error) {
	var incomplete IncompleteError
	records := sc.Records()
	for i, rec := range records {
		switch {
		case rec == nil:
			incomplete.Missing = append(incomplete.Missing, sc.indexLow+i)
		case rec.Failed:
			incomplete.Failed = append(incomplete.Failed, rec.Index)
		}
	}
	if len(incomplete.Missing) > 0 || len(incomplete.Failed) > 0 {
		return nil, &incomplete
	}
	return newAggregate(records, sc.replicas, sc.opts.Trials, sc.runID), nil
}

// partial aggregates whatever records have finished successfully
func (sc *Scanner) partial() *Aggregate {
	var done []*ResolutionRecord
	for _, rec := range sc.Records() {
		if rec != nil && !rec.Failed {
			done = append(done, rec)
		}
	}
	return newAggregate(done, sc.replicas, sc.opts.Trials, sc.runID)
}
