package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/tdaseries/internal/config"
	"github.com/banshee-data/tdaseries/internal/monitoring"
	"github.com/banshee-data/tdaseries/internal/tda/features"
	"github.com/banshee-data/tdaseries/internal/tda/homology"
	"github.com/banshee-data/tdaseries/internal/tda/landscape"
	"github.com/banshee-data/tdaseries/internal/tda/pointcloud"
	"github.com/banshee-data/tdaseries/internal/tda/rips"
	"github.com/banshee-data/tdaseries/internal/timeutil"
)

// ErrInconsistentSeries indicates a series whose points differ in dimension.
var ErrInconsistentSeries = errors.New("pipeline: series points differ in dimension")

// WindowError identifies the window a stage failed on.
type WindowError struct {
	Index int
	Err   error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window %d: %v", e.Index, e.Err)
}

func (e *WindowError) Unwrap() error { return e.Err }

// Summary describes the norm column of a run. Failed windows are excluded.
type Summary struct {
	Windows  int
	Failed   int
	Positive int // rows labelled 1
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
}

// Result is the output of Run.
type Result struct {
	Table features.Table

	// Diagrams holds the diagram fed to the landscape of each window, nil
	// for failed windows. Populated only with WithDiagrams.
	Diagrams []homology.Diagram

	Summary Summary
	Elapsed time.Duration
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	clock    timeutil.Clock
	diagrams bool
}

// WithClock sets the clock used to time the run.
func WithClock(c timeutil.Clock) Option {
	return func(o *runOptions) { o.clock = c }
}

// WithDiagrams keeps the per-window diagrams in the Result.
func WithDiagrams() Option {
	return func(o *runOptions) { o.diagrams = true }
}

// Norm computes the landscape norm of one point cloud: the Rips complex of
// the cloud, its persistence over Z/pZ and the Lq norm of the landscape of
// the diagram in cfg.HomologyDimension. The diagram is returned alongside.
func Norm(cfg config.Pipeline, cloud pointcloud.Cloud) (float64, homology.Diagram, error) {
	dist, err := rips.DistanceByName(cfg.Distance)
	if err != nil {
		return 0, nil, err
	}
	cpx, err := rips.Build(cloud, rips.Options{
		Threshold: cfg.MaxEdgeLength,
		MaxDim:    cfg.MaxDimension,
		Distance:  dist,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("rips: %w", err)
	}

	field, err := homology.NewField(cfg.FieldCharacteristic)
	if err != nil {
		return 0, nil, err
	}
	pers, err := homology.Compute(cpx, field, cfg.MinPersistence)
	if err != nil {
		return 0, nil, fmt.Errorf("persistence: %w", err)
	}

	diagram := pers.Intervals(cfg.HomologyDimension)
	l, err := landscape.New(diagram)
	if err != nil {
		return 0, nil, err
	}
	return l.Norm(cfg.NormExponent), diagram, nil
}

// Run computes the feature table of series: one row per window
// [i, i+W) for i in [0, N-W). A series no longer than the window yields an
// empty table.
//
// With config.FailAbort the first window error cancels the remaining
// windows and is returned. With config.FailSkip the error is logged and the
// window gets a placeholder row with a NaN norm. Cancelling ctx stops the
// run and returns ctx.Err().
func Run(ctx context.Context, cfg config.Pipeline, series pointcloud.Cloud, opts ...Option) (*Result, error) {
	o := runOptions{clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if dim := series.Dim(); dim > 0 {
		for i, p := range series {
			if len(p) != dim {
				return nil, fmt.Errorf("point %d has %d coordinates, want %d: %w", i, len(p), dim, ErrInconsistentSeries)
			}
		}
	}

	start := o.clock.Now()
	windows := pointcloud.Windows(series, cfg.WindowSize)
	n := windows.Count()
	if n == 0 {
		monitoring.Logf("series of %d points is too short for windows of %d; no rows", len(series), cfg.WindowSize)
	}

	rows := make(features.Table, n)
	var diagrams []homology.Diagram
	if o.diagrams {
		diagrams = make([]homology.Diagram, n)
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cloud := windows.At(i)
			norm, diagram, err := Norm(cfg, cloud)
			if err != nil {
				werr := &WindowError{Index: i, Err: err}
				if cfg.OnWindowError != config.FailSkip {
					return werr
				}
				monitoring.Logf("skipping %v", werr)
				norm, diagram = math.NaN(), nil
			}
			rows[i] = features.Assemble(i, cloud.Last(), norm, windows.Label(i))
			if diagrams != nil {
				diagrams[i] = diagram
			}

			if c := done.Add(1); cfg.ProgressEvery > 0 && c%int64(cfg.ProgressEvery) == 0 {
				monitoring.Debugf("processed %d of %d windows", c, n)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Windows never scheduled cannot report a cancelled parent.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		Table:    rows,
		Diagrams: diagrams,
		Summary:  summarize(rows),
		Elapsed:  o.clock.Since(start),
	}
	monitoring.Logf("computed %d windows (%d failed) in %v", n, res.Summary.Failed, res.Elapsed)
	return res, nil
}

func summarize(rows features.Table) Summary {
	s := Summary{Windows: len(rows)}
	norms := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Label == 1 {
			s.Positive++
		}
		if r.Failed() {
			s.Failed++
			continue
		}
		norms = append(norms, r.Norm)
	}
	if len(norms) == 0 {
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(norms, nil)
	if len(norms) == 1 {
		s.StdDev = 0
	}
	s.Min, s.Max = floats.Min(norms), floats.Max(norms)
	return s
}
