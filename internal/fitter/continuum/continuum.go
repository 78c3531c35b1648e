package continuum

import (
	"errors"
	"fmt"
	"sort"

	"nspec/internal/fitter"
	"nspec/internal/fitter/spline"
	"nspec/internal/geom"
	"nspec/internal/spectrum/model"
)

var _ fitter.Fitter = (*robust)(nil)

// Consistency factor relating the median absolute deviation to the
// standard deviation of a normal distribution.
const madScale = 1.4826

// ErrTooFewAnchors is returned when fewer than two anchors are available
// for a fit, before or after rejection.
var ErrTooFewAnchors = errors.New("continuum: at least two anchors are required")

// SplineError reports a spline solver failure, carrying the one-based
// sigma-clipping iteration at which it occurred.
type SplineError struct {
	Iteration int
	Err       error
}

func (e *SplineError) Error() string {
	return fmt.Sprintf("continuum: spline fit failed on iteration %d: %v", e.Iteration, e.Err)
}

func (e *SplineError) Unwrap() error {
	return e.Err
}

type Options struct {
	lowReject     float64
	highReject    float64
	maxIterations int
}

var defaultOptions = Options{lowReject: 3.0, highReject: 0.0, maxIterations: 5}

type Option func(*robust)

func WithLowReject(v float64) Option {
	return func(r *robust) {
		r.opts.lowReject = v
	}
}

func WithHighReject(v float64) Option {
	return func(r *robust) {
		r.opts.highReject = v
	}
}

func WithMaxIterations(n int) Option {
	return func(r *robust) {
		r.opts.maxIterations = n
	}
}

func New(opts ...Option) (*robust, error) {
	r := &robust{opts: defaultOptions}
	for _, f := range opts {
		f(r)
	}
	if r.opts.maxIterations < 1 {
		return nil, fmt.Errorf("continuum: max iterations must be at least 1, got %d", r.opts.maxIterations)
	}
	if r.opts.lowReject < 0 || r.opts.highReject < 0 {
		return nil, fmt.Errorf("continuum: reject thresholds must not be negative")
	}
	return r, nil
}

type robust struct {
	opts Options
}

// Fit runs the iterative sigma-clipped spline fit and evaluates the
// surviving spline over the full wavelength grid. The caller's anchor
// slice is never mutated; rejection happens on a sorted copy.
func (r *robust) Fit(anchors []model.Anchor, wavelength []float64) (model.Curve, *fitter.Report, error) {
	if len(anchors) < 2 {
		return nil, nil, ErrTooFewAnchors
	}

	sorted := make([]model.Anchor, len(anchors))
	copy(sorted, anchors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	xs := make([]float64, len(sorted))
	ys := make([]float64, len(sorted))
	for i := range sorted {
		xs[i] = sorted[i].X
		ys[i] = sorted[i].Y
	}

	report := &fitter.Report{}
	var residuals geom.Series
	for i := 0; i < r.opts.maxIterations; i++ {
		if len(xs) < 2 {
			break
		}
		// The rejection reference is the spline through locally
		// median-smoothed anchor values. Measuring residuals against an
		// interpolating spline of the raw values yields zero scatter and
		// can never expose an outlier.
		ref, err := referenceCurve(xs, ys)
		if err != nil {
			return nil, nil, &SplineError{Iteration: i + 1, Err: err}
		}
		report.Iterations = i + 1

		residuals = make(geom.Series, len(ys))
		for j := range ys {
			residuals[j] = ys[j] - ref[j]
		}
		sigma := madScale * residuals.MAD()

		keep := make([]bool, len(xs))
		kept := 0
		for j, res := range residuals {
			keep[j] = (r.opts.lowReject <= 0 || res >= -r.opts.lowReject*sigma) &&
				(r.opts.highReject <= 0 || res <= r.opts.highReject*sigma)
			if keep[j] {
				kept++
			}
		}

		if kept == len(xs) || kept < 2 {
			// Converged, or rejection would leave too few anchors to
			// fit; retain the set from before this iteration's mask.
			report.Converged = true
			break
		}

		report.Rejected += len(xs) - kept
		nxs := xs[:0]
		nys := ys[:0]
		for j := range keep {
			if keep[j] {
				nxs = append(nxs, xs[j])
				nys = append(nys, ys[j])
			}
		}
		xs, ys = nxs, nys
	}

	if len(xs) < 2 {
		return nil, nil, ErrTooFewAnchors
	}

	spl, err := spline.Fit(xs, ys)
	if err != nil {
		return nil, nil, &SplineError{Iteration: report.Iterations, Err: err}
	}

	report.Kept = len(xs)
	report.Scatter = residuals.Std()
	return spl.Eval(wavelength), report, nil
}

// referenceCurve fits the clipping reference: a cubic spline through the
// median-of-3 filtered anchor values, evaluated back at the anchor
// positions. Edge anchors keep their raw values.
func referenceCurve(xs, ys []float64) ([]float64, error) {
	smoothed := make([]float64, len(ys))
	copy(smoothed, ys)
	for i := 1; i < len(ys)-1; i++ {
		smoothed[i] = geom.Series(ys[i-1 : i+2]).Median()
	}
	spl, err := spline.Fit(xs, smoothed)
	if err != nil {
		return nil, err
	}
	return spl.Eval(xs), nil
}
