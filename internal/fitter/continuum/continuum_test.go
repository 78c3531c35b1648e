package continuum

import (
	"errors"
	"math"
	"testing"

	"nspec/internal/fitter/spline"
	"nspec/internal/spectrum/model"

	"github.com/davecgh/go-spew/spew"
)

func anchorsOf(points ...[2]float64) []model.Anchor {
	anchors := make([]model.Anchor, 0, len(points))
	for _, p := range points {
		anchors = append(anchors, model.NewAnchor("test-spectrum", p[0], p[1]))
	}
	return anchors
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		opts        []Option
		expectedErr bool
	}{
		{name: "defaults", opts: nil, expectedErr: false},
		{name: "zero_iterations", opts: []Option{WithMaxIterations(0)}, expectedErr: true},
		{name: "negative_low_reject", opts: []Option{WithLowReject(-1)}, expectedErr: true},
		{name: "negative_high_reject", opts: []Option{WithHighReject(-1)}, expectedErr: true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(test.opts...)
			if (err != nil) != test.expectedErr {
				t.Errorf("creating the fitter, err got: %v, expected error: %v", err, test.expectedErr)
			}
		})
	}
}

func TestFit_TooFewAnchors(t *testing.T) {
	t.Parallel()
	f, err := New()
	if err != nil {
		t.Fatalf("creating the fitter, err got: %v, expected: nil", err)
	}
	_, _, err = f.Fit(anchorsOf([2]float64{100, 1}), []float64{100, 200})
	if !errors.Is(err, ErrTooFewAnchors) {
		t.Errorf("fitting one anchor, err got: %v, expected: %v", err, ErrTooFewAnchors)
	}
}

func TestFit_DuplicateAnchorX(t *testing.T) {
	t.Parallel()
	f, err := New()
	if err != nil {
		t.Fatalf("creating the fitter, err got: %v, expected: nil", err)
	}
	anchors := anchorsOf([2]float64{100, 1}, [2]float64{100, 2}, [2]float64{200, 3})
	_, _, err = f.Fit(anchors, []float64{100, 150, 200})

	var splineErr *SplineError
	if !errors.As(err, &splineErr) {
		t.Fatalf("fitting duplicate anchors, err got: %v, expected a spline error", err)
	}
	if splineErr.Iteration != 1 {
		t.Errorf("the failing iteration got: %v, expected: %v", splineErr.Iteration, 1)
	}
	if !errors.Is(err, spline.ErrNotIncreasing) {
		t.Errorf("unwrapping the spline error got: %v, expected: %v", err, spline.ErrNotIncreasing)
	}
}

func TestFit_RejectsAbsorptionOutlier(t *testing.T) {
	t.Parallel()
	f, err := New(WithLowReject(3), WithHighReject(0), WithMaxIterations(5))
	if err != nil {
		t.Fatalf("creating the fitter, err got: %v, expected: nil", err)
	}

	anchors := anchorsOf(
		[2]float64{100, 1.0},
		[2]float64{200, 1.05},
		[2]float64{300, 0.4},
		[2]float64{400, 0.95},
		[2]float64{500, 1.0},
	)
	wavelength := []float64{100, 200, 300, 400, 500}

	curve, report, err := f.Fit(anchors, wavelength)
	if err != nil {
		t.Fatalf("fitting the anchors, err got: %v, expected: nil", err)
	}
	if report.Rejected != 1 || report.Kept != 4 || report.Iterations != 2 || !report.Converged {
		t.Errorf("the fit report is incorrect: %s", spew.Sdump(report))
	}
	if len(curve) != len(wavelength) {
		t.Fatalf("the curve length got: %v, expected: %v", len(curve), len(wavelength))
	}
	// Surviving anchors are interpolated exactly, the rejected one is
	// bridged by the spline through its neighbors.
	if curve[0] != 1.0 || curve[4] != 1.0 {
		t.Errorf("the curve at the outer anchors got: %v and %v, expected: 1.0 and 1.0", curve[0], curve[4])
	}
	if math.Abs(curve[2]-1.0) > 1e-9 {
		t.Errorf("the curve over the rejected anchor got: %v, expected: %v", curve[2], 1.0)
	}
}

func TestFit_RejectsEmissionOutlier(t *testing.T) {
	t.Parallel()
	f, err := New(WithLowReject(0), WithHighReject(3), WithMaxIterations(5))
	if err != nil {
		t.Fatalf("creating the fitter, err got: %v, expected: nil", err)
	}

	anchors := anchorsOf(
		[2]float64{100, 1.0},
		[2]float64{200, 1.05},
		[2]float64{300, 1.7},
		[2]float64{400, 0.95},
		[2]float64{500, 1.0},
	)

	_, report, err := f.Fit(anchors, []float64{100, 200, 300, 400, 500})
	if err != nil {
		t.Fatalf("fitting the anchors, err got: %v, expected: nil", err)
	}
	if report.Rejected != 1 || report.Kept != 4 || !report.Converged {
		t.Errorf("the fit report is incorrect: %s", spew.Sdump(report))
	}
}

func TestFit_RejectionDisabled(t *testing.T) {
	t.Parallel()
	f, err := New(WithLowReject(0), WithHighReject(0), WithMaxIterations(5))
	if err != nil {
		t.Fatalf("creating the fitter, err got: %v, expected: nil", err)
	}

	anchors := anchorsOf(
		[2]float64{100, 1.0},
		[2]float64{200, 1.05},
		[2]float64{300, 0.4},
		[2]float64{400, 0.95},
		[2]float64{500, 1.0},
	)

	_, report, err := f.Fit(anchors, []float64{100, 200, 300, 400, 500})
	if err != nil {
		t.Fatalf("fitting the anchors, err got: %v, expected: nil", err)
	}
	if report.Rejected != 0 || report.Kept != 5 || report.Iterations != 1 || !report.Converged {
		t.Errorf("the fit report is incorrect: %s", spew.Sdump(report))
	}
}

func TestFit_UnsortedAnchors(t *testing.T) {
	t.Parallel()
	f, err := New()
	if err != nil {
		t.Fatalf("creating the fitter, err got: %v, expected: nil", err)
	}

	sorted := anchorsOf(
		[2]float64{100, 1.0},
		[2]float64{200, 1.05},
		[2]float64{300, 0.4},
		[2]float64{400, 0.95},
		[2]float64{500, 1.0},
	)
	shuffled := anchorsOf(
		[2]float64{300, 0.4},
		[2]float64{500, 1.0},
		[2]float64{100, 1.0},
		[2]float64{400, 0.95},
		[2]float64{200, 1.05},
	)
	wavelength := []float64{100, 200, 300, 400, 500}

	curve, _, err := f.Fit(sorted, wavelength)
	if err != nil {
		t.Fatalf("fitting the sorted anchors, err got: %v, expected: nil", err)
	}
	curve1, _, err := f.Fit(shuffled, wavelength)
	if err != nil {
		t.Fatalf("fitting the shuffled anchors, err got: %v, expected: nil", err)
	}
	for i := range curve {
		if curve[i] != curve1[i] {
			t.Errorf("the curve at index %d got: %v, expected: %v", i, curve1[i], curve[i])
		}
	}
	if shuffled[0].X != 300 {
		t.Errorf("the input anchors were reordered got x: %v, expected: %v", shuffled[0].X, 300.0)
	}
}

func TestFit_Idempotent(t *testing.T) {
	t.Parallel()
	f, err := New()
	if err != nil {
		t.Fatalf("creating the fitter, err got: %v, expected: nil", err)
	}

	anchors := anchorsOf(
		[2]float64{100, 1.0},
		[2]float64{200, 1.05},
		[2]float64{300, 0.4},
		[2]float64{400, 0.95},
		[2]float64{500, 1.0},
	)
	wavelength := []float64{100, 200, 300, 400, 500}

	curve, report, err := f.Fit(anchors, wavelength)
	if err != nil {
		t.Fatalf("fitting the anchors, err got: %v, expected: nil", err)
	}
	curve1, report1, err := f.Fit(anchors, wavelength)
	if err != nil {
		t.Fatalf("refitting the anchors, err got: %v, expected: nil", err)
	}
	for i := range curve {
		if curve[i] != curve1[i] {
			t.Errorf("the refit curve at index %d got: %v, expected: %v", i, curve1[i], curve[i])
		}
	}
	if *report != *report1 {
		t.Errorf("the refit report got: %s, expected: %s", spew.Sdump(report1), spew.Sdump(report))
	}
}
