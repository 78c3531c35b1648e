package spline

import (
	"errors"
	"math"
	"testing"
)

func TestFit_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		xs       []float64
		ys       []float64
		expected error
	}{
		{name: "too_few_knots", xs: []float64{1}, ys: []float64{1}, expected: ErrTooFewKnots},
		{name: "length_mismatch", xs: []float64{1, 2}, ys: []float64{1}, expected: ErrLenMismatch},
		{name: "duplicate_x", xs: []float64{1, 1, 2}, ys: []float64{1, 2, 3}, expected: ErrNotIncreasing},
		{name: "descending_x", xs: []float64{2, 1}, ys: []float64{1, 2}, expected: ErrNotIncreasing},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := Fit(test.xs, test.ys)
			if !errors.Is(err, test.expected) {
				t.Errorf("fitting the spline, err got: %v, expected: %v", err, test.expected)
			}
		})
	}
}

func TestSpline_InterpolatesKnots(t *testing.T) {
	t.Parallel()
	xs := []float64{0, 1, 2, 4, 7}
	ys := []float64{1, 3, 2, 5, 4}
	s, err := Fit(xs, ys)
	if err != nil {
		t.Fatalf("fitting the spline, err got: %v, expected: nil", err)
	}
	for i := range xs {
		if got := s.At(xs[i]); got != ys[i] {
			t.Errorf("the value at knot %v got: %v, expected: %v", xs[i], got, ys[i])
		}
	}
}

func TestSpline_TwoKnotsAreLinear(t *testing.T) {
	t.Parallel()
	s, err := Fit([]float64{0, 1}, []float64{0, 2})
	if err != nil {
		t.Fatalf("fitting the spline, err got: %v, expected: nil", err)
	}
	tests := []struct {
		name     string
		x        float64
		expected float64
	}{
		{name: "midpoint", x: 0.5, expected: 1},
		{name: "extrapolate_right", x: 2, expected: 4},
		{name: "extrapolate_left", x: -1, expected: -2},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := s.At(test.x); math.Abs(got-test.expected) > 1e-12 {
				t.Errorf("the value at %v got: %v, expected: %v", test.x, got, test.expected)
			}
		})
	}
}

func TestSpline_NaturalTent(t *testing.T) {
	t.Parallel()
	// The natural spline through (0,0), (1,1), (2,0) has a single
	// interior second derivative of -3, which puts the midpoint of the
	// first segment at 0.6875.
	s, err := Fit([]float64{0, 1, 2}, []float64{0, 1, 0})
	if err != nil {
		t.Fatalf("fitting the spline, err got: %v, expected: nil", err)
	}
	if got := s.At(0.5); math.Abs(got-0.6875) > 1e-12 {
		t.Errorf("the value at 0.5 got: %v, expected: %v", got, 0.6875)
	}
	if got := s.At(1.5); math.Abs(got-0.6875) > 1e-12 {
		t.Errorf("the value at 1.5 got: %v, expected: %v", got, 0.6875)
	}
}

func TestSpline_Eval(t *testing.T) {
	t.Parallel()
	s, err := Fit([]float64{0, 1, 2}, []float64{0, 1, 0})
	if err != nil {
		t.Fatalf("fitting the spline, err got: %v, expected: nil", err)
	}
	grid := []float64{0, 0.5, 1, 1.5, 2}
	out := s.Eval(grid)
	if len(out) != len(grid) {
		t.Fatalf("the eval length got: %v, expected: %v", len(out), len(grid))
	}
	for i := range grid {
		if got := s.At(grid[i]); out[i] != got {
			t.Errorf("eval at %v got: %v, expected: %v", grid[i], out[i], got)
		}
	}
}
