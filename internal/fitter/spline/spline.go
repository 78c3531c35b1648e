package spline

import (
	"errors"
	"sort"
)

var (
	// ErrTooFewKnots is returned when fewer than two knots are supplied.
	ErrTooFewKnots = errors.New("spline: at least two knots are required")
	// ErrNotIncreasing is returned when knot x values are not strictly
	// increasing. Coincident x values make the solver degenerate.
	ErrNotIncreasing = errors.New("spline: knot x values must be strictly increasing")
	// ErrLenMismatch is returned when x and y differ in length.
	ErrLenMismatch = errors.New("spline: x and y length mismatch")
)

// Spline is a natural cubic spline through a set of knots. Outside the
// knot range the end segment polynomial is extended, so evaluation over
// a domain wider than the knots extrapolates smoothly.
type Spline struct {
	xs []float64
	ys []float64
	d2 []float64
}

// Fit builds the spline. Knots must be sorted by x ascending with no
// duplicate x values. Two knots degenerate to the linear segment.
func Fit(xs, ys []float64) (*Spline, error) {
	if len(xs) != len(ys) {
		return nil, ErrLenMismatch
	}
	if len(xs) < 2 {
		return nil, ErrTooFewKnots
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, ErrNotIncreasing
		}
	}

	n := len(xs)
	d2 := make([]float64, n)
	if n > 2 {
		// Tridiagonal solve for the second derivatives with natural
		// boundary conditions d2[0] = d2[n-1] = 0.
		u := make([]float64, n-1)
		for i := 1; i < n-1; i++ {
			sig := (xs[i] - xs[i-1]) / (xs[i+1] - xs[i-1])
			p := sig*d2[i-1] + 2
			d2[i] = (sig - 1) / p
			u[i] = (ys[i+1]-ys[i])/(xs[i+1]-xs[i]) - (ys[i]-ys[i-1])/(xs[i]-xs[i-1])
			u[i] = (6*u[i]/(xs[i+1]-xs[i-1]) - sig*u[i-1]) / p
		}
		for i := n - 2; i >= 1; i-- {
			d2[i] = d2[i]*d2[i+1] + u[i]
		}
	}

	s := &Spline{
		xs: make([]float64, n),
		ys: make([]float64, n),
		d2: d2,
	}
	copy(s.xs, xs)
	copy(s.ys, ys)
	return s, nil
}

// At evaluates the spline at x.
func (s *Spline) At(x float64) float64 {
	n := len(s.xs)
	i := sort.SearchFloat64s(s.xs, x)
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	h := s.xs[i+1] - s.xs[i]
	a := (s.xs[i+1] - x) / h
	b := (x - s.xs[i]) / h
	return a*s.ys[i] + b*s.ys[i+1] +
		((a*a*a-a)*s.d2[i]+(b*b*b-b)*s.d2[i+1])*h*h/6
}

// Eval evaluates the spline at every value of xs.
func (s *Spline) Eval(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		out[i] = s.At(xs[i])
	}
	return out
}
