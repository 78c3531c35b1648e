package fitter

import (
	"nspec/internal/spectrum/model"
)

// ProvideFn is the contract for returning a configured Fitter instance.
type ProvideFn func() (Fitter, error)

// Report describes how an iterative fit terminated. It distinguishes
// convergence and early stops from outright failure, which is reported
// through the error return instead.
type Report struct {
	// Iterations actually performed, never more than the configured maximum.
	Iterations int
	// Kept is the number of anchors surviving the final iteration.
	Kept int
	// Rejected is the total number of anchors dropped across all iterations.
	Rejected int
	// Converged is true when the loop stopped because the keep mask
	// accepted every remaining anchor, or because applying it would have
	// left fewer than two.
	Converged bool
	// Scatter is the population standard deviation of the final residuals.
	Scatter float64
}

// Fitter produces a continuum curve from an anchor set, evaluated over
// the wavelength grid of the owning spectrum.
type Fitter interface {
	Fit(anchors []model.Anchor, wavelength []float64) (model.Curve, *Report, error)
}
