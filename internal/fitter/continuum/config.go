package continuum

type Config struct {
	// Sigma multiplier for rejecting anchors below the fit (absorption
	// features). Zero disables rejection on that side.
	LowReject float64 `envconfig:"NSPEC_FIT_LOW_REJECT" default:"3.0"`
	// Sigma multiplier for rejecting anchors above the fit (emission
	// features, cosmic rays). Zero disables rejection on that side.
	HighReject float64 `envconfig:"NSPEC_FIT_HIGH_REJECT" default:"0.0"`
	// Upper bound on sigma-clipping passes.
	MaxIterations int `envconfig:"NSPEC_FIT_MAX_ITERATIONS" default:"5"`
}
