package fitter

// AlgType names a continuum fitting algorithm.
type AlgType string

const AlgTypeSpline AlgType = "SPLINE"

type Config struct {
	Type AlgType `envconfig:"NSPEC_FITTER_TYPE" default:"SPLINE"`
}

func (c Config) FitterType() AlgType {
	return c.Type
}
