package ingest

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"NSPEC_INGEST_REQUEST_TIMEOUT" default:"60s"`
	// Upper bound on samples accepted in one spectrum.
	MaxSamples int `envconfig:"NSPEC_INGEST_MAX_SAMPLES" default:"1000000"`
	// Optional bearer token attached when fetching spectra by url.
	FetchBearerToken string `envconfig:"NSPEC_INGEST_FETCH_BEARER_TOKEN"`
}
