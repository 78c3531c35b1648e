package normalize

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"NSPEC_NORMALIZE_REQUEST_TIMEOUT" default:"30s"`
	MaxIDsLen      int           `envconfig:"NSPEC_NORMALIZE_MAX_IDS_LEN" default:"10"`
}
