package fit

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"NSPEC_FIT_REQUEST_TIMEOUT" default:"30s"`
}
