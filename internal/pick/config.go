package pick

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"NSPEC_PICK_REQUEST_TIMEOUT" default:"30s"`
}
