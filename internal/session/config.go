package session

import (
	"time"
)

type Config struct {
	// Width, in wavelength units, of the median window applied when an
	// anchor is picked.
	MedianWindow float64 `envconfig:"NSPEC_SESSION_MEDIAN_WINDOW" default:"10.0"`
	// Timer for anchor store cleanup passes.
	RebuildDBTime time.Duration `envconfig:"NSPEC_SESSION_REBUILD_DB_TIME" default:"15s"`
	// Maximum number of stored anchors per spectrum; zero disables the cap.
	MaxAnchorsStored int `envconfig:"NSPEC_SESSION_MAX_ANCHORS_STORED" default:"100000"`
	// Maximum retention period for stored anchors; zero keeps them forever.
	MaxStorageTime time.Duration `envconfig:"NSPEC_SESSION_MAX_STORAGE_TIME" default:"0s"`
	// Buffer size at which pending anchor writes are flushed to disk.
	DBFlushSize int `envconfig:"NSPEC_DB_FLUSH_SIZE" default:"10"`
	// Age at which pending anchor writes are flushed to disk.
	DBFlushTime time.Duration `envconfig:"NSPEC_DB_FLUSH_TIME" default:"5s"`
}
