package database

import (
	"context"
	"fmt"

	"nspec/internal/logging"

	bolt "go.etcd.io/bbolt"
)

type Config struct {
	FileName string `envconfig:"NSPEC_DB_FILE" default:"nspec.db"`
}

type DB struct {
	DB *bolt.DB
}

func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("opening anchor store %s", config.FileName)

	db, err := bolt.Open(config.FileName, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening anchor store: %w", err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing anchor store")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing anchor store: %w", err)
	}

	return nil
}
