package database

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"nspec/internal/byteutil"
	"nspec/internal/database"
	"nspec/internal/spectrum/model"

	xdr "github.com/davecgh/go-xdr/xdr2"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	spectrumKeys = "spectrum:keys:"
	prefix       = "anchor:"
)

type FilterFn func(anchor model.Anchor) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

// anchorRecord is the on-disk XDR wire form of an anchor. Timestamps
// are stored as unix nanoseconds.
type anchorRecord struct {
	ID         [16]byte
	SpectrumID string
	X          float64
	Y          float64
	CreatedAt  int64
}

func encodeAnchor(anchor model.Anchor) ([]byte, error) {
	buf := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buf)

	rec := anchorRecord{
		ID:         anchor.ID,
		SpectrumID: anchor.SpectrumID,
		X:          anchor.X,
		Y:          anchor.Y,
		CreatedAt:  anchor.CreatedAt.UnixNano(),
	}
	if _, err := xdr.Marshal(buf, rec); err != nil {
		return nil, fmt.Errorf("anchor xdr encode: %w", err)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decodeAnchor(data []byte) (model.Anchor, error) {
	var rec anchorRecord
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &rec); err != nil {
		return model.Anchor{}, fmt.Errorf("anchor xdr decode: %w", err)
	}
	return model.Anchor{
		ID:         uuid.UUID(rec.ID),
		SpectrumID: rec.SpectrumID,
		X:          rec.X,
		Y:          rec.Y,
		CreatedAt:  time.Unix(0, rec.CreatedAt),
	}, nil
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

// Keys returns the ids of every spectrum with stored anchors.
func (db *DB) Keys() ([]string, error) {
	var bucketKeys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(spectrumKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			bucketKeys = append(bucketKeys, db.extractKey(string(k)))
		}
		return nil
	})

	return bucketKeys, err
}

func (db *DB) Store(_ context.Context, anchor model.Anchor) error {
	data, err := encodeAnchor(anchor)
	if err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(prefix + anchor.SpectrumID))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put([]byte(anchor.ID.String()), data); err != nil {
			return fmt.Errorf("put to bucket: %w", err)
		}
		keys, err := tx.CreateBucketIfNotExists([]byte(spectrumKeys))
		if err != nil {
			return fmt.Errorf("create keys bucket: %w", err)
		}
		if err := keys.Put([]byte(prefix+anchor.SpectrumID), []byte{0x0}); err != nil {
			return fmt.Errorf("put to keys bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) AppendMany(_ context.Context, anchors []model.Anchor) error {
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, anchor := range anchors {
			b, err := tx.CreateBucketIfNotExists([]byte(prefix + anchor.SpectrumID))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
			data, err := encodeAnchor(anchor)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(anchor.ID.String()), data); err != nil {
				return fmt.Errorf("put to bucket: %w", err)
			}
			keys, err := tx.CreateBucketIfNotExists([]byte(spectrumKeys))
			if err != nil {
				return fmt.Errorf("create keys bucket: %w", err)
			}
			if err := keys.Put([]byte(prefix+anchor.SpectrumID), []byte{0x0}); err != nil {
				return fmt.Errorf("put to keys bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) Delete(_ context.Context, anchor model.Anchor) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + anchor.SpectrumID))
		if b == nil {
			return nil
		}

		return b.Delete([]byte(anchor.ID.String()))
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) DeleteMany(_ context.Context, anchors []model.Anchor) error {
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, anchor := range anchors {
			b := tx.Bucket([]byte(prefix + anchor.SpectrumID))
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(anchor.ID.String())); err != nil {
				return fmt.Errorf("delete from bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

// DeleteSpectrum removes every anchor stored for the spectrum and its
// key entry.
func (db *DB) DeleteSpectrum(_ context.Context, spectrumID string) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(prefix + spectrumID)); b != nil {
			if err := tx.DeleteBucket([]byte(prefix + spectrumID)); err != nil {
				return fmt.Errorf("delete bucket: %w", err)
			}
		}
		if keys := tx.Bucket([]byte(spectrumKeys)); keys != nil {
			if err := keys.Delete([]byte(prefix + spectrumID)); err != nil {
				return fmt.Errorf("delete from keys bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) FindBySpectrum(spectrumID string, filter FilterFn) ([]model.Anchor, error) {
	var anchors []model.Anchor
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + spectrumID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			anchor, err := decodeAnchor(v)
			if err != nil {
				return err
			}
			if filter == nil || filter(anchor) {
				anchors = append(anchors, anchor)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	return anchors, nil
}

func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Anchor, error) {
	keys, err := db.Keys()
	if err != nil {
		return nil, fmt.Errorf("fetching spectrum keys: %w", err)
	}

	var anchors []model.Anchor
	for _, key := range keys {
		found, err := db.FindBySpectrum(key, filter)
		if err != nil {
			return nil, err
		}
		anchors = append(anchors, found...)
	}

	return anchors, nil
}

func (db *DB) CountBySpectrum(spectrumID string) (int, error) {
	var count int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + spectrumID))
		if b == nil {
			return nil
		}
		count = b.Stats().KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %v", err)
	}

	return count, nil
}
