package session

import (
	"context"
	"errors"
	"testing"
	"time"

	spectrumDb "nspec/internal/spectrum/database"
	"nspec/internal/spectrum/model"
)

func anchorBatch(n int) []model.Anchor {
	batch := make([]model.Anchor, 0, n)
	for i := 0; i < n; i++ {
		a := model.NewAnchor("test-spectrum", float64(4000+i*100), 1.0)
		a.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		batch = append(batch, a)
	}
	return batch
}

func TestProcessOverSizeAnchors(t *testing.T) {
	tests := []struct {
		name             string
		maxAnchorsStored int
		batch            []model.Anchor
		expectedErr      error
		expectedDeleted  int
	}{
		{
			name:             "positive_process_over_size_anchors",
			maxAnchorsStored: 3,
			batch:            anchorBatch(5),
			expectedDeleted:  2,
			expectedErr:      nil,
		},
		{
			name:             "under_limit_is_noop",
			maxAnchorsStored: 10,
			batch:            anchorBatch(5),
			expectedDeleted:  0,
			expectedErr:      nil,
		},
		{
			name:             "negative_process_over_size_anchors",
			maxAnchorsStored: 3,
			batch:            anchorBatch(5),
			expectedDeleted:  0,
			expectedErr:      errors.New("test error"),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			scheduler := &dbScheduler{opts: dbSchedulerConfig{maxAnchorsStored: test.maxAnchorsStored}}
			deleted := 0
			err := scheduler.processOverSizeAnchors(
				"test-spectrum",
				func(s string, fn spectrumDb.FilterFn) ([]model.Anchor, error) {
					return test.batch, test.expectedErr
				},
				func(ctx context.Context, anchors []model.Anchor) error {
					deleted = len(anchors)
					for _, a := range anchors {
						if a.CreatedAt.After(test.batch[len(test.batch)-test.maxAnchorsStored-1].CreatedAt) {
							t.Errorf("a newer anchor was deleted before an older one")
						}
					}
					return nil
				},
			)
			if (err != nil) != (test.expectedErr != nil) {
				t.Errorf("calling the processOverSizeAnchors method, err got: %v, expected: %v", err, test.expectedErr)
			}
			if deleted != test.expectedDeleted {
				t.Errorf(
					"calling the processOverSizeAnchors method, deleted got: %v, expected: %v",
					deleted, test.expectedDeleted)
			}
		})
	}
}

func TestProcessOutdatedAnchors(t *testing.T) {
	tests := []struct {
		name           string
		maxStorageTime time.Duration
		batch          []model.Anchor
		expectedErr    error
	}{
		{
			name:           "positive_process_outdated_anchors",
			maxStorageTime: time.Hour,
			batch:          anchorBatch(3),
			expectedErr:    nil,
		},
		{
			name:           "negative_process_outdated_anchors",
			maxStorageTime: time.Hour,
			batch:          anchorBatch(3),
			expectedErr:    errors.New("test error"),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			scheduler := &dbScheduler{opts: dbSchedulerConfig{maxStorageTime: test.maxStorageTime}}
			filtered := false
			err := scheduler.processOutdatedAnchors(
				"test-spectrum",
				func(s string, fn spectrumDb.FilterFn) ([]model.Anchor, error) {
					if fn != nil {
						old := model.NewAnchor("test-spectrum", 4000, 1.0)
						old.CreatedAt = time.Now().Add(-2 * time.Hour)
						fresh := model.NewAnchor("test-spectrum", 4100, 1.0)
						filtered = fn(old) && !fn(fresh)
					}
					return test.batch, test.expectedErr
				},
				func(ctx context.Context, anchors []model.Anchor) error {
					return nil
				},
			)
			if (err != nil) != (test.expectedErr != nil) {
				t.Errorf("calling the processOutdatedAnchors method, err got: %v, expected: %v", err, test.expectedErr)
			}
			if !filtered {
				t.Errorf("the retention filter kept an outdated anchor or dropped a fresh one")
			}
		})
	}
}

func TestRebuildSize(t *testing.T) {
	scheduler := &dbScheduler{opts: dbSchedulerConfig{maxAnchorsStored: 3}}
	counted := map[string]bool{}
	err := scheduler.rebuildSize(scheduleDeps{
		fetchKeys: func() ([]string, error) {
			return []string{"spectrum-a", "spectrum-b"}, nil
		},
		countBySpectrum: func(s string) (int, error) {
			counted[s] = true
			return 2, nil
		},
		fetchBySpectrum: func(s string, fn spectrumDb.FilterFn) ([]model.Anchor, error) {
			t.Errorf("fetch should not be called for spectra under the limit")
			return nil, nil
		},
		deleteAnchors: func(ctx context.Context, anchors []model.Anchor) error {
			return nil
		},
	})
	if err != nil {
		t.Errorf("calling the rebuildSize method, err got: %v, expected: nil", err)
	}
	if !counted["spectrum-a"] || !counted["spectrum-b"] {
		t.Errorf("not every spectrum key was counted: %v", counted)
	}
}
