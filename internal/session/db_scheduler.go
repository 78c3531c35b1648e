package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"nspec/internal/logging"
	spectrumDb "nspec/internal/spectrum/database"
	"nspec/internal/spectrum/model"
)

type (
	fetchKeysFn       func() ([]string, error)
	countBySpectrumFn func(string) (int, error)
	fetchBySpectrumFn func(string, spectrumDb.FilterFn) ([]model.Anchor, error)
	deleteAnchorsFn   func(context.Context, []model.Anchor) error
)

type scheduleDeps struct {
	fetchKeys       fetchKeysFn
	countBySpectrum countBySpectrumFn
	fetchBySpectrum fetchBySpectrumFn
	deleteAnchors   deleteAnchorsFn
}

type dbSchedulerConfig struct {
	maxAnchorsStored int
	maxStorageTime   time.Duration
	rebuildDBTime    time.Duration
}

func newDBScheduler(config dbSchedulerConfig) *dbScheduler {
	return &dbScheduler{opts: config}
}

// dbScheduler keeps the anchor store bounded: it drops anchors past the
// retention period and trims oversized per-spectrum sets, oldest first.
type dbScheduler struct {
	opts dbSchedulerConfig
}

func (s *dbScheduler) processOutdatedAnchors(
	spectrumID string,
	fetchFn fetchBySpectrumFn,
	deleteFn deleteAnchorsFn,
) error {
	anchors, err := fetchFn(spectrumID, func(a model.Anchor) bool {
		return time.Since(a.CreatedAt) > s.opts.maxStorageTime
	})
	if err != nil {
		return fmt.Errorf("unable to find anchors for spectrum %s: %v", spectrumID, err)
	}

	if err := deleteFn(context.Background(), anchors); err != nil {
		return fmt.Errorf("unable to delete outdated anchors for spectrum %s: %v", spectrumID, err)
	}
	return nil
}

func (s *dbScheduler) processOverSizeAnchors(
	spectrumID string,
	fetchFn fetchBySpectrumFn,
	deleteFn deleteAnchorsFn,
) error {
	anchors, err := fetchFn(spectrumID, nil)
	if err != nil {
		return fmt.Errorf("unable to find anchors for spectrum %s: %v", spectrumID, err)
	}
	if len(anchors) <= s.opts.maxAnchorsStored {
		return nil
	}

	sort.Slice(anchors, func(i, j int) bool {
		return anchors[i].CreatedAt.UnixNano() < anchors[j].CreatedAt.UnixNano()
	})

	if err := deleteFn(context.Background(), anchors[:len(anchors)-s.opts.maxAnchorsStored]); err != nil {
		return fmt.Errorf("unable to delete oversize anchors for spectrum %s: %v", spectrumID, err)
	}
	return nil
}

func (s *dbScheduler) rebuildOutdated(deps scheduleDeps) error {
	keys, err := deps.fetchKeys()
	if err != nil {
		return fmt.Errorf("unable to fetch spectrum keys: %v", err)
	}
	for i := range keys {
		if err := s.processOutdatedAnchors(keys[i], deps.fetchBySpectrum, deps.deleteAnchors); err != nil {
			return fmt.Errorf("unable to process anchors: %v", err)
		}
	}
	return nil
}

func (s *dbScheduler) rebuildSize(deps scheduleDeps) error {
	keys, err := deps.fetchKeys()
	if err != nil {
		return fmt.Errorf("unable to fetch spectrum keys: %v", err)
	}
	for i := range keys {
		length, err := deps.countBySpectrum(keys[i])
		if err != nil {
			return fmt.Errorf("unable to count anchors for spectrum %s: %v", keys[i], err)
		}
		if length > s.opts.maxAnchorsStored {
			if err := s.processOverSizeAnchors(keys[i], deps.fetchBySpectrum, deps.deleteAnchors); err != nil {
				return fmt.Errorf("unable to process anchors: %v", err)
			}
		}
	}

	return nil
}

func (s *dbScheduler) schedule(ctx context.Context, deps scheduleDeps) {
	logger := logging.FromContext(ctx)
	if s.opts.rebuildDBTime <= 0 {
		return
	}
	ticker := time.NewTicker(s.opts.rebuildDBTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.opts.maxAnchorsStored > 0 {
				if err := s.rebuildSize(deps); err != nil {
					logger.Errorf("unable to rebuild store size: %v", err)
				}
			}
			if s.opts.maxStorageTime > 0 {
				if err := s.rebuildOutdated(deps); err != nil {
					logger.Errorf("unable to rebuild outdated anchors: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
