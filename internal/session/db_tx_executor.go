package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nspec/internal/logging"
	"nspec/internal/spectrum/model"

	"github.com/valyala/fastrand"
)

// appendAnchorsFn persists a batch of anchors.
type appendAnchorsFn func(context.Context, []model.Anchor) error

type dbTxExecutorOptions struct {
	flushSize int
	flushTime time.Duration
}

func newDBTxExecutor(opts dbTxExecutorOptions, shutdownCh chan<- error) *dbTxExecutor {
	return &dbTxExecutor{opts: opts, shutdownCh: shutdownCh}
}

// dbTxExecutor accumulates anchor writes and inserts them in bulk, so a
// burst of picks does not turn into a burst of bolt transactions.
type dbTxExecutor struct {
	mtx sync.RWMutex

	opts       dbTxExecutorOptions
	buf        []model.Anchor
	shutdownCh chan<- error
}

// shutdown urgently flushes whatever is left in the buffer.
func (tx *dbTxExecutor) shutdown(appendFn appendAnchorsFn) error {
	tx.mtx.Lock()
	defer tx.mtx.Unlock()
	if len(tx.buf) == 0 {
		return nil
	}
	if err := appendFn(context.Background(), tx.buf); err != nil {
		return fmt.Errorf("txExecutor: append many operation failed: %v", err)
	}
	tx.buf = tx.buf[:0]
	return nil
}

// append buffers one anchor, flushing early once the buffer is full.
func (tx *dbTxExecutor) append(ctx context.Context, a model.Anchor, appendFn appendAnchorsFn) {
	tx.mtx.Lock()
	if tx.buf == nil {
		tx.buf = []model.Anchor{}
	}
	tx.buf = append(tx.buf, a)
	bufLen := len(tx.buf)
	tx.mtx.Unlock()

	if bufLen >= tx.opts.flushSize {
		go tx.bulkAppend(ctx, appendFn)
	}
}

func (tx *dbTxExecutor) bulkAppend(ctx context.Context, appendFn appendAnchorsFn) {
	logger := logging.FromContext(ctx)

	tx.mtx.Lock()
	tmpBuf := make([]model.Anchor, len(tx.buf))
	copy(tmpBuf, tx.buf)
	tx.buf = tx.buf[:0]
	tx.mtx.Unlock()

	if len(tmpBuf) == 0 {
		return
	}
	if err := appendFn(context.Background(), tmpBuf); err != nil {
		logger.Errorf("txExecutor: append many operation failed: %v", err)
	}
}

// flusher periodically drains the buffer. The period carries a random
// jitter so several processes sharing one volume do not flush in step.
func (tx *dbTxExecutor) flusher(ctx context.Context, appendFn appendAnchorsFn) {
	defer func() {
		tx.shutdownCh <- tx.shutdown(appendFn)
	}()

	period := tx.opts.flushTime
	if period <= 0 {
		period = 5 * time.Second
	}
	jitterCap := uint32(period / 4)
	if jitterCap > 0 {
		period += time.Duration(fastrand.Uint32n(jitterCap))
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tx.bulkAppend(ctx, appendFn)
		case <-ctx.Done():
			return
		}
	}
}
