package session

import (
	"context"
	"testing"

	"nspec/internal/spectrum/model"
)

func TestDbTxExecutorShutdown(t *testing.T) {
	tests := []struct {
		name           string
		txExecutor     *dbTxExecutor
		expectedErr    error
		expectedLen    int
		expectedBufLen int
	}{
		{
			name: "positive_shutdown",
			txExecutor: &dbTxExecutor{
				buf: []model.Anchor{
					model.NewAnchor("test-spectrum", 4000, 1.0),
					model.NewAnchor("test-spectrum", 4100, 1.1),
					model.NewAnchor("test-spectrum", 4200, 0.9),
					model.NewAnchor("test-spectrum", 4300, 1.0),
					model.NewAnchor("test-spectrum", 4400, 1.05),
				},
			},
			expectedLen:    5,
			expectedBufLen: 0,
			expectedErr:    nil,
		},
		{
			name: "empty_buffer_shutdown",
			txExecutor: &dbTxExecutor{
				buf: []model.Anchor{},
			},
			expectedLen:    0,
			expectedBufLen: 0,
			expectedErr:    nil,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			length := 0

			err := test.txExecutor.shutdown(func(ctx context.Context, anchors []model.Anchor) error {
				length = len(anchors)
				return nil
			})
			if err != test.expectedErr {
				t.Errorf("calling the shutdown method, err got: %v, expected: %v", err, test.expectedErr)
			}
			if length != test.expectedLen {
				t.Errorf(
					"calling the shutdown method, the length of the inserted data got: %v, expected: %v",
					length, test.expectedLen)
			}
			if len(test.txExecutor.buf) != test.expectedBufLen {
				t.Errorf(
					"calling the shutdown method, the length of buffer got: %v, expected: %v",
					len(test.txExecutor.buf), test.expectedBufLen)
			}
		})
	}
}

func TestDbTxExecutorAppend(t *testing.T) {
	tests := []struct {
		name           string
		flushSize      int
		appends        int
		expectedBufLen int
	}{
		{name: "buffers_below_flush_size", flushSize: 10, appends: 3, expectedBufLen: 3},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tx := newDBTxExecutor(dbTxExecutorOptions{flushSize: test.flushSize}, make(chan error, 1))
			for i := 0; i < test.appends; i++ {
				tx.append(context.Background(), model.NewAnchor("test-spectrum", float64(i), 1.0), nil)
			}
			if len(tx.buf) != test.expectedBufLen {
				t.Errorf(
					"calling the append method, the length of buffer got: %v, expected: %v",
					len(tx.buf), test.expectedBufLen)
			}
		})
	}
}

func TestDbTxExecutorBulkAppend(t *testing.T) {
	tx := &dbTxExecutor{
		buf: []model.Anchor{
			model.NewAnchor("test-spectrum", 4000, 1.0),
			model.NewAnchor("test-spectrum", 4100, 1.1),
		},
	}

	length := 0
	tx.bulkAppend(context.Background(), func(ctx context.Context, anchors []model.Anchor) error {
		length = len(anchors)
		return nil
	})
	if length != 2 {
		t.Errorf("calling the bulkAppend method, the length of the inserted data got: %v, expected: %v", length, 2)
	}
	if len(tx.buf) != 0 {
		t.Errorf("calling the bulkAppend method, the length of buffer got: %v, expected: %v", len(tx.buf), 0)
	}
}
