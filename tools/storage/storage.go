// Package storage provides the backends the nutrition dataset is read from
// and the stores charts are published to.
package storage

import (
	"context"
	"errors"
	"slices"
)

// ErrDatasetNotFound is returned when the backing object or file is missing.
var ErrDatasetNotFound = errors.New("dataset not found")

// DatasetState loads the raw nutrition dataset.
type DatasetState interface {
	Load(ctx context.Context) ([]byte, error)
}

// ChartStore publishes a rendered chart and returns where it can be found.
type ChartStore interface {
	Publish(ctx context.Context, localPath string) (string, error)
}

// MemoryDatasetState serves a fixed CSV document.
type MemoryDatasetState struct {
	data []byte
	err  error
}

func NewMemoryDatasetState(data []byte) *MemoryDatasetState {
	return &MemoryDatasetState{data: slices.Clone(data)}
}

// NewFailingDatasetState always fails with err.
func NewFailingDatasetState(err error) *MemoryDatasetState {
	return &MemoryDatasetState{err: err}
}

func (m *MemoryDatasetState) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return slices.Clone(m.data), nil
}
