package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileDatasetState reads the dataset from the local filesystem on every Load.
type FileDatasetState struct {
	FilePath string
}

func NewFileDatasetState(filePath string) *FileDatasetState {
	return &FileDatasetState{FilePath: filePath}
}

func (d *FileDatasetState) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(d.FilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, d.FilePath)
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset file %s: %w", d.FilePath, err)
	}
	return data, nil
}
