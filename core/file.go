package core

import (
	"errors"
	"fmt"
	"os"
)

var ErrEmptyFile = errors.New("file is empty")

// ReadFile reads the whole file at path into memory. Empty files are an
// error: every resource the engine loads must carry data.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to read %s: %w", path, ErrEmptyFile)
	}
	return data, nil
}
