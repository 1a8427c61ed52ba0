package resizer

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrFileNotFound is returned when a source path does not exist. It matches fs.ErrNotExist.
	ErrFileNotFound = fmt.Errorf("can't open file: %w", fs.ErrNotExist)

	// ErrUnsupportedFormat is returned for images that cannot be decoded or encoded.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)
