//go:build !cgo

package resizer

import (
	"fmt"
	"image"
	"io"

	_ "golang.org/x/image/webp"
)

// WebP can still be decoded without cgo, but not written back.
func encodeWebP(w io.Writer, img image.Image, quality int) error {
	return fmt.Errorf("%w: webp encoding needs a cgo build", ErrUnsupportedFormat)
}
