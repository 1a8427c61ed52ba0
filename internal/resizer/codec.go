package resizer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"

	"imgtools/internal/config"

	"github.com/disintegration/imaging"
)

var resampleFilters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"catmullrom": imaging.CatmullRom,
	"mitchell":   imaging.MitchellNetravali,
	"lanczos":    imaging.Lanczos,
}

// ResampleFilter returns the named resample filter, imaging.Linear when unknown.
func ResampleFilter(name string) imaging.ResampleFilter {
	if f, ok := resampleFilters[name]; ok {
		return f
	}
	return imaging.Linear
}

// EncodeOptions holds per-format encoder settings.
type EncodeOptions struct {
	JPEGQuality int
	WebPQuality int
}

// sourceImage is one decoded file. It lives for a single loop iteration.
type sourceImage struct {
	img    image.Image
	format string
	size   int64
}

// Resize returns img scaled per spec. Output sides above config.MaxSide
// are refused with config.ErrInvalidResizeSpec.
func Resize(img image.Image, spec config.ResizeSpec, filter imaging.ResampleFilter) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h, err := spec.Dimensions(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	return imaging.Resize(img, w, h, filter), nil
}

// ResizeFile decodes the image at path and scales it per spec.
// A missing path yields ErrFileNotFound.
func ResizeFile(path string, spec config.ResizeSpec, filter imaging.ResampleFilter) (*image.NRGBA, error) {
	src, err := decodeFile(path, false)
	if err != nil {
		return nil, err
	}
	return Resize(src.img, spec, filter)
}

func decodeFile(path string, autoOrient bool) (*sourceImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
		}
		return nil, fmt.Errorf("decode header: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(autoOrient))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return &sourceImage{img: img, format: format, size: int64(len(data))}, nil
}

// encode writes img in the given decoder format name ("jpeg", "png", ...).
func encode(w io.Writer, img image.Image, format string, opts EncodeOptions) error {
	switch format {
	case "jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(opts.JPEGQuality))
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	case "gif":
		return imaging.Encode(w, img, imaging.GIF)
	case "tiff":
		return imaging.Encode(w, img, imaging.TIFF)
	case "bmp":
		return imaging.Encode(w, img, imaging.BMP)
	case "webp":
		return encodeWebP(w, img, opts.WebPQuality)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// writeImage encodes into a temporary file next to outPath and renames it into place.
func writeImage(outPath string, img image.Image, format string, opts EncodeOptions) (int64, error) {
	var buf bytes.Buffer
	if err := encode(&buf, img, format, opts); err != nil {
		return 0, fmt.Errorf("encode: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return 0, fmt.Errorf("write tmp file: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("rename: %w", err)
	}
	return int64(buf.Len()), nil
}
