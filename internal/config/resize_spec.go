package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidResizeSpec is returned for any resize specification that is not
// exactly one positive scale factor or exactly two positive integers.
var ErrInvalidResizeSpec = errors.New("invalid resize specification")

// MaxSide is the largest output width or height, the JPEG format limit.
const MaxSide = 65535

// ResizeSpec is either a scale factor or an explicit width and height.
type ResizeSpec struct {
	Scale  float64
	Width  int
	Height int
}

// ParseResizeSpec parses one scale factor ("0.5") or a width and height
// ("800", "600"). Tokens may also arrive comma separated in a single value.
func ParseResizeSpec(tokens []string) (ResizeSpec, error) {
	var parts []string
	for _, t := range tokens {
		for _, p := range strings.Split(t, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
	}

	switch len(parts) {
	case 1:
		f, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return ResizeSpec{}, fmt.Errorf("%w: scale factor %q is not a number", ErrInvalidResizeSpec, parts[0])
		}
		if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return ResizeSpec{}, fmt.Errorf("%w: scale factor must be positive, got %s", ErrInvalidResizeSpec, parts[0])
		}
		if f > MaxSide {
			return ResizeSpec{}, fmt.Errorf("%w: scale factor %s exceeds %d", ErrInvalidResizeSpec, parts[0], MaxSide)
		}
		return ResizeSpec{Scale: f}, nil

	case 2:
		w, err := strconv.Atoi(parts[0])
		if err != nil {
			return ResizeSpec{}, fmt.Errorf("%w: width %q is not an integer", ErrInvalidResizeSpec, parts[0])
		}
		h, err := strconv.Atoi(parts[1])
		if err != nil {
			return ResizeSpec{}, fmt.Errorf("%w: height %q is not an integer", ErrInvalidResizeSpec, parts[1])
		}
		if w <= 0 || h <= 0 {
			return ResizeSpec{}, fmt.Errorf("%w: width and height must be positive, got %dx%d", ErrInvalidResizeSpec, w, h)
		}
		if w > MaxSide || h > MaxSide {
			return ResizeSpec{}, fmt.Errorf("%w: %dx%d exceeds the %d pixel side limit", ErrInvalidResizeSpec, w, h, MaxSide)
		}
		return ResizeSpec{Width: w, Height: h}, nil

	default:
		return ResizeSpec{}, fmt.Errorf("%w: expected a scale factor or a width and height, got %d values",
			ErrInvalidResizeSpec, len(parts))
	}
}

// IsScale reports whether the spec is a scale factor.
func (s ResizeSpec) IsScale() bool {
	return s.Scale > 0
}

// Dimensions returns the output size for a source of width w and height h.
// Scaled sides are rounded and never drop below one pixel. A side above
// MaxSide yields ErrInvalidResizeSpec.
func (s ResizeSpec) Dimensions(w, h int) (int, int, error) {
	fw, fh := float64(s.Width), float64(s.Height)
	if s.IsScale() {
		fw = math.Round(float64(w) * s.Scale)
		fh = math.Round(float64(h) * s.Scale)
	}
	if fw > MaxSide || fh > MaxSide {
		return 0, 0, fmt.Errorf("%w: %s turns %dx%d into %.0fx%.0f, above the %d pixel side limit",
			ErrInvalidResizeSpec, s, w, h, fw, fh, MaxSide)
	}
	return max(int(fw), 1), max(int(fh), 1), nil
}

func (s ResizeSpec) String() string {
	if s.IsScale() {
		return strconv.FormatFloat(s.Scale, 'g', -1, 64)
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
