package metadata

import (
	"time"
)

// Software is the value stamped into the Software tag of resized outputs.
const Software = "imgtools"

// Copier carries metadata from a source image onto its resized output.
type Copier interface {
	Copy(src, dst string) error
	Close() error
}

// Info describes an image file without decoding its pixels.
type Info struct {
	Path        string
	Format      string
	Width       int
	Height      int
	Size        int64
	HasEXIF     bool
	DateTaken   *time.Time
	Make        string
	Model       string
	Orientation int
	Software    string
}
