package metadata

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Inspector reads image headers and EXIF metadata.
type Inspector struct {
	logger *logrus.Logger
}

// NewInspector returns a new Inspector.
func NewInspector(logger *logrus.Logger) *Inspector {
	return &Inspector{logger: logger}
}

// Inspect returns format, dimensions and EXIF details of the image at path.
// Files without EXIF data are not an error.
func (i *Inspector) Inspect(path string) (*Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	info := &Info{
		Path:   path,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Size:   stat.Size(),
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}

	x, err := exif.Decode(file)
	if err != nil {
		i.logger.Debugf("No EXIF data in %s: %v", path, err)
		return info, nil
	}
	info.HasEXIF = true

	info.DateTaken = i.dateTaken(x, path)
	info.Make = stringTag(x, exif.Make)
	info.Model = stringTag(x, exif.Model)
	info.Software = stringTag(x, exif.Software)

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			info.Orientation = v
		}
	}

	return info, nil
}

// dateTaken tries DateTime, then DateTimeOriginal, then DateTimeDigitized.
func (i *Inspector) dateTaken(x *exif.Exif, path string) *time.Time {
	if tm, err := x.DateTime(); err == nil {
		i.logger.Debugf("Extracted DateTime from EXIF: %v for file %s", tm, path)
		return &tm
	}

	for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized} {
		if date := parseEXIFDateTime(stringTag(x, name)); date != nil {
			i.logger.Debugf("Extracted %s from EXIF: %v for file %s", name, date, path)
			return date
		}
	}
	return nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	v, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}

// parseEXIFDateTime parses an EXIF date time string. Returns nil if parsing fails.
func parseEXIFDateTime(dateStr string) *time.Time {
	if dateStr == "" {
		return nil
	}

	formats := []string{
		"2006:01:02 15:04:05",
		"2006-01-02 15:04:05",
		"2006:01:02",
		"2006-01-02",
		time.RFC3339,
	}

	for _, format := range formats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return &date
		}
	}
	return nil
}
