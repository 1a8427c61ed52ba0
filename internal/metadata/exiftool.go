package metadata

import (
	"fmt"
	"sync"

	"github.com/barasher/go-exiftool"
)

// ExifToolCopier copies a whitelist of tags with a long-running exiftool process.
type ExifToolCopier struct {
	et    *exiftool.Exiftool
	tags  []string
	mutex sync.Mutex
}

// NewExifToolCopier starts exiftool. It fails when the exiftool binary is not installed.
func NewExifToolCopier(tags []string) (*ExifToolCopier, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &ExifToolCopier{et: et, tags: tags}, nil
}

// Copy writes the configured tags of src into dst and stamps the Software tag.
// Tags missing from src are left out.
func (c *ExifToolCopier) Copy(src, dst string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	extracted := c.et.ExtractMetadata(src)
	if len(extracted) == 0 {
		return fmt.Errorf("exiftool returned no metadata for %s", src)
	}
	if extracted[0].Err != nil {
		return fmt.Errorf("exiftool extract: %w", extracted[0].Err)
	}

	out := exiftool.FileMetadata{File: dst, Fields: map[string]interface{}{}}
	for _, tag := range c.tags {
		if v, err := extracted[0].GetString(tag); err == nil && v != "" {
			out.SetString(tag, v)
		}
	}
	out.SetString("Software", Software)

	batch := []exiftool.FileMetadata{out}
	c.et.WriteMetadata(batch)
	if batch[0].Err != nil {
		return fmt.Errorf("exiftool write: %w", batch[0].Err)
	}
	return nil
}

// Close stops the exiftool process.
func (c *ExifToolCopier) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.et.Close()
}
