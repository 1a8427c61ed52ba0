package resizer

import (
	"path/filepath"
	"strings"

	"imgtools/internal/config"
)

// OutputName derives the resized file name "<stem><suffix>.<ext>" from a source path.
//
// With config.ExtensionAfterLastDot "my.file.jpg" becomes "my.file_resized.jpg".
// With config.ExtensionAfterFirstDot the stem ends at the first dot and the
// extension is the next dot-separated part, so "my.file.jpg" becomes "my_resized.file".
func OutputName(path, suffix, rule string) string {
	base := filepath.Base(path)

	var stem, ext string
	hasExt := false

	switch rule {
	case config.ExtensionAfterFirstDot:
		parts := strings.SplitN(base, ".", 3)
		stem = parts[0]
		if len(parts) > 1 {
			ext, hasExt = parts[1], true
		}
	default:
		if i := strings.LastIndex(base, "."); i >= 0 {
			stem, ext, hasExt = base[:i], base[i+1:], true
		} else {
			stem = base
		}
	}

	if !hasExt {
		return stem + suffix
	}
	return stem + suffix + "." + ext
}
