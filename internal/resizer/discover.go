package resizer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"imgtools/internal/config"
)

// Filter selects candidate image files by name.
type Filter struct {
	// Patterns are bare extensions such as "jpg".
	Patterns []string
	// Match is config.MatchSubstring (pattern anywhere in the name, case-sensitive)
	// or config.MatchSuffix (".<pattern>" at the end, case-insensitive).
	Match string
	// ExcludeDir is a directory recursive discovery never descends into.
	ExcludeDir string
}

// Matches reports whether a file name passes the filter.
// In substring mode "notajpgfile.txt" matches "jpg".
func (f Filter) Matches(name string) bool {
	for _, p := range f.Patterns {
		if f.Match == config.MatchSuffix {
			if strings.HasSuffix(strings.ToLower(name), "."+strings.ToLower(p)) {
				return true
			}
			continue
		}
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// Discover returns the files under path accepted by filter, in traversal order.
// Without recursive only the immediate entries of path are considered.
// A path naming a single file yields that file when it matches.
func Discover(path string, recursive bool, filter Filter) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if filter.Matches(info.Name()) {
			return []string{filepath.Clean(path)}, nil
		}
		return nil, nil
	}

	if !recursive {
		return listDir(path, filter)
	}
	return walkDir(path, filter)
}

func listDir(dir string, filter Filter) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filter.Matches(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func walkDir(root string, filter Filter) ([]string, error) {
	var files []string
	exclude := ""
	if filter.ExcludeDir != "" {
		exclude = filepath.Clean(filter.ExcludeDir)
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtrees are skipped, an unreadable root is fatal
			if path == root {
				return err
			}
			return nil
		}

		if d.IsDir() {
			if exclude != "" && path != root && filepath.Clean(path) == exclude {
				return filepath.SkipDir
			}
			return nil
		}

		if filter.Matches(d.Name()) {
			files = append(files, filepath.Clean(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
