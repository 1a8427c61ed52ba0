package reveal

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Command returns the program and arguments that open path in the file manager of goos.
func Command(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "explorer", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

// Open shows path in the platform file manager without waiting for it.
func Open(path string) error {
	name, args := Command(runtime.GOOS, path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s with %s: %w", path, name, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
