package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"imgtools/internal/config"
	"imgtools/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 3))))
	require.NoError(t, f.Close())

	var out bytes.Buffer
	require.NoError(t, runInspect(&out, path))
	assert.Contains(t, out.String(), "Format:      png")
	assert.Contains(t, out.String(), "Dimensions:  4x3")
	assert.Contains(t, out.String(), "EXIF:        none")

	err = runInspect(&out, filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "file does not exist")
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, rootCmd.ParseFlags([]string{
		"-r", "-s", "800,600", "-l", "debug", "--match", "suffix", "--extension-rule", "first", "--no-progress",
	}))

	cfg, err := loadConfig(rootCmd, []string{dir})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, dir, cfg.SourcePath)
	assert.True(t, cfg.Recursive)
	assert.Equal(t, []string{"800", "600"}, cfg.Resize.Size)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, config.MatchSuffix, cfg.Discovery.Match)
	assert.Equal(t, config.ExtensionAfterFirstDot, cfg.Output.ExtensionRule)
	assert.False(t, cfg.UI.ShowProgress)

	spec, err := cfg.ResizeSpec()
	require.NoError(t, err)
	assert.Equal(t, "800x600", spec.String())
}

func TestPrepareRunLogsInvalidConfig(t *testing.T) {
	logDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.SourcePath = filepath.Join(t.TempDir(), "missing")
	cfg.Logging.Directory = logDir
	cfg.Logging.Console = false

	_, _, err := prepareRun(cfg)
	require.Error(t, err)

	data, err := os.ReadFile(filepath.Join(logDir, logger.DatedFileName("imgtools", time.Now())))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ERROR    Invalid configuration: source_path does not exist")
}

func TestPrepareRunRejectsBadLevelWithoutLog(t *testing.T) {
	logDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.SourcePath = t.TempDir()
	cfg.Logging.Directory = logDir
	cfg.Logging.Level = "LOUD"

	_, _, err := prepareRun(cfg)
	assert.ErrorContains(t, err, "invalid log level")

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrepareRunWritesLog(t *testing.T) {
	logDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.SourcePath = t.TempDir()
	cfg.Logging.Directory = logDir
	cfg.Logging.Console = false
	cfg.Logging.FilePrefix = ""

	log, closer, err := prepareRun(cfg)
	require.NoError(t, err)
	log.Info("ready")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(logDir, logger.DatedFileName("imgtools", time.Now())))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "INFO     ready\n"))
}

func TestExtensionRuleHelpNamesFirstDotBehavior(t *testing.T) {
	flag := rootCmd.Flags().Lookup("extension-rule")
	require.NotNil(t, flag)
	assert.Equal(t, config.ExtensionAfterLastDot, flag.DefValue)
	assert.Contains(t, flag.Usage, "my.file.jpg -> my_resized.file")
}
