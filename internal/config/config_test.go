package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResizeSpec(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []string
		want    ResizeSpec
		wantErr bool
	}{
		{name: "scale factor", tokens: []string{"0.5"}, want: ResizeSpec{Scale: 0.5}},
		{name: "integer scale factor", tokens: []string{"2"}, want: ResizeSpec{Scale: 2}},
		{name: "width and height", tokens: []string{"800", "600"}, want: ResizeSpec{Width: 800, Height: 600}},
		{name: "comma separated", tokens: []string{"800,600"}, want: ResizeSpec{Width: 800, Height: 600}},
		{name: "no values", tokens: nil, wantErr: true},
		{name: "three values", tokens: []string{"1", "2", "3"}, wantErr: true},
		{name: "zero scale", tokens: []string{"0"}, wantErr: true},
		{name: "negative scale", tokens: []string{"-0.5"}, wantErr: true},
		{name: "not a number", tokens: []string{"half"}, wantErr: true},
		{name: "float width", tokens: []string{"800.5", "600"}, wantErr: true},
		{name: "zero height", tokens: []string{"800", "0"}, wantErr: true},
		{name: "huge scale", tokens: []string{"1e20"}, wantErr: true},
		{name: "width above side limit", tokens: []string{"70000", "10"}, wantErr: true},
		{name: "largest side", tokens: []string{"65535", "1"}, want: ResizeSpec{Width: 65535, Height: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResizeSpec(tt.tokens)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidResizeSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResizeSpecDimensions(t *testing.T) {
	tests := []struct {
		name         string
		spec         ResizeSpec
		w, h         int
		wantW, wantH int
		wantErr      bool
	}{
		{name: "half", spec: ResizeSpec{Scale: 0.5}, w: 100, h: 200, wantW: 50, wantH: 100},
		{name: "rounds to nearest", spec: ResizeSpec{Scale: 0.5}, w: 101, h: 33, wantW: 51, wantH: 17},
		{name: "upscale", spec: ResizeSpec{Scale: 1.5}, w: 10, h: 7, wantW: 15, wantH: 11},
		{name: "never below one pixel", spec: ResizeSpec{Scale: 0.01}, w: 10, h: 10, wantW: 1, wantH: 1},
		{name: "explicit ignores aspect", spec: ResizeSpec{Width: 30, Height: 90}, w: 400, h: 100, wantW: 30, wantH: 90},
		{name: "scaled side above limit", spec: ResizeSpec{Scale: 1000}, w: 100, h: 10, wantErr: true},
		{name: "overflowing scale", spec: ResizeSpec{Scale: 1e20}, w: 100, h: 100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotW, gotH, err := tt.spec.Dimensions(tt.w, tt.h)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResizeSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, gotW)
			assert.Equal(t, tt.wantH, gotH)
		})
	}
}

func TestResizeSpecString(t *testing.T) {
	assert.Equal(t, "0.5", ResizeSpec{Scale: 0.5}.String())
	assert.Equal(t, "800x600", ResizeSpec{Width: 800, Height: 600}.String())
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourcePath = t.TempDir()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"jpg", "tif", "png", "webp"}, cfg.Discovery.Extensions)
	assert.Equal(t, "resized", cfg.Output.Folder)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "missing source", modify: func(c *Config) { c.SourcePath = "" }},
		{name: "nonexistent source", modify: func(c *Config) { c.SourcePath = filepath.Join(dir, "nope") }},
		{name: "bad size", modify: func(c *Config) { c.Resize.Size = []string{"1", "2", "3"} }},
		{name: "bad level", modify: func(c *Config) { c.Logging.Level = "VERBOSE" }},
		{name: "bad match", modify: func(c *Config) { c.Discovery.Match = "regex" }},
		{name: "no extensions", modify: func(c *Config) { c.Discovery.Extensions = nil }},
		{name: "bad extension rule", modify: func(c *Config) { c.Output.ExtensionRule = "middle" }},
		{name: "nested output folder", modify: func(c *Config) { c.Output.Folder = "a/b" }},
		{name: "bad filter", modify: func(c *Config) { c.Resize.Filter = "bicubic" }},
		{name: "bad jpeg quality", modify: func(c *Config) { c.Output.JPEGQuality = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SourcePath = dir
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourcePath = t.TempDir()
	cfg.Logging.Level = "debug"
	cfg.Resize.Filter = "Lanczos"
	cfg.Discovery.Extensions = []string{".jpg", " PNG "}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "lanczos", cfg.Resize.Filter)
	assert.Equal(t, []string{"jpg", "PNG"}, cfg.Discovery.Extensions)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgtools.yaml")
	content := `
recursive: true
resize:
  size: ["800", "600"]
  filter: lanczos
output:
  extension_rule: first
logging:
  level: DEBUG
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Recursive)
	assert.Equal(t, []string{"800", "600"}, cfg.Resize.Size)
	assert.Equal(t, "lanczos", cfg.Resize.Filter)
	assert.Equal(t, ExtensionAfterFirstDot, cfg.Output.ExtensionRule)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, "resized", cfg.Output.Folder)
	assert.Equal(t, 95, cfg.Output.JPEGQuality)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgtools.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: INFO\n"), 0644))

	t.Setenv("IMGTOOLS_LOGGING_LEVEL", "ERROR")
	t.Setenv("IMGTOOLS_OUTPUT_FOLDER", "small")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.Equal(t, "small", cfg.Output.Folder)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.SourcePath = dir
	assert.Equal(t, filepath.Join(dir, "resized"), cfg.OutputDirectory())

	file := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	cfg.SourcePath = file
	assert.Equal(t, filepath.Join(dir, "resized"), cfg.OutputDirectory())
}
