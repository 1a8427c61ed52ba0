package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Match modes for the discovery extension filter.
const (
	MatchSubstring = "substring"
	MatchSuffix    = "suffix"
)

// Extension rules for naming resized outputs.
const (
	ExtensionAfterLastDot  = "last"
	ExtensionAfterFirstDot = "first"
)

// LogLevels lists the accepted minimum log levels, most severe first.
var LogLevels = []string{"CRITICAL", "ERROR", "WARNING", "INFO", "DEBUG", "NOTSET"}

// ResampleFilters lists the accepted resample filter names.
var ResampleFilters = []string{"nearest", "box", "linear", "catmullrom", "mitchell", "lanczos"}

// Config represents the run configuration for a batch resize.
type Config struct {
	SourcePath string          `mapstructure:"source_path"`
	Recursive  bool            `mapstructure:"recursive"`
	Resize     ResizeConfig    `mapstructure:"resize"`
	Discovery  DiscoveryConfig `mapstructure:"discovery"`
	Output     OutputConfig    `mapstructure:"output"`
	Metadata   MetadataConfig  `mapstructure:"metadata"`
	Logging    LoggingConfig   `mapstructure:"logging"`
	UI         UIConfig        `mapstructure:"ui"`
}

// ResizeConfig contains the resize specification and resampling settings
type ResizeConfig struct {
	// Size holds the raw specification: one scale factor or a width and a height.
	Size       []string `mapstructure:"size"`
	Filter     string   `mapstructure:"filter"`
	AutoOrient bool     `mapstructure:"auto_orient"`
}

// DiscoveryConfig contains file discovery settings
type DiscoveryConfig struct {
	Extensions    []string `mapstructure:"extensions"`
	Match         string   `mapstructure:"match"`
	SkipOutputDir bool     `mapstructure:"skip_output_dir"`
}

// OutputConfig contains output naming and encoding settings
type OutputConfig struct {
	Folder        string `mapstructure:"folder"`
	Suffix        string `mapstructure:"suffix"`
	ExtensionRule string `mapstructure:"extension_rule"`
	JPEGQuality   int    `mapstructure:"jpeg_quality"`
	WebPQuality   int    `mapstructure:"webp_quality"`
}

// MetadataConfig contains EXIF carry-over settings
type MetadataConfig struct {
	PreserveEXIF bool     `mapstructure:"preserve_exif"`
	Tags         []string `mapstructure:"tags"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Directory  string `mapstructure:"directory"` // empty means working directory
	FilePrefix string `mapstructure:"file_prefix"`
	Console    bool   `mapstructure:"console"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// UIConfig contains terminal and desktop integration settings
type UIConfig struct {
	ShowProgress bool `mapstructure:"show_progress"`
	RevealOutput bool `mapstructure:"reveal_output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Resize: ResizeConfig{
			Size:       []string{"0.5"},
			Filter:     "linear",
			AutoOrient: false,
		},
		Discovery: DiscoveryConfig{
			Extensions:    []string{"jpg", "tif", "png", "webp"},
			Match:         MatchSubstring,
			SkipOutputDir: true,
		},
		Output: OutputConfig{
			Folder:        "resized",
			Suffix:        "_resized",
			ExtensionRule: ExtensionAfterLastDot,
			JPEGQuality:   95,
			WebPQuality:   90,
		},
		Metadata: MetadataConfig{
			PreserveEXIF: false,
			Tags: []string{
				"DateTimeOriginal", "CreateDate", "Make", "Model",
				"LensModel", "Artist", "Copyright",
			},
		},
		Logging: LoggingConfig{
			Level:      "INFO",
			FilePrefix: "imgtools",
			Console:    true,
			MaxSize:    10,
			MaxBackups: 0,
			MaxAge:     0,
			Compress:   false,
		},
		UI: UIConfig{
			ShowProgress: true,
			RevealOutput: false,
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// The source path usually comes from the command line, so it is not
// validated here; call Validate once all overrides are applied.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("imgtools")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.imgtools")
		v.AddConfigPath("/etc/imgtools")
	}

	setDefaults(v, config)

	v.SetEnvPrefix("IMGTOOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so that environment overrides are seen by Unmarshal.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("source_path", c.SourcePath)
	v.SetDefault("recursive", c.Recursive)

	v.SetDefault("resize.size", c.Resize.Size)
	v.SetDefault("resize.filter", c.Resize.Filter)
	v.SetDefault("resize.auto_orient", c.Resize.AutoOrient)

	v.SetDefault("discovery.extensions", c.Discovery.Extensions)
	v.SetDefault("discovery.match", c.Discovery.Match)
	v.SetDefault("discovery.skip_output_dir", c.Discovery.SkipOutputDir)

	v.SetDefault("output.folder", c.Output.Folder)
	v.SetDefault("output.suffix", c.Output.Suffix)
	v.SetDefault("output.extension_rule", c.Output.ExtensionRule)
	v.SetDefault("output.jpeg_quality", c.Output.JPEGQuality)
	v.SetDefault("output.webp_quality", c.Output.WebPQuality)

	v.SetDefault("metadata.preserve_exif", c.Metadata.PreserveEXIF)
	v.SetDefault("metadata.tags", c.Metadata.Tags)

	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.directory", c.Logging.Directory)
	v.SetDefault("logging.file_prefix", c.Logging.FilePrefix)
	v.SetDefault("logging.console", c.Logging.Console)
	v.SetDefault("logging.max_size", c.Logging.MaxSize)
	v.SetDefault("logging.max_backups", c.Logging.MaxBackups)
	v.SetDefault("logging.max_age", c.Logging.MaxAge)
	v.SetDefault("logging.compress", c.Logging.Compress)

	v.SetDefault("ui.show_progress", c.UI.ShowProgress)
	v.SetDefault("ui.reveal_output", c.UI.RevealOutput)
}

// Validate validates and normalizes the configuration
func (c *Config) Validate() error {
	if c.SourcePath == "" {
		return fmt.Errorf("source_path is required")
	}
	if _, err := os.Stat(c.SourcePath); err != nil {
		return fmt.Errorf("source_path does not exist or is not accessible: %s", c.SourcePath)
	}

	if _, err := c.ResizeSpec(); err != nil {
		return err
	}

	c.Resize.Filter = strings.ToLower(c.Resize.Filter)
	if c.Resize.Filter == "" {
		c.Resize.Filter = "linear"
	}
	if !slices.Contains(ResampleFilters, c.Resize.Filter) {
		return fmt.Errorf("invalid resize filter: %s (valid: %s)",
			c.Resize.Filter, strings.Join(ResampleFilters, ", "))
	}

	c.Logging.Level = strings.ToUpper(c.Logging.Level)
	if !slices.Contains(LogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %s)",
			c.Logging.Level, strings.Join(LogLevels, ", "))
	}

	switch c.Discovery.Match {
	case MatchSubstring, MatchSuffix:
	default:
		return fmt.Errorf("invalid discovery match mode: %s (valid: %s, %s)",
			c.Discovery.Match, MatchSubstring, MatchSuffix)
	}
	if len(c.Discovery.Extensions) == 0 {
		return fmt.Errorf("discovery.extensions must not be empty")
	}
	c.Discovery.Extensions = normalizeExtensions(c.Discovery.Extensions)

	switch c.Output.ExtensionRule {
	case ExtensionAfterLastDot, ExtensionAfterFirstDot:
	default:
		return fmt.Errorf("invalid output extension_rule: %s (valid: %s, %s)",
			c.Output.ExtensionRule, ExtensionAfterLastDot, ExtensionAfterFirstDot)
	}

	if c.Output.Folder == "" || strings.ContainsAny(c.Output.Folder, `/\`) {
		return fmt.Errorf("output.folder must be a single directory name: %q", c.Output.Folder)
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be between 1 and 100: %d", c.Output.JPEGQuality)
	}
	if c.Output.WebPQuality < 1 || c.Output.WebPQuality > 100 {
		return fmt.Errorf("output.webp_quality must be between 1 and 100: %d", c.Output.WebPQuality)
	}

	if c.Logging.FilePrefix == "" {
		c.Logging.FilePrefix = "imgtools"
	}

	return nil
}

// ResizeSpec parses the configured resize specification.
func (c *Config) ResizeSpec() (ResizeSpec, error) {
	return ParseResizeSpec(c.Resize.Size)
}

// OutputDirectory returns the folder resized files are written to.
// For a single-file source it sits next to the file.
func (c *Config) OutputDirectory() string {
	base := c.SourcePath
	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		base = filepath.Dir(base)
	}
	return filepath.Join(base, c.Output.Folder)
}

// LogFileDirectory returns the directory the run log is written to.
func (c *Config) LogFileDirectory() string {
	if c.Logging.Directory != "" {
		return c.Logging.Directory
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// normalizeExtensions strips leading dots and surrounding spaces.
// Case is preserved because the substring filter is case-sensitive.
func normalizeExtensions(extensions []string) []string {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" {
			normalized = append(normalized, ext)
		}
	}
	return normalized
}
