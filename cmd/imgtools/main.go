package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"imgtools/internal/config"
	"imgtools/internal/logger"
	"imgtools/internal/metadata"
	"imgtools/internal/progress"
	"imgtools/internal/resizer"
	"imgtools/internal/reveal"
	"imgtools/internal/statistics"
	"imgtools/internal/web"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	recursive     bool
	sizes         []string
	logLevel      string
	match         string
	extensionRule string
	filter        string
	preserveEXIF  bool
	noProgress    bool
	revealOutput  bool
	port          int

	version = "1.0"
)

// rootCmd resizes every matching image of a folder.
var rootCmd = &cobra.Command{
	Use:   "imgtools [path]",
	Short: "Batch resize images by a scale factor or to a fixed size",
	Long: `imgtools resizes every matching image file of a folder, or a single file,
and writes the results into a "resized" subfolder next to the sources.

The size is either one scale factor (-s 0.5) or a width and a height
(-s 800 -s 600, or -s 800,600). Outputs keep the source format.`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResize(cmd, args)
	},
}

// inspectCmd prints dimensions and EXIF details of one image.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show format, dimensions and EXIF details of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.OutOrStdout(), args[0])
	},
}

// serveCmd starts the web interface server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for resize runs",
	Long: `Starts a web server exposing resize runs over HTTP.
Progress is pushed to websocket clients on /ws.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./imgtools.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "loglevel", "l", "INFO",
		"minimum log level ("+strings.Join(config.LogLevels, ", ")+")")

	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "also resize images in subfolders")
	rootCmd.Flags().StringSliceVarP(&sizes, "size", "s", []string{"0.5"},
		"one scale factor, or a width and a height")
	rootCmd.Flags().StringVar(&match, "match", config.MatchSubstring,
		"extension filter mode ("+config.MatchSubstring+", "+config.MatchSuffix+")")
	rootCmd.Flags().StringVar(&extensionRule, "extension-rule", config.ExtensionAfterLastDot,
		"where the output extension starts: "+config.ExtensionAfterLastDot+" dot, or "+config.ExtensionAfterFirstDot+
			" dot as earlier imgtools releases did (my.file.jpg -> my_resized.file)")
	rootCmd.Flags().StringVar(&filter, "filter", "linear",
		"resample filter ("+strings.Join(config.ResampleFilters, ", ")+")")
	rootCmd.Flags().BoolVar(&preserveEXIF, "preserve-exif", false, "copy selected EXIF tags to the outputs (needs exiftool)")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "do not draw the progress bar")
	rootCmd.Flags().BoolVar(&revealOutput, "reveal", false, "open the output folder when done")
	rootCmd.Flags().BoolP("version", "v", false, "print the version and exit")

	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run web server on")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
}

// runResize executes a batch resize run.
func runResize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	log, closer, err := prepareRun(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Infof("Log level set to: %s", cfg.Logging.Level)
	recursiveState := "disabled"
	if cfg.Recursive {
		recursiveState = "enabled"
	}
	spec, _ := cfg.ResizeSpec()
	log.Infof("Source folder: %s, recursive option %s, selected size: %s",
		cfg.SourcePath, recursiveState, spec)

	var copier metadata.Copier
	if cfg.Metadata.PreserveEXIF {
		c, err := metadata.NewExifToolCopier(cfg.Metadata.Tags)
		if err != nil {
			log.Warnf("Metadata will not be preserved: %v", err)
		} else {
			copier = c
			defer c.Close()
		}
	}

	stats := statistics.NewStatistics()
	bar := progress.NewBar(cmd.ErrOrStderr(), cfg.UI.ShowProgress)

	br, err := resizer.NewBatchResizerWithProgress(cfg, log, stats, copier, bar.Update)
	if err != nil {
		return err
	}

	if _, err := br.Run(); err != nil {
		if abortErr := bar.Abort(); abortErr != nil {
			log.Debugf("Progress bar: %v", abortErr)
		}
		log.Errorf("Resize failed: %v", err)
		log.Error(stats.GetErrorSummary())
		return err
	}
	if err := bar.Finish(); err != nil {
		log.Debugf("Progress bar: %v", err)
	}

	log.Debug("\n" + stats.GetSummary())

	if cfg.UI.RevealOutput {
		if err := reveal.Open(cfg.OutputDirectory()); err != nil {
			log.Warnf("Could not open output folder: %v", err)
		}
	}

	return nil
}

// runInspect prints what the resizer would see for a single file.
func runInspect(w io.Writer, filePath string) error {
	if !fileExists(filePath) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	info, err := metadata.NewInspector(log).Inspect(filePath)
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}

	fmt.Fprintf(w, "File:        %s\n", info.Path)
	fmt.Fprintf(w, "Format:      %s\n", info.Format)
	fmt.Fprintf(w, "Dimensions:  %dx%d\n", info.Width, info.Height)
	fmt.Fprintf(w, "Size:        %d bytes\n", info.Size)
	if !info.HasEXIF {
		fmt.Fprintln(w, "EXIF:        none")
		return nil
	}

	if info.DateTaken != nil {
		fmt.Fprintf(w, "Date taken:  %s\n", info.DateTaken.Format("2006-01-02 15:04:05"))
	}
	if info.Make != "" || info.Model != "" {
		fmt.Fprintf(w, "Camera:      %s\n", strings.TrimSpace(info.Make+" "+info.Model))
	}
	if info.Orientation != 0 {
		fmt.Fprintf(w, "Orientation: %d\n", info.Orientation)
	}
	if info.Software != "" {
		fmt.Fprintf(w, "Software:    %s\n", info.Software)
	}
	return nil
}

// runServe starts the web server and handles graceful shutdown.
func runServe(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("loglevel") {
		cfg.Logging.Level = logLevel
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)

	log, closer, err := setupLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	server := web.NewServer(cfg, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(port); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "imgtools API listening on http://localhost:%d\n", port)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop the server")

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
	}

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	server.Wait()

	return nil
}

// loadConfig loads configuration and applies CLI overrides. Validation is
// left to prepareRun.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if len(args) > 0 {
		cfg.SourcePath = args[0]
	}
	if cfg.SourcePath == "" {
		cfg.SourcePath = "."
	}

	flags := cmd.Flags()
	if flags.Changed("recursive") {
		cfg.Recursive = recursive
	}
	if flags.Changed("size") {
		cfg.Resize.Size = sizes
	}
	if flags.Changed("loglevel") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("match") {
		cfg.Discovery.Match = match
	}
	if flags.Changed("extension-rule") {
		cfg.Output.ExtensionRule = extensionRule
	}
	if flags.Changed("filter") {
		cfg.Resize.Filter = filter
	}
	if flags.Changed("preserve-exif") {
		cfg.Metadata.PreserveEXIF = preserveEXIF
	}
	if noProgress {
		cfg.UI.ShowProgress = false
	}
	if flags.Changed("reveal") {
		cfg.UI.RevealOutput = revealOutput
	}

	return cfg, nil
}

// prepareRun opens the run log and validates cfg, so configuration
// errors land in the log whenever the log level itself is usable.
func prepareRun(cfg *config.Config) (*logrus.Logger, io.Closer, error) {
	log, closer, err := setupLogger(cfg)
	if err != nil {
		if verr := cfg.Validate(); verr != nil {
			return nil, nil, verr
		}
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Errorf("Invalid configuration: %v", err)
		closer.Close()
		return nil, nil, err
	}
	return log, closer, nil
}

// setupLogger opens the dated run log, truncating a log of the same day.
func setupLogger(cfg *config.Config) (*logrus.Logger, io.Closer, error) {
	loggerCfg := logger.DefaultConfig()
	if cfg.Logging.Level != "" {
		loggerCfg.Level = cfg.Logging.Level
	}
	prefix := cfg.Logging.FilePrefix
	if prefix == "" {
		prefix = "imgtools"
	}
	loggerCfg.FilePath = filepath.Join(cfg.LogFileDirectory(), logger.DatedFileName(prefix, time.Now()))
	loggerCfg.MaxSize = cfg.Logging.MaxSize
	loggerCfg.MaxBackups = cfg.Logging.MaxBackups
	loggerCfg.MaxAge = cfg.Logging.MaxAge
	loggerCfg.Compress = cfg.Logging.Compress
	loggerCfg.Console = cfg.Logging.Console

	return logger.NewLogger(loggerCfg)
}

// fileExists returns true if the given path exists and is a file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
