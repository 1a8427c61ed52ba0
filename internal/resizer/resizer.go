package resizer

import (
	"fmt"
	"os"
	"path/filepath"

	"imgtools/internal/config"
	"imgtools/internal/logger"
	"imgtools/internal/metadata"
	"imgtools/internal/statistics"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// ProgressFunc is called after each file is written.
type ProgressFunc func(done, total int, file string)

// ResizedFile describes one written output.
type ResizedFile struct {
	SourcePath   string
	OutputPath   string
	Format       string
	SourceWidth  int
	SourceHeight int
	Width        int
	Height       int
	BytesRead    int64
	BytesWritten int64
}

// BatchResizer resizes every matching image of a source path, one file at a time.
type BatchResizer struct {
	config   *config.Config
	logger   *logrus.Logger
	stats    *statistics.Statistics
	copier   metadata.Copier
	spec     config.ResizeSpec
	filter   imaging.ResampleFilter
	progress ProgressFunc
}

// NewBatchResizer returns a new BatchResizer. copier may be nil.
func NewBatchResizer(
	cfg *config.Config,
	logger *logrus.Logger,
	stats *statistics.Statistics,
	copier metadata.Copier,
) (*BatchResizer, error) {
	return NewBatchResizerWithProgress(cfg, logger, stats, copier, nil)
}

// NewBatchResizerWithProgress also reports every completed file to progress.
func NewBatchResizerWithProgress(
	cfg *config.Config,
	logger *logrus.Logger,
	stats *statistics.Statistics,
	copier metadata.Copier,
	progress ProgressFunc,
) (*BatchResizer, error) {
	spec, err := cfg.ResizeSpec()
	if err != nil {
		return nil, err
	}
	return &BatchResizer{
		config:   cfg,
		logger:   logger,
		stats:    stats,
		copier:   copier,
		spec:     spec,
		filter:   ResampleFilter(cfg.Resize.Filter),
		progress: progress,
	}, nil
}

// Spec returns the parsed resize specification.
func (br *BatchResizer) Spec() config.ResizeSpec {
	return br.spec
}

// Run resizes all discovered files into the output folder, in discovery order.
// The first failing file aborts the run; outputs written before it stay on disk.
// Finding no files is reported and is not an error.
func (br *BatchResizer) Run() ([]ResizedFile, error) {
	outDir := br.config.OutputDirectory()

	if err := br.ensureOutputDir(outDir); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	files, err := br.discoverFiles(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	br.stats.SetFilesFound(len(files))

	if len(files) == 0 {
		br.stats.Finalize()
		br.logger.Warnf("No matching image files found in %s", br.config.SourcePath)
		return nil, nil
	}

	br.logger.Infof("Found %d image files to resize to %s", len(files), br.spec)
	br.stats.Start()

	results := make([]ResizedFile, 0, len(files))
	for i, path := range files {
		res, err := br.processFile(path, outDir)
		if err != nil {
			br.stats.IncrementFilesWithErrors()
			br.stats.AddError(path, "resize", err.Error())
			br.stats.Finalize()
			return results, fmt.Errorf("failed to resize %s: %w", path, err)
		}
		results = append(results, *res)

		if br.progress != nil {
			br.progress(i+1, len(files), path)
		}
	}

	br.stats.Finalize()
	snap := br.stats.Snapshot()
	br.logger.Infof("Finished processing %d files in %.2f seconds (%.2f msec/img)",
		len(results), snap.DurationSecs, snap.MsecPerImage)

	return results, nil
}

// ensureOutputDir creates the output folder unless it already exists.
func (br *BatchResizer) ensureOutputDir(dir string) error {
	log := logger.WithOperation(br.logger, "mkdir")
	info, err := os.Stat(dir)
	exists := err == nil
	log.Debugf("Output folder= %s, exists= %t", dir, exists)

	if exists {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	br.stats.IncrementDirectoriesCreated()
	log.Debugf("Created directory: %s", dir)
	return nil
}

// discoverFiles lists the candidate files of the configured source path.
func (br *BatchResizer) discoverFiles(outDir string) ([]string, error) {
	filter := Filter{
		Patterns: br.config.Discovery.Extensions,
		Match:    br.config.Discovery.Match,
	}
	if br.config.Discovery.SkipOutputDir {
		filter.ExcludeDir = outDir
	}

	files, err := Discover(br.config.SourcePath, br.config.Recursive, filter)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		logger.WithFile(br.logger, f).Trace("Discovered")
	}
	return files, nil
}

// processFile decodes, resizes and writes a single file.
func (br *BatchResizer) processFile(path, outDir string) (*ResizedFile, error) {
	log := logger.WithFileOperation(br.logger, path, "resize")

	src, err := decodeFile(path, br.config.Resize.AutoOrient)
	if err != nil {
		return nil, err
	}

	bounds := src.img.Bounds()
	resized, err := Resize(src.img, br.spec, br.filter)
	if err != nil {
		return nil, err
	}

	outPath := filepath.Join(outDir, OutputName(path, br.config.Output.Suffix, br.config.Output.ExtensionRule))
	written, err := writeImage(outPath, resized, src.format, EncodeOptions{
		JPEGQuality: br.config.Output.JPEGQuality,
		WebPQuality: br.config.Output.WebPQuality,
	})
	if err != nil {
		return nil, err
	}

	if br.copier != nil {
		if err := br.copier.Copy(path, outPath); err != nil {
			log.Warnf("Could not carry metadata over: %v", err)
		}
	}

	br.stats.IncrementFilesResized()
	br.stats.IncrementFileType(src.format)
	br.stats.AddBytesRead(src.size)
	br.stats.AddBytesWritten(written)

	res := &ResizedFile{
		SourcePath:   path,
		OutputPath:   outPath,
		Format:       src.format,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
		Width:        resized.Bounds().Dx(),
		Height:       resized.Bounds().Dy(),
		BytesRead:    src.size,
		BytesWritten: written,
	}
	log.Debugf("Resized %dx%d -> %dx%d: %s", res.SourceWidth, res.SourceHeight, res.Width, res.Height, outPath)

	return res, nil
}
