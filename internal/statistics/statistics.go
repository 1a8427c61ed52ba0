package statistics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics contains all statistics for a batch resize run.
type Statistics struct {
	TotalFilesFound int64
	FilesResized    int64
	FilesWithErrors int64

	DirectoriesCreated int64

	BytesRead    int64
	BytesWritten int64

	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	FilesPerSecond float64
	MsecPerImage   float64

	Errors []StatError

	mutex sync.RWMutex

	FileTypeStats map[string]int64
}

// StatError represents an error that occurred during processing.
type StatError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// Snapshot is a copy of the counters safe to serialize.
type Snapshot struct {
	FilesFound     int64   `json:"files_found"`
	FilesResized   int64   `json:"files_resized"`
	FilesWithError int64   `json:"files_with_errors"`
	BytesRead      int64   `json:"bytes_read"`
	BytesWritten   int64   `json:"bytes_written"`
	DurationSecs   float64 `json:"duration_seconds"`
	MsecPerImage   float64 `json:"msec_per_image"`
	FilesPerSecond float64 `json:"files_per_second"`
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:     time.Now(),
		FileTypeStats: make(map[string]int64),
		Errors:        make([]StatError, 0),
	}
}

// Start resets the batch clock.
func (s *Statistics) Start() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.StartTime = time.Now()
}

// SetFilesFound records the size of the discovered file list.
func (s *Statistics) SetFilesFound(n int) {
	atomic.StoreInt64(&s.TotalFilesFound, int64(n))
}

// IncrementFilesResized increases the count of resized files by 1.
func (s *Statistics) IncrementFilesResized() {
	atomic.AddInt64(&s.FilesResized, 1)
}

// IncrementFilesWithErrors increases the count of files with errors by 1.
func (s *Statistics) IncrementFilesWithErrors() {
	atomic.AddInt64(&s.FilesWithErrors, 1)
}

// IncrementDirectoriesCreated increases the count of created directories by 1.
func (s *Statistics) IncrementDirectoriesCreated() {
	atomic.AddInt64(&s.DirectoriesCreated, 1)
}

// AddBytesRead adds to the total of source bytes read.
func (s *Statistics) AddBytesRead(n int64) {
	atomic.AddInt64(&s.BytesRead, n)
}

// AddBytesWritten adds to the total of output bytes written.
func (s *Statistics) AddBytesWritten(n int64) {
	atomic.AddInt64(&s.BytesWritten, n)
}

// IncrementFileType increases the count for a specific image format by 1.
func (s *Statistics) IncrementFileType(fileType string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.FileTypeStats[strings.ToUpper(fileType)]++
}

// Finalize calculates duration, files per second and the average time per image.
// Rates stay zero when nothing was resized.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	resized := atomic.LoadInt64(&s.FilesResized)
	s.FilesPerSecond = 0
	s.MsecPerImage = 0

	if resized > 0 {
		s.MsecPerImage = float64(s.Duration.Microseconds()) / 1000 / float64(resized)
		if s.Duration.Seconds() > 0 {
			s.FilesPerSecond = float64(resized) / s.Duration.Seconds()
		}
	}
}

// AddError records an error that occurred during processing.
func (s *Statistics) AddError(filePath, operation, errorMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Errors = append(s.Errors, StatError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// Snapshot returns the current counters.
func (s *Statistics) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return Snapshot{
		FilesFound:     atomic.LoadInt64(&s.TotalFilesFound),
		FilesResized:   atomic.LoadInt64(&s.FilesResized),
		FilesWithError: atomic.LoadInt64(&s.FilesWithErrors),
		BytesRead:      atomic.LoadInt64(&s.BytesRead),
		BytesWritten:   atomic.LoadInt64(&s.BytesWritten),
		DurationSecs:   s.Duration.Seconds(),
		MsecPerImage:   s.MsecPerImage,
		FilesPerSecond: s.FilesPerSecond,
	}
}

// GetSummary returns a formatted summary of all statistics.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return fmt.Sprintf(`imgtools Statistics Summary:

Files:
		Found: %d
		Resized: %d
		Errors: %d

Performance:
		Duration: %v
		Files/Second: %.2f
		Msec/Image: %.2f
		Bytes Read: %s
		Bytes Written: %s

Directories:
		Created: %d`,
		atomic.LoadInt64(&s.TotalFilesFound),
		atomic.LoadInt64(&s.FilesResized),
		atomic.LoadInt64(&s.FilesWithErrors),
		s.Duration.Round(time.Millisecond),
		s.FilesPerSecond,
		s.MsecPerImage,
		formatBytes(atomic.LoadInt64(&s.BytesRead)),
		formatBytes(atomic.LoadInt64(&s.BytesWritten)),
		atomic.LoadInt64(&s.DirectoriesCreated))
}

// GetFileTypeBreakdown returns a formatted breakdown of image formats processed.
func (s *Statistics) GetFileTypeBreakdown() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.FileTypeStats) == 0 {
		return "No file type statistics available"
	}

	types := make([]string, 0, len(s.FileTypeStats))
	for t := range s.FileTypeStats {
		types = append(types, t)
	}
	sort.Strings(types)

	var b strings.Builder
	b.WriteString("File Type Breakdown:\n")
	for _, t := range types {
		fmt.Fprintf(&b, "  %s: %d\n", t, s.FileTypeStats[t])
	}
	return b.String()
}

// GetErrorSummary returns a summary of errors that occurred during processing.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
