package progress

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
)

// Bar is a terminal progress bar driven by per-file callbacks.
// A disabled Bar writes nothing.
type Bar struct {
	w       io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
}

// NewBar returns a Bar rendering to w.
func NewBar(w io.Writer, enabled bool) *Bar {
	return &Bar{w: w, enabled: enabled}
}

// Update moves the bar to done out of total and shows the current file name.
// It matches resizer.ProgressFunc.
func (b *Bar) Update(done, total int, file string) {
	if !b.enabled || total <= 0 {
		return
	}

	if b.bar == nil {
		b.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionSetDescription("Resizing"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("img"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(b.w)
			}),
		)
	}

	b.bar.Describe(filepath.Base(file))
	_ = b.bar.Set(done)
}

// Abort stops the bar where it is, leaving it incomplete.
func (b *Bar) Abort() error {
	if b.bar == nil {
		return nil
	}
	return b.bar.Exit()
}

// Finish completes the bar if it was started.
func (b *Bar) Finish() error {
	if b.bar == nil {
		return nil
	}
	return b.bar.Finish()
}
