package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar renders scan progress as a terminal progress bar. One-shot CSV runs
// point it at stderr so stdout stays clean for the export.
type Bar struct {
	output io.Writer
	bar    *progressbar.ProgressBar
}

// NewBar creates a progress bar writing to output.
func NewBar(output io.Writer) *Bar {
	return &Bar{output: output}
}

func (b *Bar) ScanStarted(totalFiles int) {
	b.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(b.output),
		progressbar.OptionSetDescription("Scanning transcripts"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(b.output)
		}),
	)
}

func (b *Bar) FileScanned(string) {
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

func (b *Bar) ScanFinished() {
	if b.bar != nil {
		_ = b.bar.Finish()
		b.bar = nil
	}
}
