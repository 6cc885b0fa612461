package tui

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar draws download progress on a terminal. The bar is created on
// the first update, once the total size is known.
type ProgressBar struct {
	out         io.Writer
	description string
	bar         *progressbar.ProgressBar
}

// NewProgressBar creates a progress bar writing to out
func NewProgressBar(out io.Writer, description string) *ProgressBar {
	return &ProgressBar{out: out, description: description}
}

// Update moves the bar to written bytes of total
func (p *ProgressBar) Update(written, total int64) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions64(
			total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(p.description),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = p.bar.Set64(written)
}

// Finish completes the bar and ends its line. It does nothing if no
// progress was ever reported.
func (p *ProgressBar) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	fmt.Fprintln(p.out)
}
