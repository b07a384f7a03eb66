package batch

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// Progress renders a terminal progress bar for one batch.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a bar for total items writing to w.
func NewProgress(total int, w io.Writer) *Progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Progress{bar: bar}
}

// Observe advances the bar by one item.
func (p *Progress) Observe(item pipeline.ItemResult) {
	_ = p.bar.Add(1)
}

// Finish completes the bar.
func (p *Progress) Finish() error {
	return p.bar.Finish()
}
