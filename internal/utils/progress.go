package utils

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// DescDownloading labels the asset download bar
const DescDownloading = "Downloading assets"

// NewProgressBar creates a counting progress bar on w, or stderr when w is
// nil. The bar ends its line when it completes.
//
//	bar := utils.NewProgressBar(nil, len(entries), utils.DescDownloading)
//	defer bar.Finish()
func NewProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
	)
}
