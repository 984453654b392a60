package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/porterbay/transit/transittypes"
)

// Constants for progress bar configuration
const (
	progressBarWidth       = 40
	progressBarThrottle    = 65 * time.Millisecond
	progressBarSpinnerType = 14
)

// barObserver adapts a terminal progress bar to the engine's progress
// observer interface.
type barObserver struct {
	bar *progressbar.ProgressBar
}

func newBarObserver(description string) *barObserver {
	return &barObserver{bar: progressbar.NewOptions64(
		-1, // Unknown until the first snapshot
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionThrottle(progressBarThrottle),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(progressBarSpinnerType),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)}
}

func (o *barObserver) OnProgress(s transittypes.ProgressSnapshot) {
	if s.TotalBytes > 0 && o.bar.GetMax64() != s.TotalBytes {
		o.bar.ChangeMax64(s.TotalBytes)
	}
	_ = o.bar.Set64(s.TransferredBytes)
}
