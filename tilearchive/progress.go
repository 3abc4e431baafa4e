package tilearchive

import (
	"sync"

	"github.com/schollz/progressbar/v3"
)

// ProgressReporter abstracts progress reporting for long-running
// operations (ImportMBTiles, ExtractBox) so callers can swap in a quiet
// or custom implementation without touching the operation itself.
type ProgressReporter interface {
	NewCountProgress(total int64, description string) ProgressBar
}

// ProgressBar is an active progress tracker.
type ProgressBar interface {
	Add(num int)
	Close() error
}

var (
	progressMu       sync.RWMutex
	progressReporter ProgressReporter = &defaultProgressReporter{}
)

// SetProgressReporter installs a custom progress reporter. Pass nil to
// silence all progress output.
func SetProgressReporter(pr ProgressReporter) {
	progressMu.Lock()
	defer progressMu.Unlock()
	if pr == nil {
		progressReporter = &quietProgressReporter{}
	} else {
		progressReporter = pr
	}
}

func currentProgressReporter() ProgressReporter {
	progressMu.RLock()
	defer progressMu.RUnlock()
	return progressReporter
}

type defaultProgressReporter struct{}

func (defaultProgressReporter) NewCountProgress(total int64, description string) ProgressBar {
	return &progressBarWrapper{bar: progressbar.Default(total, description)}
}

type progressBarWrapper struct {
	bar *progressbar.ProgressBar
}

func (p *progressBarWrapper) Add(num int) {
	if p.bar != nil {
		p.bar.Add(num)
	}
}

func (p *progressBarWrapper) Close() error {
	if p.bar != nil {
		return p.bar.Close()
	}
	return nil
}

type quietProgressReporter struct{}

func (quietProgressReporter) NewCountProgress(total int64, description string) ProgressBar {
	return quietProgressBar{}
}

type quietProgressBar struct{}

func (quietProgressBar) Add(int)      {}
func (quietProgressBar) Close() error { return nil }
