package tables

import (
	"context"
	"os"
	"time"
)

// FileWatcher polls file modification times and triggers a callback on change.
type FileWatcher struct {
	Interval time.Duration

	paths     func() []string // re-read each tick so new set files are picked up
	onChange  func(string)    // called with path that changed
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher over the paths returned by paths.
func NewFileWatcher(paths func() []string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		Interval:  interval,
		paths:     paths,
		onChange:  onChange,
		lastMTime: make(map[string]time.Time),
	}
}

// Run polls until ctx is cancelled.
func (w *FileWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	// prime cache
	w.scanAll(true)
	for {
		select {
		case <-ticker.C:
			w.scanAll(false)
		case <-ctx.Done():
			return
		}
	}
}

// scanAll checks mtimes and invokes onChange for files that changed since
// last scan. A file appearing after the first scan counts as a change, and so
// does a known file disappearing.
func (w *FileWatcher) scanAll(prime bool) {
	current := w.paths()
	listed := make(map[string]bool, len(current))
	for _, p := range current {
		listed[p] = true
	}
	// a deleted set file also drops out of paths(); keep checking what we knew
	for p := range w.lastMTime {
		if !listed[p] {
			current = append(current, p)
		}
	}

	for _, p := range current {
		fi, err := os.Stat(p)
		if err != nil {
			_, known := w.lastMTime[p]
			delete(w.lastMTime, p)
			if known && !prime && w.onChange != nil {
				w.onChange(p)
			}
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime {
			continue
		}
		if (!ok || mt.After(last)) && w.onChange != nil {
			w.onChange(p)
		}
	}
}
