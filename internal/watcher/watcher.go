// Package watcher reloads level descriptors when files in the levels
// directory change.
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"netgraph/internal/metrics"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long a file must stay quiet before it is reported
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one directory and reports settled changes per file
type Watcher struct {
	dir      string
	match    func(path string) bool
	onChange func(path string)
	onRemove func(path string)
	debounce time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Registry
	ready    chan struct{}
}

// New creates a watcher for dir. Every regular file matches until
// WithFilter says otherwise.
func New(dir string, logger zerolog.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		match:    func(string) bool { return true },
		onChange: func(string) {},
		onRemove: func(string) {},
		debounce: DefaultDebounce,
		logger:   logger.With().Str("component", "watcher").Logger(),
		ready:    make(chan struct{}),
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// WithFilter limits reported files to those match accepts
func (w *Watcher) WithFilter(match func(path string) bool) *Watcher {
	w.match = match
	return w
}

// WithMetrics counts handled events in reg
func (w *Watcher) WithMetrics(reg *metrics.Registry) *Watcher {
	w.metrics = reg
	return w
}

// OnChange sets the callback for a file that was written or created
func (w *Watcher) OnChange(fn func(path string)) *Watcher {
	w.onChange = fn
	return w
}

// OnRemove sets the callback for a file that was removed or renamed away
func (w *Watcher) OnRemove(fn func(path string)) *Watcher {
	w.onRemove = fn
	return w
}

// Ready is closed once the directory is being watched
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Watch starts watching the directory. Callbacks run on the calling
// goroutine, one at a time. It blocks until the context is cancelled or an
// error occurs.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	w.logger.Info().Str("dir", w.dir).Msg("Watching for changes")
	close(w.ready)

	// last event kind per file, and its pending debounce timer. A timer that
	// fired after being superseded carries a stale generation and is dropped.
	type settle struct {
		path string
		gen  int
	}
	removed := make(map[string]bool)
	timers := make(map[string]*time.Timer)
	gens := make(map[string]int)
	settled := make(chan settle)

	defer func() {
		for _, timer := range timers {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.match(event.Name) {
				continue
			}

			var gone bool
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				gone = true
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				gone = false
			default:
				continue
			}

			path := event.Name
			removed[path] = gone
			gens[path]++
			gen := gens[path]
			if timer, exists := timers[path]; exists {
				timer.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				select {
				case settled <- settle{path: path, gen: gen}:
				case <-ctx.Done():
				}
			})

		case s := <-settled:
			if s.gen != gens[s.path] {
				continue
			}
			gone := removed[s.path]
			delete(timers, s.path)
			delete(removed, s.path)
			w.dispatch(s.path, gone)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) dispatch(path string, gone bool) {
	op := "change"
	if gone {
		op = "remove"
	}
	if w.metrics != nil {
		w.metrics.WatchEventsTotal.WithLabelValues(op).Inc()
	}

	w.logger.Info().Str("path", filepath.Clean(path)).Str("op", op).Msg("File settled")
	if gone {
		w.onRemove(path)
		return
	}
	w.onChange(path)
}
