// Package loader supplies descriptor text from disk to the parser.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"netgraph/internal/codec"
	"netgraph/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many files LoadAll reads at once
const DefaultConcurrency = 8

// Result is the outcome of loading one descriptor file. Elapsed covers
// reading and parsing that file only.
type Result struct {
	Path    string
	Source  string
	Graph   *domain.Graph
	Err     error
	Elapsed time.Duration
}

// Loader reads descriptor files and parses them
type Loader struct {
	parser      *codec.Parser
	logger      zerolog.Logger
	readFile    func(string) ([]byte, error)
	concurrency int
}

// New creates a loader. Parser options are applied to every file.
func New(logger zerolog.Logger, opts ...codec.Option) *Loader {
	return &Loader{
		parser:      codec.NewParser(append([]codec.Option{codec.WithLogger(logger)}, opts...)...),
		logger:      logger,
		readFile:    os.ReadFile,
		concurrency: DefaultConcurrency,
	}
}

// WithConcurrency sets the LoadAll worker limit
func (l *Loader) WithConcurrency(n int) *Loader {
	if n > 0 {
		l.concurrency = n
	}
	return l
}

// Load reads and parses one file. If ctx ends first Load returns ctx.Err()
// and the read is abandoned.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Graph, error) {
	res := l.LoadResult(ctx, path)
	return res.Graph, res.Err
}

// LoadResult is Load, but also returns the descriptor text that was parsed
func (l *Loader) LoadResult(ctx context.Context, path string) Result {
	done := make(chan Result, 1)

	go func() {
		start := time.Now()
		data, err := l.readFile(path)
		if err != nil {
			done <- Result{Path: path, Err: domain.NewIoError(err), Elapsed: time.Since(start)}
			return
		}
		text := string(data)
		g, err := l.parser.Parse(text)
		done <- Result{Path: path, Source: text, Graph: g, Err: err, Elapsed: time.Since(start)}
	}()

	select {
	case <-ctx.Done():
		return Result{Path: path, Err: ctx.Err()}
	case res := <-done:
		if res.Err != nil {
			l.logger.Debug().Err(res.Err).Str("path", path).Msg("descriptor rejected")
			return res
		}
		l.logger.Debug().
			Str("path", path).
			Int("nodes", res.Graph.Len()).
			Int("links", res.Graph.LinkCount()).
			Msg("descriptor loaded")
		return res
	}
}

// LoadAll loads every path concurrently. Results keep the order of paths; a
// failing file does not stop the others. The returned error is only set when
// ctx ends before all files are done.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			results[i] = l.LoadResult(ctx, path)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// LevelName derives a level name from a descriptor path: the base name
// without its extension.
func LevelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsDescriptor reports whether path looks like a level descriptor file
func IsDescriptor(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".net", ".level":
		return true
	}
	return false
}

// FindDescriptors lists descriptor files directly inside dir, sorted by name
func FindDescriptors(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.NewIoError(err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsDescriptor(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
