package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"netgraph/internal/codec"
	"netgraph/internal/domain"
	"netgraph/internal/loader"
	"netgraph/internal/metrics"
	"netgraph/internal/repository"

	"github.com/rs/zerolog"
)

var (
	// ErrLevelNotFound is returned when no level has the requested name
	ErrLevelNotFound = errors.New("level not found")
	// ErrInvalidLevelName wraps a name rejected by domain.ValidateLevelName
	ErrInvalidLevelName = errors.New("invalid level name")
)

// LevelService provides business logic for stored levels
type LevelService struct {
	repo     repository.Repository
	loader   *loader.Loader
	parser   *codec.Parser
	eventBus *EventBus
	metrics  *metrics.Registry
	logger   zerolog.Logger
}

// NewLevelService creates a new level service. Parser options apply to
// both file loads and imports.
func NewLevelService(repo repository.Repository, eventBus *EventBus, reg *metrics.Registry, logger zerolog.Logger, opts ...codec.Option) *LevelService {
	logger = logger.With().Str("component", "levels").Logger()
	return &LevelService{
		repo:     repo,
		loader:   loader.New(logger, opts...),
		parser:   codec.NewParser(append([]codec.Option{codec.WithLogger(logger)}, opts...)...),
		eventBus: eventBus,
		metrics:  reg,
		logger:   logger,
	}
}

// LoadFile parses a descriptor file and stores it under the file's base name
func (s *LevelService) LoadFile(ctx context.Context, path string) (*domain.Level, error) {
	name := loader.LevelName(path)
	if err := validateName(name); err != nil {
		return nil, err
	}

	res := s.loader.LoadResult(ctx, path)
	return s.store(ctx, name, res.Source, res.Graph, res.Err, res.Elapsed)
}

// LoadDir loads every descriptor file in dir concurrently and stores the ones
// that parse. Per-file failures are reported in the results, not as an error.
func (s *LevelService) LoadDir(ctx context.Context, dir string) ([]loader.Result, error) {
	paths, err := loader.FindDescriptors(dir)
	if err != nil {
		return nil, err
	}

	results, err := s.loader.LoadAll(ctx, paths)
	if err != nil {
		return results, err
	}

	for i, res := range results {
		name := loader.LevelName(res.Path)
		if err := validateName(name); err != nil {
			results[i].Err = err
			s.logger.Warn().Err(err).Str("path", res.Path).Msg("Skipping descriptor")
			continue
		}
		if _, err := s.store(ctx, name, res.Source, res.Graph, res.Err, res.Elapsed); err != nil {
			results[i].Err = err
		}
	}

	s.logger.Info().Str("dir", dir).Int("files", len(results)).Msg("Levels directory loaded")
	return results, nil
}

// Import parses descriptor text and stores it under name
func (s *LevelService) Import(ctx context.Context, name, text string) (*domain.Level, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	start := time.Now()
	graph, err := s.parser.Parse(text)
	return s.store(ctx, name, text, graph, err, time.Since(start))
}

// ImportFormat reads a level in any codec format. Descriptor input keeps its
// text as the level source; json and yaml input store the graph only.
func (s *LevelService) ImportFormat(ctx context.Context, name, format string, r io.Reader) (*domain.Level, error) {
	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}
	if c.Format() == codec.FormatDescriptor {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, domain.NewIoError(err)
		}
		return s.Import(ctx, name, string(data))
	}

	if err := validateName(name); err != nil {
		return nil, err
	}

	start := time.Now()
	graph, err := c.Parse(r)
	return s.store(ctx, name, "", graph, err, time.Since(start))
}

// store records the parse outcome and persists a successful graph
func (s *LevelService) store(ctx context.Context, name, source string, graph *domain.Graph, parseErr error, elapsed time.Duration) (*domain.Level, error) {
	if parseErr != nil {
		if errors.Is(parseErr, context.Canceled) || errors.Is(parseErr, context.DeadlineExceeded) {
			return nil, parseErr
		}
		s.metrics.RecordParse(resultLabel(parseErr), elapsed, 0)
		s.logger.Warn().Err(parseErr).Str("level", name).Msg("Descriptor rejected")
		s.eventBus.Publish(failedEvent(name, parseErr))
		return nil, parseErr
	}
	s.metrics.RecordParse(metrics.ResultOK, elapsed, graph.Len())

	level := &domain.Level{
		Name:      name,
		Source:    source,
		Graph:     graph,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveLevel(ctx, level); err != nil {
		return nil, fmt.Errorf("failed to save level %s: %w", name, err)
	}

	s.metrics.SetLevel(name, graph.Len(), graph.LinkCount())
	s.refreshLevelCount(ctx)

	s.logger.Info().
		Str("level", name).
		Int("nodes", graph.Len()).
		Int("links", graph.LinkCount()).
		Msg("Level stored")

	s.eventBus.Publish(loadedEvent(name, graph))

	return level, nil
}

// Get retrieves a stored level
func (s *LevelService) Get(ctx context.Context, name string) (*domain.Level, error) {
	level, err := s.repo.GetLevel(ctx, name)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, name)
	}
	return level, nil
}

// List returns a summary of every stored level
func (s *LevelService) List(ctx context.Context) ([]domain.LevelSummary, error) {
	return s.repo.ListLevels(ctx)
}

// Delete removes a stored level
func (s *LevelService) Delete(ctx context.Context, name string) error {
	deleted, err := s.repo.DeleteLevel(ctx, name)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrLevelNotFound, name)
	}

	s.metrics.RemoveLevel(name)
	s.refreshLevelCount(ctx)
	s.logger.Info().Str("level", name).Msg("Level deleted")

	s.eventBus.Publish(deletedEvent(name))
	return nil
}

// DeleteFile removes the level that was loaded from path
func (s *LevelService) DeleteFile(ctx context.Context, path string) error {
	return s.Delete(ctx, loader.LevelName(path))
}

// Export writes a stored level in the given codec format
func (s *LevelService) Export(ctx context.Context, name, format string, w io.Writer) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}

	level, err := s.Get(ctx, name)
	if err != nil {
		return err
	}

	// Buffer so a failed export never leaves a partial body behind
	var buf bytes.Buffer
	if err := c.Export(level.Graph, &buf); err != nil {
		return fmt.Errorf("failed to export level %s: %w", name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func (s *LevelService) refreshLevelCount(ctx context.Context) {
	levels, err := s.repo.ListLevels(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count levels")
		return
	}
	s.metrics.LevelsLoaded.Set(float64(len(levels)))
}

func validateName(name string) error {
	if err := domain.ValidateLevelName(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevelName, err)
	}
	return nil
}

// resultLabel maps a parse error to its metrics label
func resultLabel(err error) string {
	if d, ok := domain.AsDiagnostic(err); ok {
		return string(d.Kind)
	}
	return "error"
}
