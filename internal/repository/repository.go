package repository

import (
	"context"

	"netgraph/internal/domain"
)

// Repository defines the interface for level persistence
type Repository interface {
	// Read operations. GetLevel returns nil, nil when no level has that name.
	GetLevel(ctx context.Context, name string) (*domain.Level, error)
	ListLevels(ctx context.Context) ([]domain.LevelSummary, error)

	// Write operations. SaveLevel replaces any level stored under the same name.
	SaveLevel(ctx context.Context, level *domain.Level) error
	DeleteLevel(ctx context.Context, name string) (bool, error)

	// Close releases resources
	Close() error
}
