package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"netgraph/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func dsn(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		pragmas += "&_pragma=journal_mode(WAL)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + pragmas
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS levels (
		name TEXT PRIMARY KEY,
		source TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS level_nodes (
		level TEXT NOT NULL,
		idx INTEGER NOT NULL,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (level, idx),
		FOREIGN KEY (level) REFERENCES levels(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS level_links (
		level TEXT NOT NULL,
		idx INTEGER NOT NULL,
		from_idx INTEGER NOT NULL,
		to_idx INTEGER NOT NULL,
		PRIMARY KEY (level, idx),
		FOREIGN KEY (level) REFERENCES levels(name) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_level_nodes_name ON level_nodes(level, name);
	`

	_, err := r.db.Exec(schema)
	return err
}

// GetLevel loads a level and rebuilds its graph
func (r *Repository) GetLevel(ctx context.Context, name string) (*domain.Level, error) {
	var (
		source    sql.NullString
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT source, updated_at FROM levels WHERE name = ?
	`, name).Scan(&source, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query level: %w", err)
	}

	nodes, err := r.loadNodes(ctx, name)
	if err != nil {
		return nil, err
	}
	links, err := r.loadLinks(ctx, name)
	if err != nil {
		return nil, err
	}

	graph, err := domain.FromParts(nodes, links)
	if err != nil {
		return nil, fmt.Errorf("stored level %s is inconsistent: %w", name, err)
	}

	return &domain.Level{
		Name:      name,
		Source:    nullToString(source),
		Graph:     graph,
		UpdatedAt: fromMillis(updatedAt),
	}, nil
}

func (r *Repository) loadNodes(ctx context.Context, level string) ([]domain.Node, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM level_nodes WHERE level = ? ORDER BY idx`, level)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.Node
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		if row.Index != len(nodes) {
			return nil, fmt.Errorf("level %s: node index gap at %d", level, len(nodes))
		}
		node, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return nodes, nil
}

func (r *Repository) loadLinks(ctx context.Context, level string) ([]domain.Link, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM level_links WHERE level = ? ORDER BY idx`, level)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		var row linkRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}
	return links, nil
}

// ListLevels returns a summary of every stored level ordered by name
func (r *Repository) ListLevels(ctx context.Context) ([]domain.LevelSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.name, l.updated_at,
			(SELECT COUNT(*) FROM level_nodes n WHERE n.level = l.name),
			(SELECT COUNT(*) FROM level_links k WHERE k.level = l.name)
		FROM levels l
		ORDER BY l.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query levels: %w", err)
	}
	defer rows.Close()

	summaries := []domain.LevelSummary{}
	for rows.Next() {
		var (
			s         domain.LevelSummary
			updatedAt int64
		)
		if err := rows.Scan(&s.Name, &updatedAt, &s.Nodes, &s.Links); err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		s.UpdatedAt = fromMillis(updatedAt)
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating levels: %w", err)
	}
	return summaries, nil
}

// SaveLevel stores a level, replacing the nodes and links of any level with
// the same name. UpdatedAt is set to now when zero.
func (r *Repository) SaveLevel(ctx context.Context, level *domain.Level) error {
	if level.Graph == nil {
		return fmt.Errorf("level %s has no graph", level.Name)
	}
	if level.UpdatedAt.IsZero() {
		level.UpdatedAt = time.Now()
	}
	ts := toMillis(level.UpdatedAt)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO levels (name, source, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			source = excluded.source,
			updated_at = excluded.updated_at
	`, level.Name, stringToNull(level.Source), ts, ts)
	if err != nil {
		return fmt.Errorf("failed to upsert level: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM level_links WHERE level = ?`, level.Name); err != nil {
		return fmt.Errorf("failed to clear links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM level_nodes WHERE level = ?`, level.Name); err != nil {
		return fmt.Errorf("failed to clear nodes: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO level_nodes (level, idx, type, name) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer nodeStmt.Close()

	for i, node := range level.Graph.Nodes() {
		if _, err := nodeStmt.ExecContext(ctx, nodeInsertArgs(level.Name, i, node)...); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", node.Name, err)
		}
	}

	linkStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO level_links (level, idx, from_idx, to_idx) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare link insert: %w", err)
	}
	defer linkStmt.Close()

	for i, link := range level.Graph.Links() {
		if _, err := linkStmt.ExecContext(ctx, linkInsertArgs(level.Name, i, link)...); err != nil {
			return fmt.Errorf("failed to insert link %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteLevel removes a level and reports whether it existed
func (r *Repository) DeleteLevel(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM levels WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete level: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
