package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"netgraph/internal/domain"
	"netgraph/internal/repository"
)

var _ repository.Repository = (*Repository)(nil)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// buildGraph makes a star of pcs around one router, plus a stray server
func buildGraph(t *testing.T) *domain.Graph {
	t.Helper()
	b := domain.NewBuilder()
	b.AddNode(domain.NewNode(domain.AssetPC, "l01"))
	b.AddNode(domain.NewNode(domain.AssetPC, "l02"))
	b.AddNode(domain.NewNode(domain.AssetRouter, "r01"))
	b.AddNode(domain.NewNode(domain.AssetServer, "s01"))
	for _, name := range []string{"l01", "l02"} {
		if _, err := b.AddLink(name, "r01"); err != nil {
			t.Fatalf("AddLink: %v", err)
		}
	}
	return b.Build()
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestNullToString(t *testing.T) {
	tests := []struct {
		name     string
		input    sql.NullString
		expected string
	}{
		{"valid string", sql.NullString{String: "hello", Valid: true}, "hello"},
		{"null", sql.NullString{}, ""},
		{"valid empty", sql.NullString{String: "", Valid: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.expected, nullToString(tt.input))
		})
	}
}

func TestStringToNull(t *testing.T) {
	assertEqual(t, sql.NullString{}, stringToNull(""))
	assertEqual(t, sql.NullString{String: "x", Valid: true}, stringToNull("x"))
}

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 123_000_000, time.UTC)
	assertEqual(t, ts, fromMillis(toMillis(ts)))
}

func TestNodeRowToDomain(t *testing.T) {
	row := nodeRow{Index: 0, Type: "firewall", Name: "fw"}
	node, err := row.toDomain()
	assertNoError(t, err)
	assertEqual(t, domain.NewNode(domain.AssetFirewall, "fw"), node)

	bad := nodeRow{Index: 3, Type: "toaster", Name: "x"}
	if _, err := bad.toDomain(); err == nil {
		t.Fatal("expected error for unknown asset type")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{":memory:", ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"a.db", "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"file:a.db?mode=rwc", "file:a.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
	}
	for _, tt := range tests {
		assertEqual(t, tt.expected, dsn(tt.path))
	}
}

// ============================================================================
// Level Tests
// ============================================================================

func TestSaveAndGetLevel(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	graph := buildGraph(t)

	err := repo.SaveLevel(ctx, &domain.Level{Name: "test01", Source: "# src\n", Graph: graph})
	assertNoError(t, err)

	got, err := repo.GetLevel(ctx, "test01")
	assertNoError(t, err)
	if got == nil {
		t.Fatal("expected level, got nil")
	}

	assertEqual(t, "test01", got.Name)
	assertEqual(t, "# src\n", got.Source)
	assertEqual(t, graph.Nodes(), got.Graph.Nodes())
	assertEqual(t, graph.Links(), got.Graph.Links())
	if got.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestGetLevelMissing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetLevel(context.Background(), "nope")
	assertNoError(t, err)
	if got != nil {
		t.Fatalf("expected nil level, got %+v", got)
	}
}

func TestSaveLevelReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveLevel(ctx, &domain.Level{Name: "lab", Graph: buildGraph(t)}))

	b := domain.NewBuilder()
	b.AddNode(domain.NewNode(domain.AssetInternet, "wan"))
	assertNoError(t, repo.SaveLevel(ctx, &domain.Level{Name: "lab", Graph: b.Build()}))

	got, err := repo.GetLevel(ctx, "lab")
	assertNoError(t, err)
	assertEqual(t, 1, got.Graph.Len())
	assertEqual(t, 0, got.Graph.LinkCount())
	assertEqual(t, "", got.Source)
}

func TestSaveLevelKeepsDuplicateNames(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b := domain.NewBuilder()
	b.AddNode(domain.NewNode(domain.AssetPC, "a"))
	b.AddNode(domain.NewNode(domain.AssetRouter, "a"))
	b.AddNode(domain.NewNode(domain.AssetSwitch, "s"))
	_, err := b.AddLink("a", "s")
	assertNoError(t, err)
	graph := b.Build()

	assertNoError(t, repo.SaveLevel(ctx, &domain.Level{Name: "dup", Graph: graph}))

	got, err := repo.GetLevel(ctx, "dup")
	assertNoError(t, err)
	assertEqual(t, graph.Nodes(), got.Graph.Nodes())
	assertEqual(t, []domain.Link{{From: 0, To: 2}}, got.Graph.Links())

	idx, ok := got.Graph.Lookup("a")
	assertEqual(t, true, ok)
	assertEqual(t, 0, idx)
}

func TestSaveLevelWithoutGraph(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.SaveLevel(context.Background(), &domain.Level{Name: "x"}); err == nil {
		t.Fatal("expected error saving level without graph")
	}
}

func TestListLevels(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.ListLevels(ctx)
	assertNoError(t, err)
	assertEqual(t, 0, len(empty))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assertNoError(t, repo.SaveLevel(ctx, &domain.Level{Name: "zeta", Graph: buildGraph(t), UpdatedAt: ts}))
	assertNoError(t, repo.SaveLevel(ctx, &domain.Level{Name: "alpha", Graph: domain.NewBuilder().Build(), UpdatedAt: ts}))

	levels, err := repo.ListLevels(ctx)
	assertNoError(t, err)
	assertEqual(t, []domain.LevelSummary{
		{Name: "alpha", Nodes: 0, Links: 0, UpdatedAt: ts},
		{Name: "zeta", Nodes: 4, Links: 2, UpdatedAt: ts},
	}, levels)
}

func TestDeleteLevel(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveLevel(ctx, &domain.Level{Name: "gone", Graph: buildGraph(t)}))

	deleted, err := repo.DeleteLevel(ctx, "gone")
	assertNoError(t, err)
	assertEqual(t, true, deleted)

	got, err := repo.GetLevel(ctx, "gone")
	assertNoError(t, err)
	if got != nil {
		t.Fatal("level still present after delete")
	}

	// cascade removed the rows
	var count int
	assertNoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM level_nodes WHERE level = 'gone'`).Scan(&count))
	assertEqual(t, 0, count)
	assertNoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM level_links WHERE level = 'gone'`).Scan(&count))
	assertEqual(t, 0, count)

	deleted, err = repo.DeleteLevel(ctx, "gone")
	assertNoError(t, err)
	assertEqual(t, false, deleted)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.db")
	ctx := context.Background()

	repo, err := New(path)
	assertNoError(t, err)
	assertNoError(t, repo.SaveLevel(ctx, &domain.Level{Name: "keep", Graph: buildGraph(t)}))
	assertNoError(t, repo.Close())

	repo, err = New(path)
	assertNoError(t, err)
	defer repo.Close()

	got, err := repo.GetLevel(ctx, "keep")
	assertNoError(t, err)
	assertEqual(t, 4, got.Graph.Len())
}

func TestContextCancelled(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := repo.SaveLevel(ctx, &domain.Level{Name: "x", Graph: buildGraph(t)}); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}
