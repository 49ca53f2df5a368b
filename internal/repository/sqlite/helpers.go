package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"netgraph/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Timestamps are stored as unix milliseconds
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ============================================================================
// Node Row Scanner
// ============================================================================

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	Index int
	Type  string
	Name  string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match nodeColumns order exactly: idx, type, name
func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.Index, // 1
		&r.Type,  // 2
		&r.Name,  // 3
	}
}

// toDomain converts the scanned row to a domain.Node
func (r *nodeRow) toDomain() (domain.Node, error) {
	t, err := domain.ParseAssetType(r.Type, nil)
	if err != nil {
		return domain.Node{}, fmt.Errorf("node %d: %w", r.Index, err)
	}
	return domain.NewNode(t, r.Name), nil
}

// nodeColumns returns the SELECT column list for node queries
const nodeColumns = `idx, type, name`

// ============================================================================
// Link Row Scanner
// ============================================================================

// linkRow holds all columns from a link query for scanning
type linkRow struct {
	Index int
	From  int
	To    int
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match linkColumns order exactly: idx, from_idx, to_idx
func (r *linkRow) scanArgs() []interface{} {
	return []interface{}{
		&r.Index, // 1
		&r.From,  // 2
		&r.To,    // 3
	}
}

// toDomain converts the scanned row to a domain.Link
func (r *linkRow) toDomain() domain.Link {
	return domain.Link{From: r.From, To: r.To}
}

// linkColumns returns the SELECT column list for link queries
const linkColumns = `idx, from_idx, to_idx`

// ============================================================================
// Write Helpers
// ============================================================================

// nodeInsertArgs prepares arguments for a level_nodes INSERT
// Returns: level, idx, type, name
func nodeInsertArgs(level string, idx int, node domain.Node) []interface{} {
	return []interface{}{level, idx, node.Type.String(), node.Name}
}

// linkInsertArgs prepares arguments for a level_links INSERT
// Returns: level, idx, from_idx, to_idx
func linkInsertArgs(level string, idx int, link domain.Link) []interface{} {
	return []interface{}{level, idx, link.From, link.To}
}
