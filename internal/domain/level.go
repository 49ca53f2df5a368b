package domain

import (
	"fmt"
	"time"
)

// Level is a named, stored graph together with the descriptor text it was
// parsed from. Source is empty when the graph arrived in another format.
type Level struct {
	Name      string    `json:"name"`
	Source    string    `json:"source,omitempty"`
	Graph     *Graph    `json:"graph"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LevelSummary describes a stored level without its graph
type LevelSummary struct {
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	Links     int       `json:"links"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the listing entry for l
func (l *Level) Summary() LevelSummary {
	s := LevelSummary{Name: l.Name, UpdatedAt: l.UpdatedAt}
	if l.Graph != nil {
		s.Nodes = l.Graph.Len()
		s.Links = l.Graph.LinkCount()
	}
	return s
}

// ValidateLevelName checks that name can be used as a level key and as a
// URL path segment.
func ValidateLevelName(name string) error {
	if name == "" {
		return fmt.Errorf("level name is empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("level name longer than 128 bytes")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("level name %q contains %q", name, r)
		}
	}
	return nil
}
