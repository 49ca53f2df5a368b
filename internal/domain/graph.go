package domain

import (
	"encoding/json"
	"fmt"
)

// Graph is the parsed network topology: nodes in declaration order and links
// as index pairs into that node list. A Graph is never mutated once built;
// accessors hand out copies.
type Graph struct {
	nodes []Node
	links []Link
	index map[string]int
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// LinkCount returns the number of links
func (g *Graph) LinkCount() int {
	return len(g.links)
}

// Nodes returns a copy of the node list
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Links returns a copy of the link list
func (g *Graph) Links() []Link {
	out := make([]Link, len(g.links))
	copy(out, g.links)
	return out
}

// Node returns the node at index i
func (g *Graph) Node(i int) (Node, bool) {
	if i < 0 || i >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Lookup returns the index of the first node declared with name
func (g *Graph) Lookup(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Neighbors returns the indices linked to node i in either direction, in link order
func (g *Graph) Neighbors(i int) []int {
	var out []int
	for _, l := range g.links {
		switch i {
		case l.From:
			out = append(out, l.To)
		case l.To:
			out = append(out, l.From)
		}
	}
	return out
}

// CountByType returns how many nodes of each asset type the graph holds
func (g *Graph) CountByType() map[AssetType]int {
	counts := make(map[AssetType]int)
	for _, n := range g.nodes {
		counts[n.Type]++
	}
	return counts
}

type graphJSON struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// MarshalJSON encodes the graph as {"nodes": [...], "links": [...]}
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{Nodes: g.Nodes(), Links: g.Links()})
}

// UnmarshalJSON decodes a graph and validates every link index
func (g *Graph) UnmarshalJSON(data []byte) error {
	var raw graphJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := FromParts(raw.Nodes, raw.Links)
	if err != nil {
		return err
	}
	*g = *built
	return nil
}

// FromParts assembles a graph from stored nodes and index links. It rejects
// node names a descriptor could not express and any link that does not point
// into nodes.
func FromParts(nodes []Node, links []Link) (*Graph, error) {
	b := NewBuilder()
	for i, n := range nodes {
		if err := ValidateNodeName(n.Name); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		b.AddNode(n)
	}
	for _, l := range links {
		if err := b.AddLinkIndex(l.From, l.To); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
