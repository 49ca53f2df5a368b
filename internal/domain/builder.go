package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAsset is returned when a link names a node that has not been declared
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrLinkOutOfRange is returned when a link index does not point at a node
	ErrLinkOutOfRange = errors.New("link index out of range")
)

// Builder accumulates nodes and links for a single Graph. Nodes are indexed
// by append order and never renumbered. When several nodes share a name,
// lookups resolve to the first one declared.
type Builder struct {
	nodes []Node
	links []Link
	index map[string]int
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// AddNode appends a node and returns its index
func (b *Builder) AddNode(n Node) int {
	i := len(b.nodes)
	b.nodes = append(b.nodes, n)
	if _, exists := b.index[n.Name]; !exists {
		b.index[n.Name] = i
	}
	return i
}

// Lookup returns the index of the first node declared with name
func (b *Builder) Lookup(name string) (int, bool) {
	i, ok := b.index[name]
	return i, ok
}

// AddLink resolves both names against the nodes declared so far and appends
// the link. The returned error names the first endpoint that failed to resolve.
func (b *Builder) AddLink(from, to string) (Link, error) {
	fromIdx, ok := b.index[from]
	if !ok {
		return Link{}, fmt.Errorf("%w: %s", ErrUnknownAsset, from)
	}
	toIdx, ok := b.index[to]
	if !ok {
		return Link{}, fmt.Errorf("%w: %s", ErrUnknownAsset, to)
	}
	l := Link{From: fromIdx, To: toIdx}
	b.links = append(b.links, l)
	return l, nil
}

// AddLinkIndex appends a link between two existing node indices
func (b *Builder) AddLinkIndex(from, to int) error {
	n := len(b.nodes)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: (%d, %d) with %d nodes", ErrLinkOutOfRange, from, to, n)
	}
	b.links = append(b.links, Link{From: from, To: to})
	return nil
}

// Len returns the number of nodes added so far
func (b *Builder) Len() int {
	return len(b.nodes)
}

// Build returns the accumulated graph. The graph does not share storage with
// the builder.
func (b *Builder) Build() *Graph {
	g := &Graph{
		nodes: make([]Node, len(b.nodes)),
		links: make([]Link, len(b.links)),
		index: make(map[string]int, len(b.index)),
	}
	copy(g.nodes, b.nodes)
	copy(g.links, b.links)
	for name, i := range b.index {
		g.index[name] = i
	}
	return g
}
