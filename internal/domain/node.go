package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidNodeName is returned for a name a descriptor line cannot carry
var ErrInvalidNodeName = errors.New("invalid node name")

// Node is a declared network element. Its index in the owning Graph is its
// declaration order.
type Node struct {
	Type AssetType `json:"type" yaml:"type"`
	Name string    `json:"name" yaml:"name"`
}

// NewNode creates a node of the given type
func NewNode(assetType AssetType, name string) Node {
	return Node{Type: assetType, Name: name}
}

// Link connects two nodes by index. From and To keep declaration order;
// consumers decide whether the link is directed.
type Link struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// ValidateNodeName rejects names that are empty or contain whitespace, since
// descriptor fields are whitespace separated.
func ValidateNodeName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidNodeName)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidNodeName, name)
	}
	return nil
}
