package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"netgraph/internal/domain"
)

const FormatJSON = "json"

// JSONCodec reads and writes {"nodes": [...], "links": [...]} documents
type JSONCodec struct {
	indent string
}

// NewJSONCodec creates a JSON codec that indents output by two spaces
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{indent: "  "}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return FormatJSON
}

type jsonDocument struct {
	Nodes []domain.Node `json:"nodes"`
	Links []domain.Link `json:"links"`
}

// Parse decodes exactly one document. Unknown fields and trailing data are
// rejected, as are links that point past the node list.
func (c *JSONCodec) Parse(r io.Reader) (*domain.Graph, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc jsonDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON: %w", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON document", ErrMalformed)
	}

	graph, err := domain.FromParts(doc.Nodes, doc.Links)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSON graph: %w", ErrMalformed, err)
	}
	return graph, nil
}

// Export writes graph as one indented document followed by a newline
func (c *JSONCodec) Export(graph *domain.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", c.indent)
	if err := enc.Encode(jsonDocument{Nodes: graph.Nodes(), Links: graph.Links()}); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
