package codec

import (
	"errors"
	"fmt"
	"io"

	"netgraph/internal/domain"

	"gopkg.in/yaml.v3"
)

const FormatYAML = "yaml"

// YAMLCodec reads and writes the same nodes/links document as JSONCodec
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return FormatYAML
}

type yamlDocument struct {
	Nodes []domain.Node `yaml:"nodes"`
	Links []domain.Link `yaml:"links,omitempty"`
}

// Parse decodes the first document in r. An empty stream is an empty graph;
// unknown keys are rejected.
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Graph, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to parse YAML: %w", ErrMalformed, err)
	}

	graph, err := domain.FromParts(doc.Nodes, doc.Links)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid YAML graph: %w", ErrMalformed, err)
	}
	return graph, nil
}

// Export writes graph as a single YAML document indented by two spaces
func (c *YAMLCodec) Export(graph *domain.Graph, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDocument{Nodes: graph.Nodes(), Links: graph.Links()}); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
