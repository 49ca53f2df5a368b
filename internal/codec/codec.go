package codec

import (
	"errors"
	"fmt"
	"io"

	"netgraph/internal/domain"
)

// ErrUnsupportedFormat is returned by ForFormat for an unknown format name
var ErrUnsupportedFormat = errors.New("unsupported format")

// ErrMalformed marks a json or yaml document that does not decode into a
// valid graph
var ErrMalformed = errors.New("malformed graph document")

// Importer interface for importing graph data from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Graph, error)
	Format() string
}

// Exporter interface for exporting graph data to various formats
type Exporter interface {
	Export(graph *domain.Graph, w io.Writer) error
	Format() string
}

// Codec both imports and exports a format
type Codec interface {
	Importer
	Exporter
}

// Formats lists the codec format identifiers accepted by ForFormat
func Formats() []string {
	return []string{FormatDescriptor, FormatJSON, FormatYAML}
}

// ForFormat returns the codec registered under format
func ForFormat(format string) (Codec, error) {
	switch format {
	case FormatDescriptor, "":
		return NewDescriptorCodec(), nil
	case FormatJSON:
		return NewJSONCodec(), nil
	case FormatYAML, "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
}
