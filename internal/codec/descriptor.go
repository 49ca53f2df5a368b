package codec

import (
	"bufio"
	"fmt"
	"io"

	"netgraph/internal/domain"

	"github.com/rs/zerolog"
)

const (
	FormatDescriptor = "descriptor"

	msgInvalidType = "invalid type declaration"
	msgInvalidLink = "invalid link declaration"
)

// Option configures a Parser
type Option func(*Parser)

// WithLogger makes the parser log each accepted directive at debug level
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithStrictNames rejects a type declaration whose name is already taken.
// Without it the first declaration of a name is the one links resolve to.
func WithStrictNames() Option {
	return func(p *Parser) {
		p.strict = true
	}
}

// Parser turns descriptor text into a Graph. A Parser holds no per-parse
// state and may be shared between goroutines.
type Parser struct {
	logger zerolog.Logger
	strict bool
}

// NewParser creates a parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses descriptor text with default options
func Parse(text string) (*domain.Graph, error) {
	return NewParser().Parse(text)
}

// Parse builds a graph from text. It stops at the first failing line and
// returns its *domain.Diagnostic; no partial graph is returned.
func (p *Parser) Parse(text string) (*domain.Graph, error) {
	b := domain.NewBuilder()
	for d := range Directives(text) {
		if err := p.apply(b, d); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func (p *Parser) apply(b *domain.Builder, d Directive) error {
	switch d.Kind {
	case DirectiveBlank, DirectiveComment:
		return nil
	case DirectiveType:
		return p.applyType(b, d)
	case DirectiveLink:
		return p.applyLink(b, d)
	}
	return domain.NewInvalidDirective(d.Line, d.Text)
}

func (p *Parser) applyType(b *domain.Builder, d Directive) error {
	if len(d.Fields) < 3 {
		return domain.NewParseError(d.Line, msgInvalidType)
	}
	code, name := d.Fields[1], d.Fields[2]

	assetType, err := domain.ParseAssetType(code, d.Fields[3:])
	if err != nil {
		return domain.NewObjectParseError(d.Line, code, err)
	}

	if p.strict {
		if first, exists := b.Lookup(name); exists {
			return domain.NewDuplicateAsset(d.Line, name, first)
		}
	}

	idx := b.AddNode(domain.NewNode(assetType, name))
	p.logger.Debug().
		Int("line", d.Line).
		Int("index", idx).
		Str("type", code).
		Str("name", name).
		Msg("asset declared")
	return nil
}

func (p *Parser) applyLink(b *domain.Builder, d Directive) error {
	if len(d.Fields) < 3 {
		return domain.NewBadLinkError(d.Line, msgInvalidLink)
	}
	from, to := d.Fields[1], d.Fields[2]

	link, err := b.AddLink(from, to)
	if err != nil {
		return domain.NewBadLinkError(d.Line, err.Error())
	}

	p.logger.Debug().
		Int("line", d.Line).
		Str("from", from).
		Str("to", to).
		Int("from_index", link.From).
		Int("to_index", link.To).
		Msg("link declared")
	return nil
}

// DescriptorCodec handles the line-oriented descriptor format
type DescriptorCodec struct {
	parser *Parser
}

// NewDescriptorCodec creates a new descriptor codec
func NewDescriptorCodec(opts ...Option) *DescriptorCodec {
	return &DescriptorCodec{parser: NewParser(opts...)}
}

// Format returns the codec format identifier
func (c *DescriptorCodec) Format() string {
	return FormatDescriptor
}

// Parse reads the whole descriptor from r and parses it
func (c *DescriptorCodec) Parse(r io.Reader) (*domain.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.NewIoError(err)
	}
	return c.parser.Parse(string(data))
}

// Export writes the graph as descriptor text: every node as a type line in
// index order, then every link. Parsing the output yields the same graph
// as long as node names are unique.
func (c *DescriptorCodec) Export(graph *domain.Graph, w io.Writer) error {
	bw := bufio.NewWriter(w)
	nodes := graph.Nodes()
	for _, n := range nodes {
		fmt.Fprintf(bw, "%s %s %s\n", keywordType, n.Type, n.Name)
	}
	for _, l := range graph.Links() {
		fmt.Fprintf(bw, "%s %s %s\n", keywordLink, nodes[l.From].Name, nodes[l.To].Name)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write descriptor: %w", err)
	}
	return nil
}
