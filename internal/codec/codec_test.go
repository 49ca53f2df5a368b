package codec

import (
	"bytes"
	"strings"
	"testing"

	"netgraph/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForFormat(t *testing.T) {
	for _, format := range Formats() {
		c, err := ForFormat(format)
		require.NoError(t, err, format)
		assert.Equal(t, format, c.Format())
	}

	_, err := ForFormat("ansible")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestStructuredCodecsRoundTrip(t *testing.T) {
	g, err := Parse(scenarioA)
	require.NoError(t, err)

	for _, c := range []Codec{NewJSONCodec(), NewYAMLCodec()} {
		t.Run(c.Format(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, c.Export(g, &buf))

			decoded, err := c.Parse(&buf)
			require.NoError(t, err)
			assert.Equal(t, g.Nodes(), decoded.Nodes())
			assert.Equal(t, g.Links(), decoded.Links())
		})
	}
}

func TestYAMLCodecFormat(t *testing.T) {
	g, err := Parse("type router r01\ntype pc l01\nlink l01 r01\n")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewYAMLCodec().Export(g, &buf))

	out := buf.String()
	assert.Contains(t, out, "type: router")
	assert.Contains(t, out, "name: l01")
	assert.Contains(t, out, "from: 1")
}

func TestStructuredCodecsRejectDanglingLinks(t *testing.T) {
	_, err := NewYAMLCodec().Parse(strings.NewReader("nodes:\n  - {type: pc, name: a}\nlinks:\n  - {from: 0, to: 3}\n"))
	assert.ErrorIs(t, err, domain.ErrLinkOutOfRange)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = NewJSONCodec().Parse(strings.NewReader(`{"nodes":[{"type":"toaster","name":"k"}],"links":[]}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestJSONCodecStrict(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", `{"nodes":[],"links":[],"edges":[]}`},
		{"trailing data", `{"nodes":[],"links":[]} {}`},
		{"dangling link", `{"nodes":[{"type":"pc","name":"a"}],"links":[{"from":0,"to":1}]}`},
		{"not an object", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONCodec().Parse(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	g, err := NewJSONCodec().Parse(strings.NewReader(`{"nodes":[{"type":"switch","name":"sw"}]}` + "\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, 0, g.LinkCount())
}

func TestYAMLCodecRejectsUnknownKeys(t *testing.T) {
	_, err := NewYAMLCodec().Parse(strings.NewReader("nodes: []\nedges: []\n"))
	assert.ErrorIs(t, err, ErrMalformed)

	g, err := NewYAMLCodec().Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestStructuredCodecsRejectUnwritableNames(t *testing.T) {
	tests := []struct {
		name string
		json string
		yaml string
	}{
		{
			"embedded newline",
			`{"nodes":[{"type":"pc","name":"a\nlink a a"}]}`,
			"nodes:\n  - {type: pc, name: \"a\\nlink a a\"}\n",
		},
		{
			"inner space",
			`{"nodes":[{"type":"pc","name":"b c"}]}`,
			"nodes:\n  - {type: pc, name: b c}\n",
		},
		{
			"empty",
			`{"nodes":[{"type":"router","name":""}]}`,
			"nodes:\n  - {type: router, name: \"\"}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONCodec().Parse(strings.NewReader(tt.json))
			assert.ErrorIs(t, err, ErrMalformed)
			assert.ErrorIs(t, err, domain.ErrInvalidNodeName)

			_, err = NewYAMLCodec().Parse(strings.NewReader(tt.yaml))
			assert.ErrorIs(t, err, ErrMalformed)
			assert.ErrorIs(t, err, domain.ErrInvalidNodeName)
		})
	}
}

func TestStructuredImportExportsAsDescriptor(t *testing.T) {
	g, err := NewJSONCodec().Parse(strings.NewReader(
		`{"nodes":[{"type":"pc","name":"l-01"},{"type":"router","name":"r.01"}],"links":[{"from":0,"to":1}]}`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewDescriptorCodec().Export(g, &buf))

	reparsed, err := Parse(buf.String())
	require.NoError(t, err)
	assert.Equal(t, g.Nodes(), reparsed.Nodes())
	assert.Equal(t, g.Links(), reparsed.Links())
}
