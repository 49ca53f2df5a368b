package codec

import (
	"iter"
	"strings"
)

// DirectiveKind classifies one physical line of a descriptor
type DirectiveKind int

const (
	DirectiveBlank DirectiveKind = iota
	DirectiveComment
	DirectiveType
	DirectiveLink
	DirectiveUnknown
)

const (
	keywordType = "type"
	keywordLink = "link"
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveBlank:
		return "blank"
	case DirectiveComment:
		return "comment"
	case DirectiveType:
		return "type"
	case DirectiveLink:
		return "link"
	}
	return "unknown"
}

// Directive is a classified source line. Fields holds the whitespace-split
// trimmed text, keyword included.
type Directive struct {
	Line   int
	Kind   DirectiveKind
	Text   string
	Fields []string
}

// Skip reports whether the line carries no directive
func (d Directive) Skip() bool {
	return d.Kind == DirectiveBlank || d.Kind == DirectiveComment
}

// Classify tokenizes a single line. line is the 1-based source line number.
func Classify(line int, raw string) Directive {
	text := strings.TrimSpace(raw)
	d := Directive{Line: line, Text: text}

	switch {
	case text == "":
		d.Kind = DirectiveBlank
		return d
	case strings.HasPrefix(text, "#"):
		d.Kind = DirectiveComment
		return d
	}

	d.Fields = strings.Fields(text)
	switch d.Fields[0] {
	case keywordType:
		d.Kind = DirectiveType
	case keywordLink:
		d.Kind = DirectiveLink
	default:
		d.Kind = DirectiveUnknown
	}
	return d
}

// Directives yields every physical line of text classified, numbered from 1.
// Blank and comment lines are yielded too so that line numbers stay exact.
func Directives(text string) iter.Seq[Directive] {
	return func(yield func(Directive) bool) {
		line := 0
		for raw := range strings.Lines(text) {
			line++
			if !yield(Classify(line, raw)) {
				return
			}
		}
	}
}
