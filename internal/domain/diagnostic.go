package domain

import (
	"errors"
	"fmt"
)

// DiagnosticKind classifies why a descriptor failed to load
type DiagnosticKind string

const (
	KindIo               DiagnosticKind = "io_error"
	KindParse            DiagnosticKind = "parse_error"
	KindObjectParse      DiagnosticKind = "object_parse_error"
	KindInvalidDirective DiagnosticKind = "invalid_directive"
	KindBadLink          DiagnosticKind = "bad_link"
	KindDuplicateAsset   DiagnosticKind = "duplicate_asset"
)

// Diagnostic describes the first failure of a parse attempt. Line is the
// 1-based physical source line; it is zero for I/O failures.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Line    int            `json:"line,omitempty"`
	Object  string         `json:"object,omitempty"` // type code for object parse errors
	Text    string         `json:"text,omitempty"`   // trimmed source for invalid directives
	Message string         `json:"message,omitempty"`
	Err     error          `json:"-"`
}

// NewIoError wraps a failure to read descriptor text
func NewIoError(err error) *Diagnostic {
	return &Diagnostic{Kind: KindIo, Message: err.Error(), Err: err}
}

// NewParseError reports a malformed directive
func NewParseError(line int, msg string) *Diagnostic {
	return &Diagnostic{Kind: KindParse, Line: line, Message: msg}
}

// NewObjectParseError reports a type code the registry could not resolve
func NewObjectParseError(line int, code string, err error) *Diagnostic {
	return &Diagnostic{Kind: KindObjectParse, Line: line, Object: code, Message: err.Error(), Err: err}
}

// NewInvalidDirective reports a line that is neither a comment nor a known directive
func NewInvalidDirective(line int, text string) *Diagnostic {
	return &Diagnostic{Kind: KindInvalidDirective, Line: line, Text: text}
}

// NewBadLinkError reports a malformed link or an unresolved endpoint
func NewBadLinkError(line int, msg string) *Diagnostic {
	return &Diagnostic{Kind: KindBadLink, Line: line, Message: msg}
}

// NewDuplicateAsset reports a second declaration of a node name under strict naming
func NewDuplicateAsset(line int, name string, first int) *Diagnostic {
	return &Diagnostic{
		Kind:    KindDuplicateAsset,
		Line:    line,
		Object:  name,
		Message: fmt.Sprintf("asset %s already declared as node %d", name, first),
	}
}

func (d *Diagnostic) Error() string {
	switch d.Kind {
	case KindIo:
		return fmt.Sprintf("io error: %s", d.Message)
	case KindParse:
		return fmt.Sprintf("error: line %d: %s", d.Line, d.Message)
	case KindObjectParse:
		return fmt.Sprintf("object parse error: line %d, object %s: %s", d.Line, d.Object, d.Message)
	case KindInvalidDirective:
		return fmt.Sprintf("invalid directive at line %d: %s", d.Line, d.Text)
	case KindBadLink:
		return fmt.Sprintf("bad link at line %d: %s", d.Line, d.Message)
	case KindDuplicateAsset:
		return fmt.Sprintf("duplicate asset at line %d: %s", d.Line, d.Message)
	}
	return fmt.Sprintf("%s at line %d: %s", d.Kind, d.Line, d.Message)
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// IsKind reports whether err carries a Diagnostic of the given kind
func IsKind(err error, kind DiagnosticKind) bool {
	var d *Diagnostic
	return errors.As(err, &d) && d.Kind == kind
}

// AsDiagnostic extracts the Diagnostic from err, if any
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
