package apicall

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel statuses for outcomes that did not come from a server response.
// They are negative so they never collide with a real HTTP status.
const (
	StatusDryRun           = -1
	StatusTimeout          = -2
	StatusConnectionFailed = -3
	StatusTransportError   = -4
)

// DryRunBody is the text body of every dry-run outcome
const DryRunBody = "dry run: request prepared but not sent"

// StatusText describes a status, sentinel or real
func StatusText(status int) string {
	switch status {
	case StatusDryRun:
		return "dry run"
	case StatusTimeout:
		return "transport timeout"
	case StatusConnectionFailed:
		return "connection failed"
	case StatusTransportError:
		return "transport error"
	}
	return fmt.Sprintf("HTTP %d", status)
}

// Outcome is the normalized result of one call
type Outcome struct {
	Status int
	Body   Body
	// OK is false when no response arrived or the status is an HTTP error
	OK bool
	// Err is the transport failure, if any
	Err error
}

// DryRun reports whether the outcome was fabricated by a dry run
func (o Outcome) DryRun() bool {
	return o.Status == StatusDryRun
}

// Envelope replaces the body with one field of a JSON object body, when the
// field is present. Grist wraps most list responses this way
// ({"records": [...]}); error bodies are left alone.
func (o Outcome) Envelope(field string) Outcome {
	if inner, ok := o.Body.Field(field); ok {
		o.Body = inner
	}
	return o
}

// BodyKind tags the content of a Body
type BodyKind int

const (
	BodyNull BodyKind = iota
	BodyJSON
	BodyText
)

// String returns the kind name
func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyText:
		return "text"
	default:
		return "null"
	}
}

// ErrNotJSON is returned when decoding a body that did not hold JSON
var ErrNotJSON = errors.New("response body is not json")

// Body is a decoded response body: null, a JSON value or raw text
type Body struct {
	kind  BodyKind
	value any
	text  string
}

// NullBody returns an empty body
func NullBody() Body {
	return Body{}
}

// JSONBody wraps a decoded JSON value. A nil value is a null body.
func JSONBody(v any) Body {
	if v == nil {
		return Body{}
	}
	return Body{kind: BodyJSON, value: v}
}

// TextBody wraps raw, non-JSON content
func TextBody(s string) Body {
	return Body{kind: BodyText, text: s}
}

// DecodeBody decodes raw response bytes. Empty content is null; content that
// is not valid JSON is kept as text.
func DecodeBody(raw []byte) Body {
	if len(raw) == 0 {
		return NullBody()
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return TextBody(string(raw))
	}
	return JSONBody(v)
}

// Kind returns the body kind
func (b Body) Kind() BodyKind {
	return b.kind
}

// IsNull reports whether the body is empty
func (b Body) IsNull() bool {
	return b.kind == BodyNull
}

// Value returns the JSON value, the text, or nil
func (b Body) Value() any {
	switch b.kind {
	case BodyJSON:
		return b.value
	case BodyText:
		return b.text
	}
	return nil
}

// Text returns the raw text of a text body
func (b Body) Text() (string, bool) {
	return b.text, b.kind == BodyText
}

// Object returns the body as a JSON object
func (b Body) Object() (map[string]any, bool) {
	m, ok := b.value.(map[string]any)
	return m, ok && b.kind == BodyJSON
}

// Array returns the body as a JSON array
func (b Body) Array() ([]any, bool) {
	a, ok := b.value.([]any)
	return a, ok && b.kind == BodyJSON
}

// Field returns one field of a JSON object body
func (b Body) Field(name string) (Body, bool) {
	obj, ok := b.Object()
	if !ok {
		return Body{}, false
	}
	v, ok := obj[name]
	if !ok {
		return Body{}, false
	}
	return JSONBody(v), true
}

// Decode converts a JSON body into v
func (b Body) Decode(v any) error {
	if b.kind != BodyJSON {
		return fmt.Errorf("%w: body is %s", ErrNotJSON, b.kind)
	}
	data, err := json.Marshal(b.value)
	if err != nil {
		return fmt.Errorf("failed to re-encode body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// MarshalJSON encodes the body as its JSON value, text as a JSON string and
// null as null
func (b Body) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Value())
}

// String formats the body for messages
func (b Body) String() string {
	switch b.kind {
	case BodyJSON:
		data, err := json.Marshal(b.value)
		if err != nil {
			return fmt.Sprintf("%v", b.value)
		}
		return string(data)
	case BodyText:
		return b.text
	}
	return "null"
}
