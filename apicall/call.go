package apicall

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Settings is the live configuration a Dispatcher and a Guard read on every call
type Settings interface {
	APIKey() string
	RaiseOnError() bool
	SafeMode() bool
	RedactedDump(multiline bool) string
}

// Call describes one HTTP exchange. OutputPath selects download mode and
// Uploads selects upload mode; the two are mutually exclusive.
type Call struct {
	URL     string
	Method  string
	Headers map[string]string
	Query   url.Values
	// Body is serialized as JSON when non-nil
	Body any
	// OutputPath receives the streamed response body (download mode)
	OutputPath string
	// Uploads are sent as multipart parts (upload mode)
	Uploads []Upload
}

// Upload is one multipart part. The reader is owned by the caller, who opens
// it before the call and closes it afterwards.
type Upload struct {
	// Field is the form field name, "upload" when empty
	Field  string
	Name   string
	Reader io.Reader
}

// DefaultUploadField is the form field Grist expects attachments in
const DefaultUploadField = "upload"

func (u Upload) field() string {
	if u.Field == "" {
		return DefaultUploadField
	}
	return u.Field
}

// Mode is the interaction shape selected by a Call
type Mode int

const (
	ModeOrdinary Mode = iota
	ModeDownload
	ModeUpload
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeDownload:
		return "download"
	case ModeUpload:
		return "upload"
	default:
		return "ordinary"
	}
}

// Mode reports which interaction mode the call selects
func (c Call) Mode() Mode {
	switch {
	case c.OutputPath != "":
		return ModeDownload
	case len(c.Uploads) > 0:
		return ModeUpload
	default:
		return ModeOrdinary
	}
}

// effectiveMethod applies the per-mode method override. The requested method
// is advisory in download and upload mode.
func (c Call) effectiveMethod() string {
	switch c.Mode() {
	case ModeDownload:
		return http.MethodGet
	case ModeUpload:
		return http.MethodPost
	}
	if c.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(c.Method)
}

// TransportOptions are forwarded untouched to the HTTP client
type TransportOptions struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	Proxy              string
}
