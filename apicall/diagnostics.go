package apicall

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/s0up4200/grister/config"
)

// Diagnostics is the last request and, if one arrived, its response
type Diagnostics struct {
	CallID   string
	Request  *RequestTrace
	Response *ResponseTrace
}

// RequestTrace records a request as it was (or would have been) sent
type RequestTrace struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	// Prepared is false when the request could not be built
	Prepared bool
}

// ResponseTrace records a received response
type ResponseTrace struct {
	Status int
	Reason string
	URL    string
	Header http.Header
	// Body holds at most the configured number of bytes
	Body []byte
	// Streamed is set when the body went to a file instead of memory
	Streamed bool
}

func traceRequest(r *http.Request, maxBody int) *RequestTrace {
	trace := &RequestTrace{
		Method:   r.Method,
		URL:      r.URL.String(),
		Header:   r.Header.Clone(),
		Prepared: true,
	}
	if r.GetBody != nil {
		if body, err := r.GetBody(); err == nil {
			data, _ := io.ReadAll(io.LimitReader(body, int64(maxBody)))
			body.Close()
			trace.Body = data
		}
	}
	return trace
}

func toHeader(headers map[string]string) http.Header {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	return h
}

// maskedHeader returns a copy of h with the bearer token obfuscated
func maskedHeader(h http.Header) http.Header {
	masked := h.Clone()
	if auth := masked.Get("Authorization"); auth != "" {
		scheme, key, found := strings.Cut(auth, " ")
		if found {
			masked.Set("Authorization", scheme+" "+config.MaskAPIKey(key))
		} else {
			masked.Set("Authorization", config.MaskAPIKey(auth))
		}
	}
	return masked
}

func formatHeader(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(h[k], ", ")))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Inspect describes the last call for debugging, with the API key masked.
// Lines are joined with sep and response content is cut at maxContent bytes.
func (d *Dispatcher) Inspect(sep string, maxContent int) string {
	var lines []string
	cfg := "config: " + d.settings.RedactedDump(false)

	req := d.last.Request
	if req == nil {
		return strings.Join([]string{"request: no request data", cfg}, sep)
	}

	lines = append(lines,
		"request url: "+req.URL,
		"request method: "+req.Method,
		"request headers: "+formatHeader(maskedHeader(req.Header)),
		"request body: "+string(req.Body),
	)
	if !req.Prepared {
		lines = append(lines, "request: not prepared")
	}

	res := d.last.Response
	switch {
	case res == nil:
		lines = append(lines, "response: no response data")
	default:
		content := string(res.Body)
		if res.Streamed {
			content = "<streamed to file>"
		}
		if len(content) > maxContent {
			content = content[:maxContent]
		}
		lines = append(lines,
			"response url: "+res.URL,
			fmt.Sprintf("response result: %d %s", res.Status, res.Reason),
			"response headers: "+formatHeader(res.Header),
			"response content: "+content,
		)
	}

	lines = append(lines, cfg)
	return strings.Join(lines, sep)
}
