package apicall

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultChunkSize is the write size used when streaming downloads
	DefaultChunkSize = 100 * 1024
	// DefaultMaxSavedContent caps the body bytes kept for diagnostics
	DefaultMaxSavedContent = 5000

	sniffLen = 3072
)

// Dispatcher executes calls one at a time. It is not safe for concurrent use.
type Dispatcher struct {
	settings  Settings
	logger    zerolog.Logger
	transport TransportOptions
	chunkSize int
	maxSaved  int

	session *resty.Client
	dryRun  bool
	calls   int
	last    Diagnostics
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithTransport sets the options forwarded to the HTTP client
func WithTransport(opts TransportOptions) Option {
	return func(d *Dispatcher) {
		d.transport = opts
	}
}

// WithTimeout sets the transport timeout
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.transport.Timeout = timeout
	}
}

// WithChunkSize sets the download write size
func WithChunkSize(size int) Option {
	return func(d *Dispatcher) {
		if size > 0 {
			d.chunkSize = size
		}
	}
}

// WithMaxSavedContent caps the response bytes kept for diagnostics
func WithMaxSavedContent(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxSaved = n
		}
	}
}

// New creates a Dispatcher reading the API key and error policy from settings
func New(settings Settings, logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		settings:  settings,
		logger:    logger,
		chunkSize: DefaultChunkSize,
		maxSaved:  DefaultMaxSavedContent,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OpenSession starts a persistent session reused by every following call,
// keeping cookies and connections alive. An open session is replaced.
func (d *Dispatcher) OpenSession() {
	d.CloseSession()
	d.session = d.newClient()
}

// CloseSession closes the persistent session; a no-op when none is open
func (d *Dispatcher) CloseSession() {
	if d.session == nil {
		return
	}
	d.session.GetClient().CloseIdleConnections()
	d.session = nil
}

// HasSession reports whether a persistent session is open
func (d *Dispatcher) HasSession() bool {
	return d.session != nil
}

// SetDryRun toggles dry-run mode
func (d *Dispatcher) SetDryRun(dryRun bool) {
	d.dryRun = dryRun
}

// DryRun reports whether dry-run mode is active
func (d *Dispatcher) DryRun() bool {
	return d.dryRun
}

// Calls returns the number of requests actually sent
func (d *Dispatcher) Calls() int {
	return d.calls
}

// Diagnostics returns the last request and response. The traces are
// replaced, not modified, by later calls.
func (d *Dispatcher) Diagnostics() Diagnostics {
	return d.last
}

// Execute performs one call.
//
// An error is returned when the request cannot be prepared, when the
// download cannot be written, and, if raise-on-error is active, for error
// statuses (*HTTPError) and transport failures (*TransportError). In the
// last two cases the returned Outcome is filled in as well.
func (d *Dispatcher) Execute(ctx context.Context, call Call) (Outcome, error) {
	method := call.effectiveMethod()
	headers := d.headers(call)

	d.last = Diagnostics{
		CallID: uuid.NewString(),
		Request: &RequestTrace{
			Method: method,
			URL:    call.URL,
			Header: toHeader(headers),
		},
	}

	if call.OutputPath != "" && len(call.Uploads) > 0 {
		return Outcome{}, fmt.Errorf("failed to prepare request: %w", ErrConflictingModes)
	}

	client, release := d.client()
	defer release()

	req := client.R().SetContext(ctx).SetHeaders(headers)
	if len(call.Query) > 0 {
		req.SetQueryParamsFromValues(call.Query)
	}

	switch call.Mode() {
	case ModeDownload:
		req.SetDoNotParseResponse(true)
	case ModeUpload:
		for _, up := range call.Uploads {
			reader, contentType, err := sniff(up.Reader)
			if err != nil {
				return Outcome{}, fmt.Errorf("failed to prepare upload %s: %w", up.Name, err)
			}
			req.SetMultipartField(up.field(), up.Name, contentType, reader)
		}
	default:
		if call.Body != nil {
			data, err := json.Marshal(call.Body)
			if err != nil {
				return Outcome{}, fmt.Errorf("failed to encode request body: %w", err)
			}
			req.SetBody(data)
		}
	}

	start := time.Now()
	resp, err := req.Execute(method, call.URL)

	if d.last.Request.Prepared && d.dryRun {
		d.logger.Debug().
			Str("call_id", d.last.CallID).
			Str("method", method).
			Str("url", d.last.Request.URL).
			Msg("Dry run, request not sent")
		return Outcome{Status: StatusDryRun, Body: TextBody(DryRunBody)}, nil
	}

	if err != nil && !d.last.Request.Prepared {
		return Outcome{}, fmt.Errorf("failed to prepare request: %w", err)
	}

	if err != nil || resp == nil || resp.RawResponse == nil {
		if err == nil {
			err = errors.New("no response received")
		}
		return d.transportFailure(method, call.URL, err)
	}

	d.calls++
	return d.receive(call, resp, start)
}

// receive records and decodes a response
func (d *Dispatcher) receive(call Call, resp *resty.Response, start time.Time) (Outcome, error) {
	raw := resp.RawResponse
	status := resp.StatusCode()
	ok := status < http.StatusBadRequest

	trace := &ResponseTrace{
		Status: status,
		Reason: reason(raw),
		Header: raw.Header.Clone(),
	}
	if raw.Request != nil && raw.Request.URL != nil {
		trace.URL = raw.Request.URL.String()
	}
	d.last.Response = trace

	d.logger.Debug().
		Str("call_id", d.last.CallID).
		Str("method", d.last.Request.Method).
		Str("url", d.last.Request.URL).
		Str("mode", call.Mode().String()).
		Int("status", status).
		Dur("took", time.Since(start)).
		Msg("Grist API call")

	var data []byte
	if call.Mode() == ModeDownload {
		body := resp.RawBody()
		defer body.Close()

		if ok {
			if err := d.save(body, call.OutputPath); err != nil {
				return Outcome{Status: status, OK: false}, err
			}
			trace.Streamed = true
			return Outcome{Status: status, Body: NullBody(), OK: true}, nil
		}

		var err error
		data, err = io.ReadAll(body)
		if err != nil {
			return d.transportFailure(d.last.Request.Method, call.URL, err)
		}
	} else {
		data = resp.Body()
	}

	trace.Body = truncate(data, d.maxSaved)
	outcome := Outcome{Status: status, Body: DecodeBody(data), OK: ok}

	if !ok && d.settings.RaiseOnError() {
		return outcome, &HTTPError{
			Status: status,
			Reason: trace.Reason,
			Method: d.last.Request.Method,
			URL:    d.last.Request.URL,
			Body:   outcome.Body,
		}
	}
	return outcome, nil
}

func (d *Dispatcher) transportFailure(method, url string, err error) (Outcome, error) {
	terr := &TransportError{
		Kind:   classify(err),
		Method: method,
		URL:    url,
		Err:    err,
	}

	d.logger.Warn().
		Err(err).
		Str("call_id", d.last.CallID).
		Str("kind", terr.Kind.String()).
		Msg("Grist API call failed without a response")

	outcome := Outcome{Status: terr.Status(), Body: TextBody(err.Error()), Err: terr}
	if d.settings.RaiseOnError() {
		return outcome, terr
	}
	return outcome, nil
}

// save streams a download in chunkSize writes. The file is only created once
// a successful response has arrived; a partially written file is removed.
func (d *Dispatcher) save(body io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	buf := make([]byte, d.chunkSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				os.Remove(path)
				return fmt.Errorf("failed to write %s: %w", path, werr)
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			f.Close()
			os.Remove(path)
			return fmt.Errorf("failed to download %s: %w", path, rerr)
		}
	}

	return f.Close()
}

// headers builds the request headers. The Authorization header is always
// replaced with the configured key.
func (d *Dispatcher) headers(call Call) map[string]string {
	headers := make(map[string]string, len(call.Headers)+3)
	switch {
	case call.Headers != nil:
		for k, v := range call.Headers {
			if strings.EqualFold(k, "Authorization") {
				continue
			}
			headers[k] = v
		}
	case call.Mode() != ModeUpload:
		headers["Content-Type"] = "application/json"
		headers["Accept"] = "application/json"
	}

	if call.Body != nil && call.Mode() == ModeOrdinary && !hasHeader(headers, "Content-Type") {
		headers["Content-Type"] = "application/json"
	}

	headers["Authorization"] = "Bearer " + d.settings.APIKey()
	return headers
}

// client returns the session client, or a fresh one released after the call
func (d *Dispatcher) client() (*resty.Client, func()) {
	if d.session != nil {
		return d.session, func() {}
	}
	c := d.newClient()
	return c, func() { c.GetClient().CloseIdleConnections() }
}

func (d *Dispatcher) newClient() *resty.Client {
	c := resty.New().
		SetLogger(restyLogger{d.logger}).
		SetPreRequestHook(d.prepared)

	if d.transport.Timeout > 0 {
		c.SetTimeout(d.transport.Timeout)
	}
	if d.transport.InsecureSkipVerify {
		c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}
	if d.transport.Proxy != "" {
		c.SetProxy(d.transport.Proxy)
	}
	return c
}

// prepared runs on the fully built request right before it would be sent
func (d *Dispatcher) prepared(_ *resty.Client, r *http.Request) error {
	d.last.Request = traceRequest(r, d.maxSaved)
	if d.dryRun {
		return errDryRun
	}
	return nil
}

// classify sorts transport errors so callers can branch on the status alone
func classify(err error) TransportKind {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return TransportTimeout
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) ||
		(errors.As(err, &opErr) && opErr.Op == "dial") {
		return TransportConnection
	}

	return TransportOther
}

// sniff detects the content type of an upload without consuming it
func sniff(r io.Reader) (io.Reader, string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", err
	}
	head = head[:n]
	return io.MultiReader(bytes.NewReader(head), r), mimetype.Detect(head).String(), nil
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func reason(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

func truncate(data []byte, n int) []byte {
	if len(data) > n {
		data = data[:n]
	}
	return bytes.Clone(data)
}

// restyLogger routes resty's internal messages to zerolog
type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Debug().Str("source", "resty").Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Debug().Str("source", "resty").Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug().Str("source", "resty").Msgf(format, v...)
}
