// Package apicall executes single HTTP exchanges against the Grist API.
//
// A Dispatcher turns a Call into an Outcome. Which of the three interaction
// modes is used depends only on the fields set on the Call:
//
//   - ordinary: JSON request and response
//   - download: OutputPath is set, the method is forced to GET and the
//     response body is streamed to disk
//   - upload: Uploads is set, the method is forced to POST and the parts are
//     sent as multipart/form-data
//
// # Outcomes
//
// Every call reports a numeric status and a Body. Real HTTP statuses are
// passed through unchanged. Non-network outcomes use negative sentinel
// statuses that can never be confused with a server response:
//
//	StatusDryRun           request prepared, nothing sent
//	StatusTimeout          the transport timed out
//	StatusConnectionFailed DNS failure or connection refused
//	StatusTransportError   any other transport failure
//
// A response body that is empty decodes to a null Body; one that is not valid
// JSON degrades to a text Body instead of failing the call.
//
// # Errors
//
// Whether an HTTP error status or a transport failure is returned as an
// error (*HTTPError, *TransportError) or only reported through the Outcome is
// decided by Settings.RaiseOnError, read again on every call.
//
// # Safe mode
//
// Guard wraps operations tagged as mutating. While safe mode is active it
// runs them with the dispatcher forced into dry run, so diagnostics show what
// would have been sent, and then fails with *SafeModeError.
//
// # Concurrency
//
// A Dispatcher keeps the last request/response pair and an optional
// persistent session. It is not safe for concurrent use: use one dispatcher
// per goroutine or serialize calls to Execute.
package apicall
