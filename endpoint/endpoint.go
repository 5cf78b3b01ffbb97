// Package endpoint adapts an xmlrpc.Server to net/http.
//
// The server core is transport-free: it maps request bytes to response
// bytes. This package supplies the HTTP glue — it enforces the POST and
// Content-Type rules of XML-RPC over HTTP, bounds the request body, pipes
// the body through Server.HandleRequest, and writes the result back.
//
// Processors can be chained as middleware to intercept requests before they
// reach the server core; see RateLimit and Metrics for two provided ones.
// Processor errors surface as plain HTTP error responses, never as XML-RPC
// faults: the request was refused before it reached the protocol layer.
package endpoint

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mnehpets/xmlserve/xmlrpc"
)

// MaxRequestBytes bounds the request body an endpoint will read. XML-RPC
// payloads are small; anything near this limit is either abuse or a client
// bug.
const MaxRequestBytes = 2 << 20

// EndpointError is a client-visible error that maps directly to an HTTP
// status code. The handler wrapper uses it to translate processor errors
// into HTTP responses.
type EndpointError struct {
	Status int
	// Message is a short, human-readable description suitable for an HTTP error body.
	Message string
	Cause   error
}

func (e *EndpointError) Error() string {
	if e == nil {
		return "endpoint: error: <nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
		if msg == "" {
			msg = "unknown error"
		}
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *EndpointError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Error creates a new EndpointError. An err that is already an
// EndpointError is returned unchanged.
func Error(status int, message string, err error) error {
	var ee *EndpointError
	if errors.As(err, &ee) {
		return err
	}
	return &EndpointError{Status: status, Message: message, Cause: err}
}

// Processor is middleware-style logic that runs before the RPC server.
//
// Protocol:
//   - Processors MUST call next(...), unless they intend to
//     short-circuit the request.
//   - Processors MUST NOT call w.WriteHeader(...).
//   - Processors MUST NOT write to the response body.
//
// Error handling:
//   - If any processor returns a non-nil error, the chain stops immediately
//     and that error is rendered as an HTTP error response.
type Processor interface {
	Process(w http.ResponseWriter, r *http.Request, next func(w http.ResponseWriter, r *http.Request) error) error
}

// ProcessorFunc adapts a function to a Processor.
type ProcessorFunc func(w http.ResponseWriter, r *http.Request, next func(w http.ResponseWriter, r *http.Request) error) error

func (f ProcessorFunc) Process(w http.ResponseWriter, r *http.Request, next func(w http.ResponseWriter, r *http.Request) error) error {
	return f(w, r, next)
}

// RPCHandler is the http.Handler wrapping one xmlrpc.Server.
type RPCHandler struct {
	Server     *xmlrpc.Server
	Processors []Processor
}

// Handler constructs an RPCHandler for s.
func Handler(s *xmlrpc.Server, processors ...Processor) *RPCHandler {
	return &RPCHandler{
		Server:     s,
		Processors: processors,
	}
}

// ServeHTTP implements http.Handler.
func (h *RPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Server == nil {
		http.Error(w, "endpoint: nil Server", http.StatusInternalServerError)
		return
	}

	// Call each processor in order, then the RPC core.
	var run func(i int, w2 http.ResponseWriter, r2 *http.Request) error
	run = func(i int, w2 http.ResponseWriter, r2 *http.Request) error {
		if i < 0 || i > len(h.Processors) {
			// Sanity check failure.
			return errors.New("endpoint: invalid processor index")
		} else if i < len(h.Processors) {
			if h.Processors[i] == nil {
				return errors.New("endpoint: nil processor")
			}
			return h.Processors[i].Process(w2, r2, func(w3 http.ResponseWriter, r3 *http.Request) error {
				return run(i+1, w3, r3)
			})
		}
		return h.serveRPC(w2, r2)
	}

	if err := run(0, w, r); err != nil {
		status := http.StatusInternalServerError
		message := ""

		var ee *EndpointError
		// Check if the error already encodes a valid HTTP status.
		if errors.As(err, &ee) && ee != nil {
			if ee.Status >= 100 {
				status = ee.Status
			}
			if ee.Message == "" {
				message = http.StatusText(status)
			} else {
				message = ee.Message
			}
		} else {
			message = err.Error()
		}
		http.Error(w, message, status)
	}
}

// serveRPC performs the actual body-in/body-out exchange with the server
// core. From here on every failure is an XML-RPC fault, not an HTTP error.
func (h *RPCHandler) serveRPC(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return Error(http.StatusMethodNotAllowed, "XML-RPC requires POST method", nil)
	}

	// Per XML-RPC over HTTP, requests are text/xml; application/xml also
	// appears in the wild and is accepted.
	contentType := r.Header.Get("Content-Type")
	if contentType != "" &&
		!strings.HasPrefix(contentType, "text/xml") &&
		!strings.HasPrefix(contentType, "application/xml") {
		return Error(http.StatusUnsupportedMediaType, "Content-Type must be text/xml", nil)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBytes+1))
	if err != nil {
		return Error(http.StatusBadRequest, "failed to read request body", err)
	}
	if len(body) > MaxRequestBytes {
		return Error(http.StatusRequestEntityTooLarge, "request body too large", nil)
	}

	resp := h.Server.HandleRequest(body)

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(resp)))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(resp)
	return err
}
