package xmlrpc

import "fmt"

// Fault codes follow the XML-RPC fault-interoperability convention. Handlers
// are free to use their own positive codes; the negative ranges below are
// reserved for the dispatcher itself.
const (
	// CodeParseError: the request was not well-formed XML.
	CodeParseError = -32700
	// CodeInvalidRequest: well-formed XML that is not a valid methodCall.
	CodeInvalidRequest = -32600
	// CodeMethodNotFound: the requested method is not registered.
	CodeMethodNotFound = -32601
	// CodeInvalidParams: argument arity or type mismatch.
	CodeInvalidParams = -32602
	// CodeInternalError: the handler panicked or the server misbehaved.
	CodeInternalError = -32603
	// CodeApplicationError: the handler returned an error that is not a *Fault.
	CodeApplicationError = -32500
)

// Fault is an XML-RPC fault: a numeric code and a message in place of a
// result. Handlers return *Fault as an error to send a deliberate fault to
// the client; its code and message pass through verbatim.
type Fault struct {
	Code    int
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("xmlrpc: fault %d: %s", f.Code, f.Message)
}
