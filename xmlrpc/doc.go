// Package xmlrpc implements an XML-RPC server core: a dynamic value model,
// the XML wire codec, a typed parameter marshaller, and a dispatch engine
// with the standard fault taxonomy and system.* introspection methods.
//
// The package performs no I/O of its own. A transport (see the endpoint
// package for HTTP) feeds request bytes into Server.HandleRequest and writes
// the returned response bytes back to the caller.
//
// # Basic Usage
//
// Create a server, register methods, and hand it to a transport:
//
//	srv := xmlrpc.NewServer()
//	srv.AddMethod("swapTwoIntegers", xmlrpc.MustFunc(func(a, b int32) (int32, int32) {
//	    return b, a
//	}), xmlrpc.MethodHelp("Swaps two integers."))
//
//	resp := srv.HandleRequest(requestBytes)
//
// HandleRequest is total: it never returns an error and always produces a
// well-formed methodResponse document, using a fault response for every
// failure path.
//
// # Handlers
//
// A Handler works on the dynamic value level:
//
//	func(args []xmlrpc.Value) ([]xmlrpc.Value, error)
//
// Func adapts an ordinary typed Go function into a Handler. The function's
// signature is inspected once at registration; each call then checks arity
// and converts every argument through composed converter closures:
//
//	h, err := xmlrpc.Func(func(values []float64, ascending bool) []float64 { ... })
//
// Multiple results are packed into a single array value, since an XML-RPC
// response carries at most one logical return value.
//
// # Faults
//
// Handlers signal a deliberate fault by returning *Fault:
//
//	return nil, &xmlrpc.Fault{Code: 1, Message: "no such user"}
//
// The fault's code and message are passed through to the client verbatim.
// Any other error becomes an application-error fault (CodeApplicationError)
// whose message carries the error's type and text.
//
// Fault codes follow the XML-RPC fault-interoperability convention
// (CodeParseError, CodeMethodNotFound, ...); see fault.go.
//
// # Introspection
//
// AddIntrospection registers system.listMethods, system.methodHelp,
// system.methodSignature, system.getCapabilities and system.multicall
// against the server's own registry.
//
// # Concurrency
//
// AddMethod, RemoveMethod and HandleRequest may be called from multiple
// goroutines; the registry is guarded internally. Handler code itself must
// be safe for concurrent invocation.
package xmlrpc
