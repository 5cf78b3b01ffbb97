package xmlrpc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrMethodExists is returned by AddMethod when the name is already taken.
var ErrMethodExists = errors.New("method already registered")

// LogFunc receives one line of diagnostic text per fault. Panics inside the
// sink are swallowed; logging can never affect request handling.
type LogFunc func(line string)

// methodInfo is one registry entry: the handler plus advisory introspection
// metadata. Signatures are never used to validate calls.
type methodInfo struct {
	handler    Handler
	help       string
	signatures [][]string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the diagnostic log sink. The default discards everything.
func WithLogger(fn LogFunc) Option {
	return func(s *Server) {
		s.logFn = fn
	}
}

// MethodOption attaches metadata to a method at registration time.
type MethodOption func(*methodInfo)

// MethodHelp sets the method's help text, returned by system.methodHelp.
func MethodHelp(help string) MethodOption {
	return func(m *methodInfo) {
		m.help = help
	}
}

// MethodSignature records one advisory signature: the return type name
// followed by the parameter type names. A method may record several.
func MethodSignature(types ...string) MethodOption {
	return func(m *methodInfo) {
		m.signatures = append(m.signatures, types)
	}
}

// Server is the dispatch engine: it owns the method registry and turns
// request bytes into response bytes. The registry is guarded internally, so
// a single Server may be shared across goroutines.
type Server struct {
	mu      sync.RWMutex
	methods map[string]*methodInfo
	logFn   LogFunc
}

// NewServer creates an empty server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		methods: make(map[string]*methodInfo),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogger replaces the diagnostic log sink. A nil sink disables logging.
func (s *Server) SetLogger(fn LogFunc) {
	s.mu.Lock()
	s.logFn = fn
	s.mu.Unlock()
}

// AddMethod registers a handler under name. It fails if the name is empty,
// the handler is nil, or the name is already registered; an existing
// registration is never replaced.
func (s *Server) AddMethod(name string, h Handler, opts ...MethodOption) error {
	if name == "" {
		return errors.New("xmlrpc: empty method name")
	}
	if h == nil {
		return fmt.Errorf("xmlrpc: nil handler for method %q", name)
	}
	info := &methodInfo{handler: h}
	for _, opt := range opts {
		opt(info)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.methods[name]; exists {
		return fmt.Errorf("xmlrpc: %q: %w", name, ErrMethodExists)
	}
	s.methods[name] = info
	return nil
}

// RemoveMethod unregisters name and reports whether it was present. It is
// idempotent and never fails.
func (s *Server) RemoveMethod(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.methods[name]; !ok {
		return false
	}
	delete(s.methods, name)
	return true
}

// MethodNames returns a sorted snapshot of the registered method names.
func (s *Server) MethodNames() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// lookup fetches a registry entry.
func (s *Server) lookup(name string) (*methodInfo, bool) {
	s.mu.RLock()
	info, ok := s.methods[name]
	s.mu.RUnlock()
	return info, ok
}

// HandleRequest processes one encoded methodCall and returns the encoded
// methodResponse. It is total: every failure path becomes a fault response,
// and nothing propagates to the caller. Each fault is logged once through
// the configured sink before encoding.
func (s *Server) HandleRequest(request []byte) []byte {
	call, err := DecodeRequest(request)
	if err != nil {
		f := &Fault{Code: decodeFaultCode(err), Message: err.Error()}
		s.logf("xmlrpc: request rejected: fault %d: %s", f.Code, f.Message)
		return EncodeResponse(&MethodResponse{Fault: f})
	}

	params, fault := s.call(call.Name, call.Params)
	if fault != nil {
		return EncodeResponse(&MethodResponse{Fault: fault})
	}
	return EncodeResponse(&MethodResponse{Params: params})
}

// call dispatches one decoded call: registry lookup, handler invocation, and
// result packing. Faults are logged here so that HandleRequest and
// system.multicall share one diagnostic path.
func (s *Server) call(name string, args []Value) ([]Value, *Fault) {
	info, ok := s.lookup(name)
	if !ok {
		f := &Fault{Code: CodeMethodNotFound, Message: "Unknown method: " + name}
		s.logf("xmlrpc: method %q: fault %d: %s", name, f.Code, f.Message)
		return nil, f
	}

	results, err := s.invoke(info.handler, args)
	if err != nil {
		f := faultFor(err)
		s.logf("xmlrpc: method %q: fault %d: %s", name, f.Code, f.Message)
		return nil, f
	}
	return packParams(results), nil
}

// invoke runs the handler, recovering panics so HandleRequest stays total.
func (s *Server) invoke(h Handler, args []Value) (results []Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Fault{Code: CodeInternalError, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	return h(args)
}

// faultFor maps a handler error onto the fault taxonomy. A *Fault passes
// through verbatim; a marshalling failure is an invalid-params fault; any
// other error is an application error whose message names the error's type
// for operator diagnosis.
func faultFor(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	var me *MarshalError
	if errors.As(err, &me) {
		return &Fault{Code: CodeInvalidParams, Message: me.Error()}
	}
	return &Fault{Code: CodeApplicationError, Message: fmt.Sprintf("%T: %v", err, err)}
}

// decodeFaultCode distinguishes XML that fails to parse from XML that parses
// but is not a valid methodCall, per the fault-interoperability convention.
func decodeFaultCode(err error) int {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return CodeParseError
	}
	return CodeInvalidRequest
}

// logf formats one diagnostic line for the sink. A panicking sink is
// disarmed here rather than surfacing into request handling.
func (s *Server) logf(format string, args ...any) {
	s.mu.RLock()
	fn := s.logFn
	s.mu.RUnlock()
	if fn == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	fn(fmt.Sprintf(format, args...))
}
