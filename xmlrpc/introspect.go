package xmlrpc

// Capability URLs reported by system.getCapabilities.
const (
	xmlrpcSpecURL        = "http://www.xmlrpc.com/spec"
	introspectionSpecURL = "http://phpxmlrpc.sourceforge.net/doc-2/ch10.html"
)

// AddIntrospection registers the system.* methods against s's own registry:
// system.listMethods, system.methodHelp, system.methodSignature,
// system.getCapabilities and system.multicall. It fails if any of those
// names is already taken.
func AddIntrospection(s *Server) error {
	type reg struct {
		name string
		h    Handler
		opts []MethodOption
	}
	regs := []reg{
		{
			name: "system.listMethods",
			h:    listMethods(s),
			opts: []MethodOption{
				MethodHelp("Returns an array of the names of all methods implemented by this server."),
				MethodSignature("array"),
			},
		},
		{
			name: "system.methodHelp",
			h:    methodHelp(s),
			opts: []MethodOption{
				MethodHelp("Returns the help text for the named method, or an empty string if none was recorded."),
				MethodSignature("string", "string"),
			},
		},
		{
			name: "system.methodSignature",
			h:    methodSignature(s),
			opts: []MethodOption{
				MethodHelp("Returns the recorded signatures of the named method as an array of arrays of type names, or the string \"undef\" if none were recorded."),
				MethodSignature("array", "string"),
			},
		},
		{
			name: "system.getCapabilities",
			h:    getCapabilities(),
			opts: []MethodOption{
				MethodHelp("Returns a struct describing the specifications this server implements."),
				MethodSignature("struct"),
			},
		},
		{
			name: "system.multicall",
			h:    multicall(s),
			opts: []MethodOption{
				MethodHelp("Executes an array of {methodName, params} calls and returns an array of per-call results; a failed call yields a faultCode/faultString struct in its slot."),
				MethodSignature("array", "array"),
			},
		},
	}
	for _, r := range regs {
		if err := s.AddMethod(r.name, r.h, r.opts...); err != nil {
			return err
		}
	}
	return nil
}

func listMethods(s *Server) Handler {
	return func(args []Value) ([]Value, error) {
		if len(args) != 0 {
			return nil, marshalErrf("got %d arguments, want 0", len(args))
		}
		names := s.MethodNames()
		out := make(Array, len(names))
		for i, name := range names {
			out[i] = String(name)
		}
		return []Value{out}, nil
	}
}

func methodHelp(s *Server) Handler {
	return MustFunc(func(name string) (string, error) {
		info, ok := s.lookup(name)
		if !ok {
			return "", &Fault{Code: CodeMethodNotFound, Message: "Unknown method: " + name}
		}
		return info.help, nil
	})
}

// methodSignature returns either an array of arrays of type-name strings or
// the bare string "undef" when no signatures were recorded. The two shapes
// are deliberate; callers of this protocol method expect both.
func methodSignature(s *Server) Handler {
	return MustFunc(func(name string) (Value, error) {
		info, ok := s.lookup(name)
		if !ok {
			return nil, &Fault{Code: CodeMethodNotFound, Message: "Unknown method: " + name}
		}
		if len(info.signatures) == 0 {
			return String("undef"), nil
		}
		out := make(Array, len(info.signatures))
		for i, sig := range info.signatures {
			entry := make(Array, len(sig))
			for j, typ := range sig {
				entry[j] = String(typ)
			}
			out[i] = entry
		}
		return out, nil
	})
}

func getCapabilities() Handler {
	caps := Struct{
		{Name: "xmlrpc", Value: Struct{
			{Name: "specUrl", Value: String(xmlrpcSpecURL)},
			{Name: "specVersion", Value: String("1")},
		}},
		{Name: "introspection", Value: Struct{
			{Name: "specUrl", Value: String(introspectionSpecURL)},
			{Name: "specVersion", Value: String("2")},
		}},
	}
	return func(args []Value) ([]Value, error) {
		if len(args) != 0 {
			return nil, marshalErrf("got %d arguments, want 0", len(args))
		}
		return []Value{caps}, nil
	}
}

// multicall implements boxcarred calls: one array of {methodName, params}
// structs in, one array of per-call outcomes out. A successful call
// contributes its response params as an array; a failed call contributes a
// faultCode/faultString struct. Recursion into system.multicall is refused.
func multicall(s *Server) Handler {
	return func(args []Value) ([]Value, error) {
		if len(args) != 1 {
			return nil, marshalErrf("got %d arguments, want 1", len(args))
		}
		calls, ok := args[0].(Array)
		if !ok {
			return nil, marshalErrf("argument 1: cannot convert %s to array of calls", kindName(args[0]))
		}

		out := make(Array, len(calls))
		for i, c := range calls {
			out[i] = multicallOne(s, c)
		}
		return []Value{out}, nil
	}
}

func multicallOne(s *Server, c Value) Value {
	st, ok := c.(Struct)
	if !ok {
		return faultStruct(&Fault{Code: CodeInvalidRequest, Message: "multicall entry is not a struct"})
	}
	nameVal, ok := st.Get("methodName")
	if !ok {
		return faultStruct(&Fault{Code: CodeInvalidRequest, Message: "multicall entry lacks methodName"})
	}
	name, ok := nameVal.(String)
	if !ok {
		return faultStruct(&Fault{Code: CodeInvalidRequest, Message: "multicall methodName is not a string"})
	}
	if string(name) == "system.multicall" {
		return faultStruct(&Fault{Code: CodeInvalidRequest, Message: "recursive system.multicall is not allowed"})
	}

	var params Array
	if pv, ok := st.Get("params"); ok {
		params, ok = pv.(Array)
		if !ok {
			return faultStruct(&Fault{Code: CodeInvalidRequest, Message: "multicall params is not an array"})
		}
	}

	results, fault := s.call(string(name), params)
	if fault != nil {
		return faultStruct(fault)
	}
	return Array(results)
}

func faultStruct(f *Fault) Struct {
	return Struct{
		{Name: "faultCode", Value: Int(f.Code)},
		{Name: "faultString", Value: String(f.Message)},
	}
}
