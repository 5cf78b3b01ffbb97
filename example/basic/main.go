package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mnehpets/xmlserve/endpoint"
	"github.com/mnehpets/xmlserve/xmlrpc"
)

// swapTwoIntegers returns its arguments in reverse order; the pair comes
// back as a two-element array.
func swapTwoIntegers(a, b int32) (int32, int32) {
	return b, a
}

// sortSomeDoubles sorts values ascending or descending.
func sortSomeDoubles(values []float64, ascending bool) []float64 {
	sorted := append([]float64(nil), values...)
	if ascending {
		sort.Float64s(sorted)
	} else {
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	}
	return sorted
}

// superDynamicMethod is a raw handler: it accepts any argument list and
// describes what it received.
func superDynamicMethod(args []xmlrpc.Value) ([]xmlrpc.Value, error) {
	descriptions := make([]xmlrpc.Value, len(args))
	for i, arg := range args {
		descriptions[i] = xmlrpc.String(fmt.Sprintf("arg %d: %v", i, arg))
	}
	return []xmlrpc.Value{xmlrpc.Array(descriptions)}, nil
}

func main() {
	// Load a .env file if one exists; a missing file is not an error.
	_ = godotenv.Load()

	addr := os.Getenv("XMLSERVE_ADDR")
	if addr == "" {
		addr = ":8000"
	}

	s := xmlrpc.NewServer(xmlrpc.WithLogger(func(line string) {
		log.Println(line)
	}))

	if err := s.AddMethod("swapTwoIntegers",
		xmlrpc.MustFunc(swapTwoIntegers),
		xmlrpc.MethodHelp("Returns the two integer arguments in reverse order."),
		xmlrpc.MethodSignature("array", "int", "int"),
	); err != nil {
		log.Fatal(err)
	}
	if err := s.AddMethod("sortSomeDoubles",
		xmlrpc.MustFunc(sortSomeDoubles),
		xmlrpc.MethodHelp("Sorts an array of doubles; pass true for ascending order."),
		xmlrpc.MethodSignature("array", "array", "boolean"),
	); err != nil {
		log.Fatal(err)
	}
	if err := s.AddMethod("superDynamicMethod",
		superDynamicMethod,
		xmlrpc.MethodHelp("Accepts any arguments and describes them."),
	); err != nil {
		log.Fatal(err)
	}

	if err := xmlrpc.AddIntrospection(s); err != nil {
		log.Fatal(err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Handle("/RPC2", endpoint.Handler(s,
		endpoint.Metrics(),
		endpoint.RateLimit(50, 100),
	))
	r.Handle("/metrics", promhttp.Handler())

	log.Println("Listening on", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal(err)
	}
}
