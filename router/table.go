package router

import (
	"iter"
	"strings"

	"github.com/indigo-web/microrest/http"
	"github.com/indigo-web/microrest/http/method"
)

// Route binds a handler to a path and a method. Routes are immutable once registered.
type Route struct {
	Path    string
	Method  method.Method
	Handler http.Handler
}

// Table is an ordered, append-only collection of routes. It's filled once at startup and
// only read afterwards, so it needs no locking.
//
// Uniqueness isn't checked: a route with an already registered path and method is kept,
// but unreachable, as Match always returns the first one registered.
type Table struct {
	routes []Route
}

func NewTable() *Table {
	return new(Table)
}

// Register appends a route. Paths not starting with a slash are registered as if they
// did, so "status" and "/status" are the same route.
func (t *Table) Register(path string, m method.Method, handler http.Handler) {
	t.routes = append(t.routes, Route{
		Path:    normalize(path),
		Method:  m,
		Handler: handler,
	})
}

// Match scans the routes in registration order and returns the handler of the first one
// whose path is byte-equal to the requested one and whose method matches.
func (t *Table) Match(path string, m method.Method) (handler http.Handler, found bool) {
	for _, route := range t.routes {
		if route.Method == m && route.Path == path {
			return route.Handler, true
		}
	}

	return nil, false
}

// Routes iterates over the routes in registration order.
func (t *Table) Routes() iter.Seq[Route] {
	return func(yield func(Route) bool) {
		for _, route := range t.routes {
			if !yield(route) {
				return
			}
		}
	}
}

// Len returns the number of registered routes, shadowed ones included.
func (t *Table) Len() int {
	return len(t.routes)
}

func normalize(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}

	return path
}
