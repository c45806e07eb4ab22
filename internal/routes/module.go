// Package routes turns route definition modules into gin registrations.
//
// # Pipeline
//
//	Discover(root, filename)         ordered file paths, deepest first
//	        │
//	        ▼
//	ModuleLoader.LoadModule(path)    []RouteGroup (YAMLLoader by default)
//	        │
//	        ▼
//	Registrar.Register(base, group)  METHOD path → global ++ group ++ route middleware ++ Wrap(handler)
//	        │
//	        ▼
//	Wrapper.Wrap(handler)            return value or error → response envelope, sent exactly once
//
// # Route Shapes
//
// A route is either a bare handler (HandlerRoute) or a handler with its own
// middleware (ObjectRoute). A route whose Handler is nil could not be resolved
// and is skipped at registration with a diagnostic.
package routes

import (
	"github.com/gin-gonic/gin"
)

// HandlerFunc is a route handler. Its result becomes the envelope's data; its
// error is classified into the envelope's errors.
type HandlerFunc func(c *gin.Context) (interface{}, error)

// Route is one of HandlerRoute or ObjectRoute.
type Route interface {
	route()
}

// HandlerRoute is a bare handler.
type HandlerRoute struct {
	// Name is the registry name the handler was resolved from, if any.
	Name    string
	Handler HandlerFunc
}

// ObjectRoute is a handler with route-level middleware, appended after the group's.
type ObjectRoute struct {
	Name        string
	Handler     HandlerFunc
	Middlewares []gin.HandlerFunc
}

func (HandlerRoute) route() {}
func (ObjectRoute) route()  {}

// PathRoute binds a path (relative to the route base) to a route.
type PathRoute struct {
	Path  string
	Route Route
}

// MethodRoutes holds the routes of one HTTP method in declaration order.
type MethodRoutes struct {
	Method string
	Routes []PathRoute
}

// RouteGroup is a bundle of routes sharing group-level middleware.
// A nil Routes means the group declared no routes mapping and is skipped;
// an empty non-nil Routes is a valid group that registers nothing.
type RouteGroup struct {
	Middleware []gin.HandlerFunc
	Routes     []MethodRoutes
}

// ModuleLoader interprets one route definition file.
type ModuleLoader interface {
	LoadModule(path string) ([]RouteGroup, error)
}

// ModuleLoaderFunc is an adapter to allow ordinary functions to be used as loaders.
type ModuleLoaderFunc func(path string) ([]RouteGroup, error)

// LoadModule calls the underlying function.
func (f ModuleLoaderFunc) LoadModule(path string) ([]RouteGroup, error) {
	return f(path)
}

// =============================================================================
// Builders for route groups declared in code
// =============================================================================

// Handle wraps h as a bare route.
func Handle(h HandlerFunc) Route {
	return HandlerRoute{Handler: h}
}

// With wraps h as a route with its own middleware.
func With(h HandlerFunc, middlewares ...gin.HandlerFunc) Route {
	return ObjectRoute{Handler: h, Middlewares: middlewares}
}

// Path binds path to route.
func Path(path string, route Route) PathRoute {
	return PathRoute{Path: path, Route: route}
}

// Method groups routes under an HTTP method.
func Method(method string, routes ...PathRoute) MethodRoutes {
	return MethodRoutes{Method: method, Routes: routes}
}

// Group builds a route group. Passing no methods still yields a valid, empty group.
func Group(middleware []gin.HandlerFunc, methods ...MethodRoutes) RouteGroup {
	if methods == nil {
		methods = []MethodRoutes{}
	}
	return RouteGroup{Middleware: middleware, Routes: methods}
}
