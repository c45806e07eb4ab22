package routes

import (
	"fmt"
	"strings"

	"velkro/platform/logger"

	"github.com/gin-gonic/gin"
)

// methodAll registers a route on every HTTP method.
const methodAll = "all"

// Inventory maps a route base to its "METHOD path" entries in registration order.
// It is for diagnostics only and never consulted while serving requests.
type Inventory map[string][]string

// Clone returns a deep copy.
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for base, entries := range inv {
		out[base] = append([]string(nil), entries...)
	}
	return out
}

// Count returns the total number of registered routes.
func (inv Inventory) Count() int {
	n := 0
	for _, entries := range inv {
		n += len(entries)
	}
	return n
}

// Registrar flattens route groups into router registrations.
// It is used during initialization only and is not safe for concurrent use.
type Registrar struct {
	router    gin.IRoutes
	wrapper   *Wrapper
	global    []gin.HandlerFunc
	inventory Inventory
	log       *logger.Logger
}

// NewRegistrar creates a registrar. global middleware runs first on every route.
func NewRegistrar(router gin.IRoutes, wrapper *Wrapper, log *logger.Logger, global ...gin.HandlerFunc) *Registrar {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registrar{
		router:    router,
		wrapper:   wrapper,
		global:    global,
		inventory: make(Inventory),
		log:       log,
	}
}

// Inventory returns a copy of the routes registered so far.
func (r *Registrar) Inventory() Inventory {
	return r.inventory.Clone()
}

// Register flattens one group under routeBase. A group without a routes mapping
// and routes without a handler are skipped with a diagnostic. A router
// registration failure (for example a conflicting pattern) is returned.
func (r *Registrar) Register(routeBase string, group RouteGroup) error {
	return r.register(routeBase, group, 0)
}

// RegisterAll registers groups in order, stopping at the first error.
func (r *Registrar) RegisterAll(routeBase string, groups []RouteGroup) error {
	for i, group := range groups {
		if err := r.register(routeBase, group, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registrar) register(routeBase string, group RouteGroup, index int) error {
	if group.Routes == nil {
		r.log.RouteGroupSkipped(routeBase, index)
		return nil
	}

	groupChain := concat(r.global, group.Middleware)

	for _, mr := range group.Routes {
		method := strings.ToLower(mr.Method)
		for _, pr := range mr.Routes {
			path := strings.TrimPrefix(pr.Path, "/")

			handler, routeMiddleware, ok := resolveRoute(pr.Route)
			if !ok {
				r.log.RouteSkipped(routeBase, method, path, describe(pr.Route))
				continue
			}

			chain := concat(groupChain, routeMiddleware)
			chain = append(chain, r.wrapper.Wrap(handler))

			if err := r.handle(method, FullPath(routeBase, path), chain); err != nil {
				return fmt.Errorf("register %s %s: %w", strings.ToUpper(method), FullPath(routeBase, path), err)
			}
			r.inventory[routeBase] = append(r.inventory[routeBase], strings.ToUpper(method)+" "+path)
		}
	}
	return nil
}

// handle registers with the router, turning gin's registration panics into errors.
func (r *Registrar) handle(method, fullPath string, chain []gin.HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()

	if method == methodAll {
		r.router.Any(fullPath, chain...)
		return nil
	}
	r.router.Handle(strings.ToUpper(method), fullPath, chain...)
	return nil
}

func resolveRoute(route Route) (HandlerFunc, []gin.HandlerFunc, bool) {
	switch rt := route.(type) {
	case HandlerRoute:
		return rt.Handler, nil, rt.Handler != nil
	case *HandlerRoute:
		if rt == nil {
			return nil, nil, false
		}
		return rt.Handler, nil, rt.Handler != nil
	case ObjectRoute:
		return rt.Handler, rt.Middlewares, rt.Handler != nil
	case *ObjectRoute:
		if rt == nil {
			return nil, nil, false
		}
		return rt.Handler, rt.Middlewares, rt.Handler != nil
	default:
		return nil, nil, false
	}
}

func describe(route Route) string {
	switch rt := route.(type) {
	case HandlerRoute:
		if rt.Name != "" {
			return fmt.Sprintf("unknown handler %q", rt.Name)
		}
	case ObjectRoute:
		if rt.Name != "" {
			return fmt.Sprintf("unknown handler %q", rt.Name)
		}
		return "route object without handler"
	}
	return "missing route or handler"
}

func concat(a, b []gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(a)+len(b)+1)
	out = append(out, a...)
	return append(out, b...)
}
