package routes

import (
	"sync"

	"github.com/gin-gonic/gin"
)

// Registry maps the names used in route definition files to Go handlers and middleware.
// The host fills it before the application starts.
type Registry struct {
	mu          sync.RWMutex
	handlers    map[string]HandlerFunc
	middlewares map[string]gin.HandlerFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:    make(map[string]HandlerFunc),
		middlewares: make(map[string]gin.HandlerFunc),
	}
}

// Handler registers h under name, replacing any previous handler.
func (r *Registry) Handler(name string, h HandlerFunc) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
	return r
}

// Middleware registers mw under name, replacing any previous middleware.
func (r *Registry) Middleware(name string, mw gin.HandlerFunc) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares[name] = mw
	return r
}

// MiddlewareDefault registers mw under name unless the name is already taken.
func (r *Registry) MiddlewareDefault(name string, mw gin.HandlerFunc) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.middlewares[name]; !ok {
		r.middlewares[name] = mw
	}
	return r
}

// LookupHandler returns the handler registered under name.
func (r *Registry) LookupHandler(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// LookupMiddleware returns the middleware registered under name.
func (r *Registry) LookupMiddleware(name string) (gin.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mw, ok := r.middlewares[name]
	return mw, ok
}
