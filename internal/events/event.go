// Package events defines the application's lifecycle and request-error events.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"velkro/platform/apperr"
	"velkro/platform/events"
	"velkro/platform/logger"

	"github.com/gin-gonic/gin"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// Event names of the application surface.
const (
	NameMiddlewareAdded   = "middleware-added"
	NameRoutesLoaded      = "routes-loaded"
	NameHTTPServerStarted = "http-server-started"
	NameExternalError     = "external-error"
	NameInternalError     = "internal-error"
	NameUnknownError      = "unknown-error"
	NameError             = "error"
	NameReady             = "ready"
)

// =============================================================================
// Lifecycle Events
// =============================================================================

// MiddlewareAdded is published once the application-wide middleware is installed.
type MiddlewareAdded struct {
	BaseEvent
	Engine *gin.Engine
}

func (e MiddlewareAdded) EventName() string { return NameMiddlewareAdded }

// RoutesLoaded is published after every route module has been registered.
type RoutesLoaded struct {
	BaseEvent
	Engine *gin.Engine
	// Inventory maps each route base to its "METHOD path" entries in registration order.
	Inventory map[string][]string
	// Files lists the route sources in registration order: file paths, and
	// "module:<name>" for modules declared in code.
	Files []string
}

func (e RoutesLoaded) EventName() string { return NameRoutesLoaded }

// HTTPServerStarted is published once the listening socket is bound.
type HTTPServerStarted struct {
	BaseEvent
	Engine *gin.Engine
	Addr   string
}

func (e HTTPServerStarted) EventName() string { return NameHTTPServerStarted }

// Ready is published exactly once, when initialization and listening are both done.
type Ready struct {
	BaseEvent
	Engine *gin.Engine
}

func (e Ready) EventName() string { return NameReady }

// =============================================================================
// Request Error Events
// =============================================================================

// RequestFailed is published when a route handler fails. Its name follows the
// error's classification: external-error, internal-error or unknown-error.
type RequestFailed struct {
	BaseEvent
	Kind   apperr.Kind
	Handle string
	Method string
	Path   string
	// Err is the original error, including details never sent to the client.
	Err error
}

func (e RequestFailed) EventName() string { return e.Kind.String() }

// ErrorOccurred is the generic "error" event published right after every RequestFailed.
type ErrorOccurred struct {
	RequestFailed
}

func (e ErrorOccurred) EventName() string { return NameError }
