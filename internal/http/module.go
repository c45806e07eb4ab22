// Package http provides the lifecycle coordinator that assembles the gin engine
// from route modules and reports a single readiness signal.
package http

import (
	"velkro/internal/routes"
)

// Module is a bundle of route groups declared in Go code instead of a route file.
// Code modules are registered alongside discovered route files and follow the
// same deepest-first ordering, their depth being the number of segments in RouteBase.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RouteBase is the path prefix of the module's routes, relative to the configured routes base.
	RouteBase() string
	// RouteGroups returns the groups to register, in order.
	RouteGroups() []routes.RouteGroup
}

// StaticModule is a Module with fixed contents.
type StaticModule struct {
	ModuleName string
	Base       string
	Groups     []routes.RouteGroup
}

func (m StaticModule) Name() string                     { return m.ModuleName }
func (m StaticModule) RouteBase() string                { return m.Base }
func (m StaticModule) RouteGroups() []routes.RouteGroup { return m.Groups }

// Compile-time check that StaticModule implements Module
var _ Module = StaticModule{}
