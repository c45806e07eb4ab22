package routes

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// YAMLLoader reads route definition files written in YAML.
//
// A file is a sequence of route groups:
//
//	- middleware: login-required        # name or list of names ("middlewares" also accepted)
//	  routes:
//	    get:
//	      me: user.me                   # bare handler, by registered name
//	      profile:                      # handler with route-level middleware
//	        handler: user.profile
//	        middlewares: [audit]
//
// Methods and paths keep their declaration order. Handler names missing from the
// registry yield unresolved routes (skipped at registration); unknown middleware
// names and malformed structure are load errors.
type YAMLLoader struct {
	registry *Registry
}

// NewYAMLLoader creates a loader resolving names against registry.
func NewYAMLLoader(registry *Registry) *YAMLLoader {
	return &YAMLLoader{registry: registry}
}

// LoadModule reads and parses the file at path.
func (l *YAMLLoader) LoadModule(path string) ([]RouteGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.Parse(data)
}

// Parse interprets a YAML route module. An empty document has no groups.
func (l *YAMLLoader) Parse(data []byte) ([]RouteGroup, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse route module: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := resolve(doc.Content[0])
	if isNull(root) {
		return nil, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: route module must be a sequence of route groups", root.Line)
	}

	groups := make([]RouteGroup, 0, len(root.Content))
	for _, item := range root.Content {
		group, err := l.group(resolve(item))
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (l *YAMLLoader) group(node *yaml.Node) (RouteGroup, error) {
	var group RouteGroup
	if node.Kind != yaml.MappingNode {
		return group, fmt.Errorf("line %d: route group must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], resolve(node.Content[i+1])
		switch key.Value {
		case "middleware", "middlewares":
			mws, err := l.middlewares(value)
			if err != nil {
				return group, err
			}
			group.Middleware = append(group.Middleware, mws...)
		case "routes":
			if value.Kind != yaml.MappingNode {
				continue
			}
			methods, err := l.methods(value)
			if err != nil {
				return group, err
			}
			group.Routes = methods
		}
	}
	return group, nil
}

func (l *YAMLLoader) methods(node *yaml.Node) ([]MethodRoutes, error) {
	methods := make([]MethodRoutes, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], resolve(node.Content[i+1])
		mr := MethodRoutes{Method: key.Value}

		switch {
		case isNull(value):
		case value.Kind == yaml.MappingNode:
			for j := 0; j+1 < len(value.Content); j += 2 {
				path := value.Content[j].Value
				route, err := l.route(resolve(value.Content[j+1]))
				if err != nil {
					return nil, err
				}
				mr.Routes = append(mr.Routes, PathRoute{Path: path, Route: route})
			}
		default:
			return nil, fmt.Errorf("line %d: routes for method %q must be a mapping of path to route", value.Line, key.Value)
		}
		methods = append(methods, mr)
	}
	return methods, nil
}

func (l *YAMLLoader) route(node *yaml.Node) (Route, error) {
	switch {
	case node.Kind == yaml.ScalarNode && !isNull(node):
		h, _ := l.registry.LookupHandler(node.Value)
		return HandlerRoute{Name: node.Value, Handler: h}, nil

	case node.Kind == yaml.MappingNode:
		var route ObjectRoute
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], resolve(node.Content[i+1])
			switch key.Value {
			case "handler":
				if value.Kind == yaml.ScalarNode && !isNull(value) {
					route.Name = value.Value
					route.Handler, _ = l.registry.LookupHandler(value.Value)
				}
			case "middleware", "middlewares":
				mws, err := l.middlewares(value)
				if err != nil {
					return nil, err
				}
				route.Middlewares = append(route.Middlewares, mws...)
			}
		}
		return route, nil

	default:
		return HandlerRoute{}, nil
	}
}

// middlewares accepts a single name or a sequence of names.
func (l *YAMLLoader) middlewares(node *yaml.Node) ([]gin.HandlerFunc, error) {
	var names []*yaml.Node
	switch {
	case isNull(node):
		return nil, nil
	case node.Kind == yaml.ScalarNode:
		names = []*yaml.Node{node}
	case node.Kind == yaml.SequenceNode:
		for _, item := range node.Content {
			names = append(names, resolve(item))
		}
	default:
		return nil, fmt.Errorf("line %d: middleware must be a name or a list of names", node.Line)
	}

	mws := make([]gin.HandlerFunc, 0, len(names))
	for _, name := range names {
		if name.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: middleware name must be a string", name.Line)
		}
		mw, ok := l.registry.LookupMiddleware(name.Value)
		if !ok {
			return nil, fmt.Errorf("line %d: unknown middleware %q", name.Line, name.Value)
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null")
}

// Compile-time check that YAMLLoader implements ModuleLoader
var _ ModuleLoader = (*YAMLLoader)(nil)
