// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
)

// Logger wraps a zap sugared logger for structured logging
type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

// New creates a new logger based on environment.
// Development uses the console encoder at debug level; anything else logs JSON at info.
func New(env string) *Logger {
	var (
		base *zap.Logger
		err  error
	)

	if strings.EqualFold(env, "development") {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		base = zap.NewNop()
	}

	return wrap(base)
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return wrap(zap.NewNop())
}

// From wraps an existing zap logger.
func From(base *zap.Logger) *Logger {
	return wrap(base)
}

func wrap(base *zap.Logger) *Logger {
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

// Zap exposes the underlying zap logger for middleware that needs it.
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

// Named returns a child logger scoped to a component.
func (l *Logger) Named(name string) *Logger {
	return wrap(l.base.Named(name))
}

// WithContext returns a logger carrying the request ID from ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		return l.WithRequestID(requestID)
	}
	return l
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return wrap(l.base.With(zap.String("request_id", requestID)))
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.base.Info("http_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Float64("latency_ms", latencyMs),
		zap.String("client_ip", clientIP),
	)
}

// RequestError logs a classified handler error.
func (l *Logger) RequestError(kind, handle, method, path string, err error) {
	l.base.Warn("request_error",
		zap.String("kind", kind),
		zap.String("handle", handle),
		zap.String("method", method),
		zap.String("path", path),
		zap.Error(err),
	)
}

// StateTokenFailed logs a response sent without its state token.
func (l *Logger) StateTokenFailed(method, path string, err error) {
	l.base.Error("state_token_failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Error(err),
	)
}

// RouteGroupSkipped logs a route group that has no routes mapping.
func (l *Logger) RouteGroupSkipped(routeBase string, index int) {
	l.base.Warn("route group without 'routes' mapping",
		zap.String("route_base", routeBase),
		zap.Int("group", index),
	)
}

// RouteSkipped logs a route whose handler could not be resolved.
func (l *Logger) RouteSkipped(routeBase, method, path, reason string) {
	l.base.Debug("missing route or handler",
		zap.String("route_base", routeBase),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("reason", reason),
	)
}

// RoutesLoaded logs the number of routes registered per route base.
func (l *Logger) RoutesLoaded(files int, inventory map[string][]string) {
	total := 0
	for _, routes := range inventory {
		total += len(routes)
	}
	l.base.Info("routes loaded",
		zap.Int("files", files),
		zap.Int("routes", total),
		zap.Any("inventory", inventory),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.base.Warn("rate_limit_exceeded",
		zap.String("client_ip", clientIP),
		zap.String("path", path),
	)
}
