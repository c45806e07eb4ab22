package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"velkro/internal/events"
	"velkro/internal/readiness"
	"velkro/internal/routes"
	"velkro/platform/config"
	"velkro/platform/httpkit"
	"velkro/platform/logger"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Names of the middleware every application registers unless the host already did.
const (
	MiddlewareLoginRequired = "login-required"
	MiddlewareRateLimit     = "rate-limit"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var (
	errAlreadyStarted = errors.New("application already started")
	errNilConfig      = errors.New("application config is required")
)

// AppConfig combines the config interfaces needed by the coordinator.
type AppConfig interface {
	config.HTTPConfig
	config.RoutesConfig
	config.CORSConfig
	config.JWTConfig
}

// Option customizes an App.
type Option func(*App)

// WithMiddlewares sets the global middleware that runs first on every registered route.
func WithMiddlewares(middlewares ...gin.HandlerFunc) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, middlewares...)
	}
}

// WithModules adds route modules declared in code.
func WithModules(modules ...Module) Option {
	return func(a *App) {
		a.modules = append(a.modules, modules...)
	}
}

// WithLoader replaces the YAML route module loader.
func WithLoader(loader routes.ModuleLoader) Option {
	return func(a *App) {
		a.loader = loader
	}
}

// WithBus replaces the in-memory event bus.
func WithBus(bus events.Bus) Option {
	return func(a *App) {
		a.bus = bus
	}
}

// WithRootDir sets the directory a relative modules dir is resolved against.
// Defaults to the working directory.
func WithRootDir(dir string) Option {
	return func(a *App) {
		a.rootDir = dir
	}
}

// App coordinates startup: middleware installation, route loading and the
// optional HTTP server. Ready closes exactly once, after routes are loaded and
// the socket is bound (or right after loading when no server is started).
type App struct {
	cfg         AppConfig
	log         *logger.Logger
	registry    *routes.Registry
	loader      routes.ModuleLoader
	bus         events.Bus
	middlewares []gin.HandlerFunc
	modules     []Module
	rootDir     string
	cors        *cors.Config

	engine *gin.Engine
	ready  *readiness.Barrier[*gin.Engine]
	group  errgroup.Group

	mu        sync.Mutex
	started   bool
	server    *http.Server
	addr      string
	inventory routes.Inventory
	sources   []string
}

// New creates an application. Handlers and middleware named in route files are
// resolved against registry when Start runs, so the host may keep filling it until then.
func New(cfg AppConfig, log *logger.Logger, registry *routes.Registry, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if log == nil {
		log = logger.NewNop()
	}
	if registry == nil {
		registry = routes.NewRegistry()
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		registry: registry,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.bus == nil {
		a.bus = events.NewInMemoryBus(log)
	}
	if a.loader == nil {
		a.loader = routes.NewYAMLLoader(registry)
	}

	if cfg.IsCORSEnabled() {
		cc := corsConfig(cfg)
		if err := cc.Validate(); err != nil {
			return nil, fmt.Errorf("cors: %w", err)
		}
		a.cors = &cc
	}

	registry.MiddlewareDefault(MiddlewareLoginRequired, httpkit.RequireState())
	if rps, burst := cfg.GetRateLimit(); rps > 0 {
		limiter := httpkit.NewIPRateLimiter(rate.Limit(rps), burst, log)
		registry.MiddlewareDefault(MiddlewareRateLimit, limiter.RateLimit())
	}

	a.engine = gin.New()
	a.ready = readiness.NewBarrier[*gin.Engine](readiness.PermitInit, readiness.PermitListening)
	if !cfg.ShouldStartHTTPServer() {
		a.ready.Arrive(readiness.PermitListening, a.engine)
	}
	return a, nil
}

// On subscribes handler to the named application event.
func (a *App) On(eventName string, handler events.Handler) {
	a.bus.Subscribe(eventName, handler)
}

// Start installs middleware, loads every route module and, when configured,
// starts serving in the background. Any error aborts startup and is also
// reported by Wait.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return errAlreadyStarted
	}
	a.started = true
	a.mu.Unlock()

	if err := a.init(ctx); err != nil {
		a.ready.Fail(err)
		return err
	}
	return nil
}

func (a *App) init(ctx context.Context) error {
	a.installMiddleware()
	a.publish(ctx, events.MiddlewareAdded{BaseEvent: events.NewBaseEvent(), Engine: a.engine})

	if err := a.loadRoutes(); err != nil {
		return fmt.Errorf("load routes: %w", err)
	}
	inventory, sources := a.Inventory(), a.Sources()
	a.log.RoutesLoaded(len(sources), inventory)
	a.publish(ctx, events.RoutesLoaded{
		BaseEvent: events.NewBaseEvent(),
		Engine:    a.engine,
		Inventory: inventory,
		Files:     sources,
	})

	if a.cfg.ShouldStartHTTPServer() {
		a.serve(ctx)
	}
	a.arrive(ctx, readiness.PermitInit)
	return nil
}

func (a *App) installMiddleware() {
	e := a.engine
	e.Use(ginzap.RecoveryWithZap(a.log.Zap(), true))
	e.Use(httpkit.RequestID())
	e.Use(httpkit.RequestLogger(a.log))
	if a.cors != nil {
		e.Use(cors.New(*a.cors))
	}
	if limit := a.cfg.GetBodyLimit(); limit > 0 {
		e.Use(httpkit.BodyLimit(limit))
	}

	send := httpkit.Sender(httpkit.WriteEnvelope)
	if secret := a.cfg.GetJWTSecret(); secret != "" {
		send = httpkit.TokenSender(secret, a.log, send)
		e.Use(httpkit.EnvelopeMiddleware(send), httpkit.BearerState(secret))
	} else {
		e.Use(httpkit.EnvelopeMiddleware(send))
	}

	e.HandleMethodNotAllowed = true
	e.NoRoute(httpkit.NotFound())
	e.NoMethod(httpkit.MethodNotAllowed())
}

// routeSource is a route file or a code module waiting to be registered.
type routeSource struct {
	name  string
	base  string
	depth int
	load  func() ([]routes.RouteGroup, error)
}

func (a *App) loadRoutes() error {
	sources, err := a.collectSources()
	if err != nil {
		return err
	}
	routes.SortBySpecificity(sources, func(i int) int { return sources[i].depth })

	log := a.log.Named("routes")
	registrar := routes.NewRegistrar(a.engine, routes.NewWrapper(a.bus, log), log, a.middlewares...)
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		groups, err := src.load()
		if err != nil {
			return fmt.Errorf("%s: %w", src.name, err)
		}
		if err := registrar.RegisterAll(src.base, groups); err != nil {
			return fmt.Errorf("%s: %w", src.name, err)
		}
		names = append(names, src.name)
	}

	a.mu.Lock()
	a.inventory = registrar.Inventory()
	a.sources = names
	a.mu.Unlock()
	return nil
}

func (a *App) collectSources() ([]routeSource, error) {
	root := a.cfg.GetModulesDir()
	if !filepath.IsAbs(root) && a.rootDir != "" {
		root = filepath.Join(a.rootDir, root)
	}
	files, err := routes.Discover(root, a.cfg.GetRoutesFilename())
	if err != nil {
		return nil, fmt.Errorf("discover route files in %s: %w", root, err)
	}

	prefix := a.cfg.GetRoutesBase()
	sources := make([]routeSource, 0, len(files)+len(a.modules))
	for _, file := range files {
		sources = append(sources, routeSource{
			name:  file,
			base:  routes.RouteBase(prefix, root, file),
			depth: routes.Depth(root, file),
			load:  func() ([]routes.RouteGroup, error) { return a.loader.LoadModule(file) },
		})
	}
	for _, m := range a.modules {
		sources = append(sources, routeSource{
			name:  "module:" + m.Name(),
			base:  routes.JoinBase(prefix, m.RouteBase()),
			depth: moduleDepth(m.RouteBase()),
			load:  func() ([]routes.RouteGroup, error) { return m.RouteGroups(), nil },
		})
	}
	return sources, nil
}

// moduleDepth makes a code module with base "user" as deep as modules/user/routes.yaml.
func moduleDepth(base string) int {
	joined := routes.JoinBase(base)
	if joined == "" {
		return 0
	}
	return strings.Count(joined, "/")
}

// serve binds the socket and serves in the background. The listening permit
// arrives once the socket is bound, which may be before or after init finishes.
func (a *App) serve(ctx context.Context) {
	srv := &http.Server{
		Handler:           a.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	a.mu.Lock()
	a.server = srv
	a.mu.Unlock()

	addr := a.cfg.GetHTTPAddr()
	a.group.Go(func() error {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			err = fmt.Errorf("listen on %s: %w", addr, err)
			a.ready.Fail(err)
			return err
		}

		a.mu.Lock()
		a.addr = ln.Addr().String()
		a.mu.Unlock()

		a.log.Infow("server listening", "addr", ln.Addr().String())
		a.publish(ctx, events.HTTPServerStarted{BaseEvent: events.NewBaseEvent(), Engine: a.engine, Addr: ln.Addr().String()})
		a.arrive(ctx, readiness.PermitListening)

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

// arrive records permit and publishes "ready" from whichever call completes the barrier.
func (a *App) arrive(ctx context.Context, permit readiness.Permit) {
	if a.ready.Arrive(permit, a.engine) {
		a.publish(ctx, events.Ready{BaseEvent: events.NewBaseEvent(), Engine: a.engine})
	}
}

func (a *App) publish(ctx context.Context, event events.Event) {
	if err := a.bus.PublishSync(ctx, event); err != nil {
		a.log.Warnw("event handler failed", "event", event.EventName(), "error", err)
	}
}

// Ready is closed when the application is ready or startup failed.
func (a *App) Ready() <-chan struct{} {
	return a.ready.Done()
}

// Wait blocks until the application is ready and returns its engine, or the startup error.
func (a *App) Wait(ctx context.Context) (*gin.Engine, error) {
	return a.ready.Wait(ctx)
}

// Engine returns the gin engine routes are registered on.
func (a *App) Engine() *gin.Engine {
	return a.engine
}

// Handler returns the engine as an http.Handler, for hosts that serve it themselves.
func (a *App) Handler() http.Handler {
	return a.engine
}

// Inventory returns a copy of the registered routes per route base.
func (a *App) Inventory() routes.Inventory {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inventory.Clone()
}

// Sources returns the route files and code modules in registration order.
func (a *App) Sources() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.sources...)
}

// Addr returns the bound listen address, or "" before the socket is bound.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Shutdown gracefully stops the HTTP server, if one was started.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	srv := a.server
	a.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Run starts the application and blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.group.Wait()
	}()

	select {
	case <-ctx.Done():
		a.log.Infow("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		if err != nil {
			return err
		}
		if !a.cfg.ShouldStartHTTPServer() {
			<-ctx.Done()
		}
		return nil
	}
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	cc := cors.DefaultConfig()
	origins := cfg.GetCORSOrigins()
	if len(origins) == 0 || containsWildcard(origins) {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	cc.AllowCredentials = cfg.GetCORSAllowCreds()
	cc.AddAllowHeaders("Authorization", httpkit.HeaderRequestID)
	cc.AddExposeHeaders(httpkit.HeaderRequestID)
	return cc
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}
