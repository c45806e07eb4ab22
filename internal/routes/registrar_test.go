package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func traceMiddleware(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("trace", append(c.GetStringSlice("trace"), name))
		c.Next()
	}
}

func traceHandler(c *gin.Context) (interface{}, error) {
	return c.GetStringSlice("trace"), nil
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRegistrar_GroupWithoutRoutesIsNoop(t *testing.T) {
	engine := gin.New()
	r := NewRegistrar(engine, NewWrapper(nil, nil), nil)

	require.NoError(t, r.Register("/user", RouteGroup{Middleware: []gin.HandlerFunc{noopMiddleware}}))

	assert.Empty(t, r.Inventory())
	assert.Empty(t, engine.Routes())
}

func TestRegistrar_UnresolvedRouteIsSkipped(t *testing.T) {
	engine := gin.New()
	r := NewRegistrar(engine, NewWrapper(nil, nil), nil)

	group := Group(nil, Method("get",
		Path("ghost", HandlerRoute{Name: "nobody.home"}),
		Path("object", ObjectRoute{Middlewares: []gin.HandlerFunc{noopMiddleware}}),
		Path("nil", nil),
		Path("ok", Handle(okHandler("ok"))),
	))
	require.NoError(t, r.Register("", group))

	assert.Equal(t, Inventory{"": {"GET ok"}}, r.Inventory())
	require.Len(t, engine.Routes(), 1)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/ghost").Code)
}

func TestRegistrar_InventoryAndPaths(t *testing.T) {
	engine := gin.New()
	r := NewRegistrar(engine, NewWrapper(nil, nil), nil)

	require.NoError(t, r.Register("", Group(nil,
		Method("GET", Path("", Handle(okHandler("root"))), Path("/xyz", Handle(okHandler("xyz")))),
	)))
	require.NoError(t, r.Register("/user", Group(nil,
		Method("post", Path("login", Handle(okHandler(true)))),
		Method("all", Path("any", Handle(okHandler("any")))),
	)))

	assert.Equal(t, Inventory{
		"":      {"GET ", "GET xyz"},
		"/user": {"POST login", "ALL any"},
	}, r.Inventory())

	assert.JSONEq(t, `{"data": "root"}`, serve(engine, http.MethodGet, "/").Body.String())
	assert.JSONEq(t, `{"data": "xyz"}`, serve(engine, http.MethodGet, "/xyz").Body.String())
	assert.JSONEq(t, `{"data": true}`, serve(engine, http.MethodPost, "/user/login").Body.String())
	assert.JSONEq(t, `{"data": "any"}`, serve(engine, http.MethodPatch, "/user/any").Body.String())
}

func TestRegistrar_MiddlewareOrder(t *testing.T) {
	engine := gin.New()
	r := NewRegistrar(engine, NewWrapper(nil, nil), nil, traceMiddleware("global"))

	group := Group(
		[]gin.HandlerFunc{traceMiddleware("group-1"), traceMiddleware("group-2")},
		Method("get",
			Path("plain", Handle(traceHandler)),
			Path("object", With(traceHandler, traceMiddleware("route"))),
		),
	)
	require.NoError(t, r.Register("", group))

	assert.JSONEq(t, `{"data": ["global", "group-1", "group-2"]}`, serve(engine, http.MethodGet, "/plain").Body.String())
	assert.JSONEq(t, `{"data": ["global", "group-1", "group-2", "route"]}`, serve(engine, http.MethodGet, "/object").Body.String())
}

func TestRegistrar_ConflictingRouteIsAnError(t *testing.T) {
	engine := gin.New()
	r := NewRegistrar(engine, NewWrapper(nil, nil), nil)

	require.NoError(t, r.Register("/user", Group(nil, Method("get", Path(":id", Handle(okHandler(1)))))))
	err := r.Register("/user", Group(nil, Method("get", Path(":name", Handle(okHandler(2))))))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /user/:name")
	assert.Equal(t, Inventory{"/user": {"GET :id"}}, r.Inventory())
}

func TestRegistrar_RegisterAllStopsAtFirstError(t *testing.T) {
	engine := gin.New()
	r := NewRegistrar(engine, NewWrapper(nil, nil), nil)

	err := r.RegisterAll("", []RouteGroup{
		Group(nil, Method("get", Path("a", Handle(okHandler("a"))))),
		Group(nil, Method("get", Path("a", Handle(okHandler("again"))))),
		Group(nil, Method("get", Path("b", Handle(okHandler("b"))))),
	})

	require.Error(t, err)
	assert.Equal(t, Inventory{"": {"GET a"}}, r.Inventory())
}

func TestInventory_CloneIsDeep(t *testing.T) {
	inv := Inventory{"": {"GET a"}}
	clone := inv.Clone()
	clone[""][0] = "changed"
	clone["/x"] = []string{"GET b"}

	assert.Equal(t, Inventory{"": {"GET a"}}, inv)
	assert.Equal(t, 2, clone.Count())
}
