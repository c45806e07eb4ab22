// Package sampleapp is a small application built on the route modules in
// ./modules: a root module and a user module guarded by login-required.
package sampleapp

import (
	"velkro/internal/routes"
	"velkro/platform/apperr"
	"velkro/platform/httpkit"
	"velkro/platform/validator"

	"github.com/gin-gonic/gin"
	playground "github.com/go-playground/validator/v10"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// Handler names referenced from the route files.
const (
	HandlerIndex     = "root.index"
	HandlerXYZ       = "root.xyz"
	HandlerTestError = "root.testError"
	HandlerLogin     = "user.login"
	HandlerMe        = "user.me"

	MiddlewareXYZ = "xyz"
)

// LoginRequest is the body of POST /user/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// Handlers implements the sample routes.
type Handlers struct {
	users *Users
	val   *validator.Validator
}

// NewHandlers creates the handlers backed by users.
func NewHandlers(users *Users) *Handlers {
	val := validator.New()
	if err := val.RegisterValidation("password", validPassword); err != nil {
		panic(err)
	}
	return &Handlers{users: users, val: val}
}

func validPassword(fl playground.FieldLevel) bool {
	return len(fl.Field().String()) <= maxPasswordBytes
}

// Register adds every sample handler and middleware to registry.
func (h *Handlers) Register(registry *routes.Registry) {
	registry.
		Handler(HandlerIndex, h.Index).
		Handler(HandlerXYZ, h.XYZ).
		Handler(HandlerTestError, h.TestError).
		Handler(HandlerLogin, h.Login).
		Handler(HandlerMe, h.Me).
		Middleware(MiddlewareXYZ, XYZMiddleware())
}

// Index answers the API root.
func (h *Handlers) Index(c *gin.Context) (interface{}, error) {
	return "Application API", nil
}

// XYZ answers a fixed string; its route also runs the xyz middleware.
func (h *Handlers) XYZ(c *gin.Context) (interface{}, error) {
	return "xyz", nil
}

// TestError always fails: the internal failure of the model is reported as an external error.
func (h *Handlers) TestError(c *gin.Context) (interface{}, error) {
	if _, err := h.users.Authenticate(c.Request.Context(), "", ""); err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			return nil, apperr.External("external-error", "An ExternalError has occurred")
		}
		return nil, err
	}
	return "no error", nil
}

// Login checks the credentials and stores the user's id in the request state,
// which is signed into the response token.
func (h *Handlers) Login(c *gin.Context) (interface{}, error) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperr.External("invalid-request", "invalid request")
	}
	if err := h.val.Struct(req); err != nil {
		return nil, apperr.External("validation-failed", "validation failed").WithData(validator.Fields(err))
	}

	id, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if apperr.HasHandle(err, "incorrect-password") {
			return nil, apperr.External("invalid-credentials", "Invalid email or password")
		}
		return nil, err
	}

	httpkit.SetState(c, httpkit.State{"id": id})
	return true, nil
}

// Me returns the profile of the logged-in user.
func (h *Handlers) Me(c *gin.Context) (interface{}, error) {
	u, err := h.users.Find(c.Request.Context(), httpkit.GetState(c).ID())
	if err != nil {
		return nil, err
	}
	return u.Profile(), nil
}

// XYZMiddleware adds the "xyz" key to the response.
func XYZMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpkit.GetEnvelope(c).SetKey("xyz", "XYZ")
		c.Next()
	}
}

// ABCMiddleware adds the "abc" key to the response. It is meant as global middleware.
func ABCMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpkit.GetEnvelope(c).SetKey("abc", "ABC")
		c.Next()
	}
}

// NewRegistry returns a registry holding the sample handlers backed by the demo users.
func NewRegistry() (*routes.Registry, error) {
	users, err := NewDemoUsers()
	if err != nil {
		return nil, err
	}
	registry := routes.NewRegistry()
	NewHandlers(users).Register(registry)
	return registry, nil
}
