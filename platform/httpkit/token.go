package httpkit

import (
	"errors"
	"strings"
	"time"

	"velkro/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	errEmptySecret   = errors.New("state token: secret required")
	errInvalidMethod = errors.New("invalid signing method")
)

// SignState signs state into an HS256 token. "iat" is refreshed on every call.
func SignState(secret string, state State) (string, error) {
	if secret == "" {
		return "", errEmptySecret
	}
	claims := jwt.MapClaims{}
	for k, v := range state {
		claims[k] = v
	}
	claims["iat"] = time.Now().Unix()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseState verifies rawToken and returns its claims as state.
func ParseState(secret, rawToken string) (State, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidMethod
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return State(claims), nil
}

// TokenSender decorates next so that, when the request carries user state, the
// state is signed and attached to the envelope right before it is written.
// A signing failure is logged and the response goes out without a token.
// It panics on an empty secret; callers install it only when a secret is configured.
func TokenSender(secret string, log *logger.Logger, next Sender) Sender {
	if secret == "" {
		panic(errEmptySecret)
	}
	if log == nil {
		log = logger.NewNop()
	}
	if next == nil {
		next = WriteEnvelope
	}
	return func(e *Envelope) {
		if state := GetState(e.Context()); state != nil {
			token, err := SignState(secret, state)
			if err != nil {
				c := e.Context()
				log.WithContext(c.Request.Context()).StateTokenFailed(c.Request.Method, c.Request.URL.Path, err)
			} else {
				e.SetToken(token)
			}
		}
		next(e)
	}
}

// BearerState restores user state from an "Authorization: Bearer" token.
// It never rejects a request: a missing or invalid token just leaves the state unset.
func BearerState(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rawToken, ok := extractBearerToken(c.GetHeader("Authorization")); ok {
			if state, err := ParseState(secret, rawToken); err == nil {
				SetState(c, state)
			}
		}
		c.Next()
	}
}

// RequireState aborts with the "login-required" error unless the request carries
// user state with an id.
func RequireState() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetState(c).ID() == "" {
			env := GetEnvelope(c)
			env.AddError("login-required", "Login Required")
			env.Send()
			return
		}
		c.Next()
	}
}

func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if rawToken == "" {
		return "", false
	}

	return rawToken, true
}
