package httpkit

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ContextStateKey is the gin context key for the per-request user state.
const ContextStateKey = "state"

// State is the opaque "current user" object of a request. It is signed into the
// state token when the response is sent and restored from the bearer token of
// later requests.
//
// Concurrent requests for the same user each carry their own copy; the last
// token the client stores wins.
type State map[string]interface{}

// ID returns the "id" claim as a string, or "" when absent.
// JSON numbers decoded from a token come back as float64 and are printed without exponent.
func (s State) ID() string {
	if s == nil {
		return ""
	}
	switch v := s["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// GetState returns the request's user state, or nil when none is set.
func GetState(c *gin.Context) State {
	value, ok := c.Get(ContextStateKey)
	if !ok {
		return nil
	}
	state, _ := value.(State)
	return state
}

// SetState replaces the request's user state.
func SetState(c *gin.Context, state State) {
	c.Set(ContextStateKey, state)
}

// ClearState removes the request's user state so no token is emitted.
func ClearState(c *gin.Context) {
	c.Set(ContextStateKey, State(nil))
}
