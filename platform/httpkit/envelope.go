// Package httpkit provides the request pipeline pieces shared by every route:
// the response envelope, per-request user state, state tokens and middleware.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextEnvelopeKey is the gin context key holding the request's *Envelope.
const ContextEnvelopeKey = "envelope"

// ErrorEntry is one element of the envelope's errors list.
type ErrorEntry struct {
	Handle  string      `json:"handle"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Sender finalizes an envelope onto the wire.
// Decorators wrap a Sender to act right before the body is written.
type Sender func(e *Envelope)

// Envelope accumulates the uniform JSON body of a single request.
//
// Wire format (every key optional):
//
//	{
//	    "data":    <any>,
//	    "errors":  [{"handle": "", "message": "", "data": <any>}],
//	    "notices": [""],
//	    "actions": [""],
//	    "token":   "",
//	    ...extra keys set with SetKey
//	}
//
// The lists are created lazily: a list never appended to is omitted, not sent empty.
type Envelope struct {
	c      *gin.Context
	send   Sender
	status int

	data    interface{}
	hasData bool
	errors  []ErrorEntry
	notices []string
	actions []string
	token   string
	extra   map[string]interface{}
}

// NewEnvelope creates an envelope bound to c. A nil sender means WriteEnvelope.
func NewEnvelope(c *gin.Context, send Sender) *Envelope {
	if send == nil {
		send = WriteEnvelope
	}
	return &Envelope{c: c, send: send, status: http.StatusOK}
}

// Context returns the gin context the envelope belongs to.
func (e *Envelope) Context() *gin.Context {
	return e.c
}

// SetData replaces the data payload.
func (e *Envelope) SetData(data interface{}) *Envelope {
	e.data = data
	e.hasData = true
	return e
}

// AddError appends an error entry. data is optional.
func (e *Envelope) AddError(handle, message string, data ...interface{}) *Envelope {
	entry := ErrorEntry{Handle: handle, Message: message}
	if len(data) > 0 && data[0] != nil {
		entry.Data = data[0]
	}
	if e.errors == nil {
		e.errors = []ErrorEntry{}
	}
	e.errors = append(e.errors, entry)
	return e
}

// AddNotice appends a message for the client to show.
func (e *Envelope) AddNotice(notice string) *Envelope {
	if e.notices == nil {
		e.notices = []string{}
	}
	e.notices = append(e.notices, notice)
	return e
}

// AddAction appends an action for the client to perform.
func (e *Envelope) AddAction(action string) *Envelope {
	if e.actions == nil {
		e.actions = []string{}
	}
	e.actions = append(e.actions, action)
	return e
}

// SetToken sets the signed state token.
func (e *Envelope) SetToken(token string) *Envelope {
	e.token = token
	return e
}

// Token returns the signed state token, if any.
func (e *Envelope) Token() string {
	return e.token
}

// SetKey sets an arbitrary top-level field. "data" and "token" route to
// SetData and SetToken. The list keys and a non-string token are ignored.
func (e *Envelope) SetKey(key string, value interface{}) *Envelope {
	switch key {
	case "data":
		return e.SetData(value)
	case "token":
		if s, ok := value.(string); ok {
			return e.SetToken(s)
		}
		return e
	case "errors", "notices", "actions":
		return e
	}
	if e.extra == nil {
		e.extra = make(map[string]interface{})
	}
	e.extra[key] = value
	return e
}

// SetStatus sets the HTTP status used when the envelope is sent. Defaults to 200.
func (e *Envelope) SetStatus(status int) *Envelope {
	e.status = status
	return e
}

// Status returns the HTTP status the envelope is sent with.
func (e *Envelope) Status() int {
	return e.status
}

// Sent reports whether the response has already been written.
func (e *Envelope) Sent() bool {
	return e.c.Writer.Written()
}

// Send optionally sets data, then finalizes the response through the sender chain.
// Once the response is written, Send does nothing.
func (e *Envelope) Send(data ...interface{}) {
	if e.Sent() {
		return
	}
	if len(data) > 0 {
		e.SetData(data[0])
	}
	e.send(e)
}

// MarshalJSON serializes only the populated fields.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.extra)+5)
	for k, v := range e.extra {
		out[k] = v
	}
	if e.hasData {
		out["data"] = e.data
	}
	if e.errors != nil {
		out["errors"] = e.errors
	}
	if e.notices != nil {
		out["notices"] = e.notices
	}
	if e.actions != nil {
		out["actions"] = e.actions
	}
	if e.token != "" {
		out["token"] = e.token
	}
	return json.Marshal(out)
}

// WriteEnvelope is the base Sender: it writes the envelope as JSON and stops
// the rest of the handler chain.
func WriteEnvelope(e *Envelope) {
	if e.Sent() {
		return
	}
	e.c.AbortWithStatusJSON(e.status, e)
}

// EnvelopeMiddleware attaches a fresh envelope to every request.
func EnvelopeMiddleware(send Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextEnvelopeKey, NewEnvelope(c, send))
		c.Next()
	}
}

// GetEnvelope returns the request's envelope, creating and attaching a default
// one when the envelope middleware is not installed.
func GetEnvelope(c *gin.Context) *Envelope {
	if value, ok := c.Get(ContextEnvelopeKey); ok {
		if env, ok := value.(*Envelope); ok {
			return env
		}
	}
	env := NewEnvelope(c, nil)
	c.Set(ContextEnvelopeKey, env)
	return env
}
