package routes

import (
	"fmt"

	"velkro/internal/events"
	"velkro/platform/apperr"
	"velkro/platform/httpkit"
	"velkro/platform/logger"

	"github.com/gin-gonic/gin"
)

// Wrapper adapts route handlers to gin. Every wrapped handler puts its result or
// its classified error into the request's envelope and sends it exactly once.
type Wrapper struct {
	bus events.Bus
	log *logger.Logger
}

// NewWrapper creates a wrapper publishing request errors on bus. bus may be nil.
func NewWrapper(bus events.Bus, log *logger.Logger) *Wrapper {
	if log == nil {
		log = logger.NewNop()
	}
	return &Wrapper{bus: bus, log: log}
}

// Wrap turns h into the final gin handler of a route.
//
// If the response was already written upstream, h is not called. Otherwise the
// envelope is always sent, including when h fails or panics.
func (w *Wrapper) Wrap(h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Writer.Written() {
			return
		}
		env := httpkit.GetEnvelope(c)

		defer func() {
			if rec := recover(); rec != nil {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", rec)
				}
				w.fail(c, env, err)
			}
			if !c.Writer.Written() {
				env.Send()
			}
		}()

		data, err := h(c)
		if err != nil {
			w.fail(c, env, err)
			return
		}
		if c.Writer.Written() {
			return
		}
		env.SetData(data)
	}
}

// fail records err in the envelope and publishes the kind-specific event, then "error".
// Only classified errors expose their handle and message to the client.
func (w *Wrapper) fail(c *gin.Context, env *httpkit.Envelope, err error) {
	kind, classified := apperr.Classify(err)

	handle := apperr.UnknownHandle
	if classified != nil {
		handle = classified.Handle
	}

	if !c.Writer.Written() {
		if classified != nil {
			env.AddError(classified.Handle, classified.Message, classified.Data)
		} else {
			env.AddError(apperr.UnknownHandle, apperr.UnknownMessage)
		}
	}

	if kind != apperr.KindExternal {
		w.log.WithContext(c.Request.Context()).RequestError(kind.String(), handle, c.Request.Method, c.Request.URL.Path, err)
	}

	if w.bus == nil {
		return
	}
	failed := events.RequestFailed{
		BaseEvent: events.NewBaseEvent(),
		Kind:      kind,
		Handle:    handle,
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		Err:       err,
	}
	ctx := c.Request.Context()
	if pubErr := w.bus.PublishSync(ctx, failed); pubErr != nil {
		w.log.Warnw("error event handler failed", "event", failed.EventName(), "error", pubErr)
	}
	if pubErr := w.bus.PublishSync(ctx, events.ErrorOccurred{RequestFailed: failed}); pubErr != nil {
		w.log.Warnw("error event handler failed", "event", events.NameError, "error", pubErr)
	}
}
