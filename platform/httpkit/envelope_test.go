package httpkit

import (
	"encoding/json"
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

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestEnvelope_OmitsUntouchedFields(t *testing.T) {
	c, rec := newTestContext(t)

	GetEnvelope(c).Send()

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestEnvelope_IncludesAppendedListsInOrder(t *testing.T) {
	c, rec := newTestContext(t)
	env := GetEnvelope(c)

	env.AddNotice("saved").AddNotice("synced")
	env.AddAction("reload")
	env.AddError("first", "First", map[string]string{"field": "email"})
	env.AddError("second", "Second")
	env.Send("payload")

	assert.JSONEq(t, `{
		"data": "payload",
		"notices": ["saved", "synced"],
		"actions": ["reload"],
		"errors": [
			{"handle": "first", "message": "First", "data": {"field": "email"}},
			{"handle": "second", "message": "Second"}
		]
	}`, rec.Body.String())
}

func TestEnvelope_NullDataIsSentOnceSet(t *testing.T) {
	c, rec := newTestContext(t)

	GetEnvelope(c).SetData(nil).Send()

	assert.JSONEq(t, `{"data": null}`, rec.Body.String())
}

func TestEnvelope_SendIsIdempotent(t *testing.T) {
	c, rec := newTestContext(t)
	env := GetEnvelope(c)

	env.Send("first")
	env.AddError("late", "Late")
	env.SetStatus(http.StatusTeapot)
	env.Send("second")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data": "first"}`, rec.Body.String())
	assert.True(t, env.Sent())
	assert.True(t, c.IsAborted())
}

func TestEnvelope_SendSkipsWhenResponseAlreadyWritten(t *testing.T) {
	c, rec := newTestContext(t)
	c.String(http.StatusAccepted, "upstream")

	GetEnvelope(c).Send("ignored")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "upstream", rec.Body.String())
}

func TestEnvelope_SetKey(t *testing.T) {
	c, rec := newTestContext(t)
	env := GetEnvelope(c)

	env.SetKey("abc", "ABC").SetKey("data", 42).SetKey("token", "signed")
	env.Send()

	assert.JSONEq(t, `{"abc": "ABC", "data": 42, "token": "signed"}`, rec.Body.String())
	assert.Equal(t, "signed", env.Token())
}

func TestEnvelope_SetKeyIgnoresReservedKeys(t *testing.T) {
	c, rec := newTestContext(t)
	env := GetEnvelope(c)

	env.SetKey("errors", "not-a-list").SetKey("notices", 1).SetKey("actions", nil).SetKey("token", 42)
	env.Send("ok")

	assert.JSONEq(t, `{"data": "ok"}`, rec.Body.String())
	assert.Empty(t, env.Token())
}

func TestEnvelopeMiddleware_SharesEnvelopeAcrossChain(t *testing.T) {
	engine := gin.New()
	var custom []string
	engine.Use(EnvelopeMiddleware(func(e *Envelope) {
		custom = append(custom, "sent")
		WriteEnvelope(e)
	}))
	engine.GET("/", func(c *gin.Context) {
		GetEnvelope(c).AddNotice("from middleware")
		c.Next()
	}, func(c *gin.Context) {
		GetEnvelope(c).Send("ok")
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.JSONEq(t, `{"data": "ok", "notices": ["from middleware"]}`, rec.Body.String())
	assert.Equal(t, []string{"sent"}, custom)
}

func TestFail_SetsStatusAndError(t *testing.T) {
	c, rec := newTestContext(t)

	Fail(c, http.StatusTooManyRequests, "rate-limit-exceeded", "Rate limit exceeded")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeBody(t, rec)
	errs := body["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "rate-limit-exceeded", errs[0].(map[string]interface{})["handle"])
	assert.True(t, c.IsAborted())
}
