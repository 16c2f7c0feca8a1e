package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	StatusCode int                    `json:"status_code"`
	Msg        string                 `json:"msg"`
	Data       map[string]interface{} `json:"data"`
}

func run(t *testing.T, handler gin.HandlerFunc, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestRespondServiceErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{err: service.ErrOrderNotFound, code: http.StatusNotFound},
		{err: service.ErrInsufficientStock, code: http.StatusBadRequest},
		{err: service.ErrOrderAlreadyAccepted, code: http.StatusConflict},
		{err: service.ErrInvalidCredentials, code: http.StatusUnauthorized},
		{err: service.ErrNotOwner, code: http.StatusForbidden},
		{err: service.ErrWebhookSignatureInvalid, code: http.StatusBadRequest},
		{err: service.ErrPaymentUnavailable, code: http.StatusServiceUnavailable},
		{err: errors.New("db is on fire"), code: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w, env := run(t, func(c *gin.Context) { RespondServiceError(c, tc.err, "request failed") }, "")
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		assert.Equal(t, tc.code, env.StatusCode)
	}
}

func TestRespondServiceErrorCarriesField(t *testing.T) {
	_, env := run(t, func(c *gin.Context) { RespondServiceError(c, service.ErrCouponBelowThreshold, "x") }, "")
	assert.Equal(t, "Order total is too low to use this coupon.", env.Msg)
	assert.Equal(t, "coupon", env.Data["field"])
}

func TestBindJSON(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	w, env := run(t, func(c *gin.Context) { BindJSON(c, &target) }, "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", env.Msg)

	ok := false
	run(t, func(c *gin.Context) { ok = BindJSON(c, &target) }, `{"name":"lamp"}`)
	assert.True(t, ok)
	assert.Equal(t, "lamp", target.Name)
}

func TestCurrentActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentActor(c)
	assert.False(t, ok)

	c.Set(ContextUserID, uint(5))
	c.Set(ContextIsStaff, true)
	actor, ok := CurrentActor(c)
	require.True(t, ok)
	assert.Equal(t, service.Actor{UserID: 5, IsStaff: true}, actor)
}

func TestNormalizePagination(t *testing.T) {
	page, size := NormalizePagination(0, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, size)
	page, size = NormalizePagination(3, 0)
	assert.Equal(t, 3, page)
	assert.Equal(t, 20, size)
}
