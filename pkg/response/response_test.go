package response

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

func serve(t *testing.T, h gin.HandlerFunc, next gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := gin.New()
	r.GET("/", h, next)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestList_EmptyPage(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		List[string](c, nil, 10, 20)
	}, func(c *gin.Context) {})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["code"])
	assert.Equal(t, map[string]any{
		"items":  []any{},
		"limit":  float64(10),
		"offset": float64(20),
	}, body["data"])
}

func TestAbort_StopsChain(t *testing.T) {
	reached := false
	w, body := serve(t, func(c *gin.Context) {
		Abort(c, http.StatusTooManyRequests, "slow down")
	}, func(c *gin.Context) {
		reached = true
	})

	assert.False(t, reached)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, float64(http.StatusTooManyRequests), body["code"])
	assert.Equal(t, "slow down", body["message"])
	assert.NotContains(t, body, "data")
}

func TestConflict(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Conflict(c, "busy")
	}, func(c *gin.Context) {})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, float64(http.StatusConflict), body["code"])
}
