package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/errors"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(), ErrorHandler(), InitData())
	return r
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	r := newRouter()
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(errors.NewSessionNotFoundError("s1"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	var body struct {
		Success   bool   `json:"success"`
		RequestID string `json:"request_id"`
		Error     struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "req-1", body.RequestID)
	assert.Equal(t, string(errors.ErrCodeSessionNotFound), body.Error.Code)
}

func TestErrorHandlerWrapsPlainErrors(t *testing.T) {
	r := newRouter()
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("disk on fire"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRecoveryHandlesPanic(t *testing.T) {
	r := newRouter()
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), string(errors.ErrCodeInternal))
}

func TestInitDataFromHeaderOrQuery(t *testing.T) {
	r := newRouter()
	r.GET("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, GetInitData(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(InitDataHeader, "from-header")
	r.ServeHTTP(w, req)
	assert.Equal(t, "from-header", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/echo?init_data=from-query", nil))
	assert.Equal(t, "from-query", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/echo", nil))
	assert.Empty(t, w.Body.String())
}
