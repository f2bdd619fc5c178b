package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompressionRouter(cm *CompressionMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(cm.Handler())

	large := strings.Repeat(`{"emp_no":"1001","comprehensive_score":87.5}`, 100)
	r.GET("/large", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(large))
	})
	r.GET("/small", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(`{"ok":true}`))
	})
	return r
}

func TestCompressionLargeResponse(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := newCompressionRouter(cm)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(body), "comprehensive_score")

	stats := cm.GetStats()
	assert.Equal(t, int64(1), stats["compressed_requests"])
}

func TestCompressionSkipsSmallResponse(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := newCompressionRouter(cm)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/small", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestCompressionRespectsAcceptEncoding(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := newCompressionRouter(cm)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/large", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}
