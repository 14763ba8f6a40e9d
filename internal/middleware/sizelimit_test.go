package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SizeLimit(SizeLimitConfig{MaxBodySize: 16, MaxHeaderSize: 256}))
	r.POST("/api/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, string(body))
	})

	post := func(body string, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(body))
		if header != "" {
			req.Header.Set("X-Padding", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("small body passes", func(t *testing.T) {
		w := post("date=2030-01-02", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "date=2030-01-02", w.Body.String())
	})

	t.Run("declared length over limit", func(t *testing.T) {
		w := post(strings.Repeat("x", 17), "")
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "Request is too large.")
	})

	t.Run("oversized headers", func(t *testing.T) {
		w := post("a=1", strings.Repeat("h", 300))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
