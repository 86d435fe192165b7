package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (string, string, string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var fromGin, fromCtx string
	r.GET("/", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(headerKey, header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Header().Get(headerKey), fromGin, fromCtx
}

func TestMiddlewareReusesClientID(t *testing.T) {
	echoed, fromGin, fromCtx := serve("abc-123")
	assert.Equal(t, "abc-123", echoed)
	assert.Equal(t, "abc-123", fromGin)
	assert.Equal(t, "abc-123", fromCtx)
}

func TestMiddlewareReplacesMalformedID(t *testing.T) {
	for _, header := range []string{"", "bad id", strings.Repeat("x", maxLength+1), "tab\there"} {
		echoed, fromGin, _ := serve(header)
		_, err := uuid.Parse(echoed)
		assert.NoError(t, err, header)
		assert.Equal(t, echoed, fromGin)
	}
}
