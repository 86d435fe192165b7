package handler

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/middleware"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

func actorFromContext(c *gin.Context) *authz.Context {
	return middleware.ActorFromContext(c)
}

// pathID parses a numeric path parameter. Anything else is a 404, like an
// unmatched route.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "Not found.")
	}
	return id, nil
}

// bindBody binds an optional JSON body into dst. An empty body leaves dst untouched.
func bindBody(c *gin.Context, dst interface{}, message string) error {
	if c.Request.Body == nil {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

// queryInt returns the integer value of a query parameter. Missing or
// non-numeric values yield nil.
func queryInt(c *gin.Context, key string) *int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func queryInt64(c *gin.Context, key string) *int64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
