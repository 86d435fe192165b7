package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/middleware"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

// errorBody mirrors the failure shape clients see.
type errorBody struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// newTestContext builds a gin context carrying ac and the given path params.
func newTestContext(method, target, body string, ac *authz.Context, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if ac != nil {
		c.Set(middleware.ContextActorKey, ac)
	}
	c.Params = params
	return c, rec
}

func idParam(values ...string) gin.Params {
	names := []string{"id", "cid"}
	params := make(gin.Params, 0, len(values))
	for i, v := range values {
		params = append(params, gin.Param{Key: names[i], Value: v})
	}
	return params
}

func adminActor() *authz.Context {
	return &authz.Context{
		Identity:    &authz.Identity{ID: 1, Username: "root", Role: authz.RoleAdmin},
		TokenStatus: authz.TokenValid,
	}
}

func TestBindBodyTreatsEmptyBodyAsNoInput(t *testing.T) {
	var payload struct {
		Title string `json:"title"`
	}

	c, _ := newTestContext(http.MethodPatch, "/posts/1/", "", nil, nil)
	require.NoError(t, bindBody(c, &payload, "invalid post payload"))
	assert.Empty(t, payload.Title)

	c, _ = newTestContext(http.MethodPatch, "/posts/1/", `{"title": "Reunion"}`, nil, nil)
	require.NoError(t, bindBody(c, &payload, "invalid post payload"))
	assert.Equal(t, "Reunion", payload.Title)

	c, _ = newTestContext(http.MethodPatch, "/posts/1/", `{"title": `, nil, nil)
	err := bindBody(c, &payload, "invalid post payload")
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "invalid post payload", appErr.Message)
}
