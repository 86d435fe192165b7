package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
)

// ContextActorKey is the gin context key storing the request's *authz.Context.
const ContextActorKey = "actor"

// maxSniffedBody bounds how much of a request body is buffered to look for an
// acting role.
const maxSniffedBody = 1 << 20

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(token string) (*authz.Identity, authz.TokenStatus)
}

// Actor builds the authorization context of every request from the bearer token
// and the self-asserted acting role. It never rejects a request; guards decide.
func Actor(tokens TokenValidator, trustActingAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := &authz.Context{TokenStatus: authz.TokenMissing, TrustActingAdmin: trustActingAdmin}

		if token, ok := bearerToken(c.GetHeader("Authorization")); ok && tokens != nil {
			identity, status := tokens.Validate(token)
			ac.TokenStatus = status
			if status == authz.TokenValid {
				ac.Identity = identity
			}
		}

		role, _ := authz.ResolveActingRole(c.GetHeader(authz.ActingRoleHeader), sniffBody(c.Request))
		ac.ActingRole = role

		c.Set(ContextActorKey, ac)
		c.Request = c.Request.WithContext(authz.WithContext(c.Request.Context(), ac))
		c.Next()
	}
}

// ActorFromContext returns the authorization context set by Actor, or an
// anonymous one.
func ActorFromContext(c *gin.Context) *authz.Context {
	if value, ok := c.Get(ContextActorKey); ok {
		if ac, ok := value.(*authz.Context); ok && ac != nil {
			return ac
		}
	}
	return authz.Anonymous()
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// sniffBody returns the JSON body for role resolution and puts it back for the
// handler to bind. Bodies over maxSniffedBody are passed through whole and
// not sniffed.
func sniffBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return nil
	}
	original := r.Body
	prefix, err := io.ReadAll(io.LimitReader(original, maxSniffedBody+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(prefix), original), original}
	if err != nil || len(prefix) > maxSniffedBody {
		return nil
	}
	return prefix
}
