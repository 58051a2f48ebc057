package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/dental-api/internal/handler"
	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/internal/service/auth"
)

const (
	// LoginPath is where an anonymous caller is sent.
	LoginPath = "/login"
	// DefaultPath is where a caller with the wrong role is sent.
	DefaultPath = "/dashboard"
)

// Authenticator resolves a bearer token to the live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Session, error)
}

type AuthMiddleware struct {
	authService Authenticator
}

func NewAuthMiddleware(authService Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// BearerToken reads the Authorization header, falling back to the
// access_token query parameter for clients such as EventSource that cannot
// set headers.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("access_token")
}

// Require guards a route. With no roles any signed-in session passes.
// The decision is made afresh on every request.
func (m *AuthMiddleware) Require(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		var session *model.Session
		if token != "" {
			s, err := m.authService.Authenticate(c.Request.Context(), token)
			if err != nil {
				log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("token rejected")
			} else {
				session = s
			}
		}

		switch auth.Authorize(session, roles) {
		case auth.RedirectLogin:
			c.Header("Location", LoginPath)
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			return
		case auth.RedirectDefault:
			c.Header("Location", DefaultPath)
			c.AbortWithStatusJSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
			return
		}

		c.Set(handler.ContextSession, session)
		c.Set(handler.ContextToken, token)
		c.Next()
	}
}
