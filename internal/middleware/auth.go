package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/pkg/auth"
)

// ContextActor is the gin context key holding the authenticated model.Actor.
const ContextActor = "actor"

type AuthMiddleware struct {
	tokens auth.JWTService
}

func NewAuthMiddleware(tokens auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and sets the actor in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		actor, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextActor, actor)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allowed set.
func (m *AuthMiddleware) RequireRole(roles ...model.ActorRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
			c.Abort()
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
		c.Abort()
	}
}

// ActorFrom extracts the authenticated actor from the gin context.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(ContextActor)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
