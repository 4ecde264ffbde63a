package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kliring/reinsadmin/internal/identity"
)

const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

// ActorContext resolves the caller from trusted gateway headers. Requests
// without a valid role never reach a handler.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader(HeaderUserEmail))
		role, ok := identity.ParseRole(c.GetHeader(HeaderUserRole))
		if email == "" || !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := identity.Actor{Email: email, Role: role}
		c.Request = c.Request.WithContext(identity.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

func actorFrom(c *gin.Context) identity.Actor {
	actor, _ := identity.ActorFromContext(c.Request.Context())
	return actor
}
