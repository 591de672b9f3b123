package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/rendezvous/internal/auditcontext"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorType = "X-Actor-Type"

	contextActorIDKey = "actor_id"
)

// ActorRequired puts the admin named by the identity proxy on the request
// context. Requests without an actor are rejected.
func ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := strings.TrimSpace(c.GetHeader(HeaderActorID))
		if actorID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		actorType := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorType)))
		switch actorType {
		case auditcontext.ActorTypeAdmin, auditcontext.ActorTypeSystem:
		default:
			actorType = auditcontext.ActorTypeAdmin
		}

		c.Set(contextActorIDKey, actorID)
		c.Request = c.Request.WithContext(auditcontext.WithActor(c.Request.Context(), actorType, actorID))
		c.Next()
	}
}

// tagModule exposes the service module to the request logger.
func tagModule(c *gin.Context, module string) {
	if module = strings.TrimSpace(module); module != "" {
		c.Set("service_module", module)
	}
}
