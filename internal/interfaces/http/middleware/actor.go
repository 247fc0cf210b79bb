package middleware

import (
	"github.com/finaudit/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ActorHeader names the auditor performing the request. Authentication
	// happens upstream; the gateway forwards the verified identity here.
	ActorHeader = "X-Actor"
	// ActorKey is the gin context key holding the actor name
	ActorKey = "actor"
	// DefaultActor is recorded when no identity header is present
	DefaultActor = "system"
	// maxActorLength bounds the header to the comment author column
	maxActorLength = 120
)

// Actor extracts the acting auditor from the request and enriches the
// request context and logger with it.
func Actor(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(ActorHeader)
		if actor == "" {
			actor = DefaultActor
		}
		if len(actor) > maxActorLength {
			actor = actor[:maxActorLength]
		}

		c.Set(ActorKey, actor)

		ctx, _ := logger.WithActor(c.Request.Context(), log, actor)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetActor returns the actor recorded for the request
func GetActor(c *gin.Context) string {
	if actor := c.GetString(ActorKey); actor != "" {
		return actor
	}
	return DefaultActor
}
