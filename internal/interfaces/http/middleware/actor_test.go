package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestActor(t *testing.T) {
	newRouter := func() (*gin.Engine, *string) {
		var seen string
		router := gin.New()
		router.Use(Actor(zap.NewNop()))
		router.GET("/test", func(c *gin.Context) {
			seen = GetActor(c)
			c.String(http.StatusOK, "ok")
		})
		return router, &seen
	}

	t.Run("takes actor from header", func(t *testing.T) {
		router, seen := newRouter()
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(ActorHeader, "m.mustermann")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "m.mustermann", *seen)
	})

	t.Run("defaults to system when header missing", func(t *testing.T) {
		router, seen := newRouter()
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, DefaultActor, *seen)
	})

	t.Run("truncates oversized header", func(t *testing.T) {
		router, seen := newRouter()
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(ActorHeader, strings.Repeat("x", 500))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Len(t, *seen, maxActorLength)
	})
}

func TestGetActorWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, DefaultActor, GetActor(c))
}
