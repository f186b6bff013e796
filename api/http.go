package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ValuedMammal/blockproj/cluster"
	"github.com/ValuedMammal/blockproj/collect"
)

// App is the subset of BlockProj's behavior the REST surface needs. It's an
// interface so the gin handlers can be exercised without the full
// collector/RPC stack.
type App interface {
	Status() map[string]string
	Projection() (collect.Projection, bool)
	Audit() (collect.AuditResult, bool)
}

// NewRouter builds the read-only REST surface over app. Every request gets
// a correlation id, echoed back in the X-Request-Id header and attached to
// the gin context for handlers and logging to share.
func NewRouter(app App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, app.Status())
	})

	r.GET("/projection", func(c *gin.Context) {
		p, ok := app.Projection()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no projection available yet"})
			return
		}
		c.JSON(http.StatusOK, p)
	})

	r.GET("/audit", func(c *gin.Context) {
		a, ok := app.Audit()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no audit score available yet"})
			return
		}
		c.JSON(http.StatusOK, a)
	})

	r.POST("/cluster", func(c *gin.Context) {
		var body struct {
			Entries []cluster.RawEntry `json:"entries"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := cluster.Analyze(body.Entries)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	return r
}

const requestIDHeader = "X-Request-Id"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
