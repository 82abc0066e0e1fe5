// Package api exposes the admin surface under /_api and hands every other
// request to the virtualization proxy.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prasenjit/servicevirt/internal/audit"
	"github.com/prasenjit/servicevirt/internal/catalog"
	"github.com/prasenjit/servicevirt/internal/dispatch"
	"github.com/prasenjit/servicevirt/internal/stats"
	"github.com/prasenjit/servicevirt/internal/storage"
	"github.com/prasenjit/servicevirt/internal/transport"
)

// Options wires the router's collaborators
type Options struct {
	Store      storage.Storage
	Catalog    *catalog.Catalog
	Dispatcher *dispatch.Dispatcher
	Collector  *stats.Collector
	Metrics    *stats.Metrics
	Audit      *audit.Service
	Forwarder  *transport.Forwarder // optional, reported by the health check
	Proxy      http.Handler         // serves every non-admin request
	Logger     *zap.Logger
}

// Router handles HTTP routing
type Router struct {
	engine  *gin.Engine
	opts    Options
	handler *Handler
}

// NewRouter creates a new router
func NewRouter(opts Options) *Router {
	gin.SetMode(gin.ReleaseMode)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := &Router{
		engine:  gin.New(),
		opts:    opts,
		handler: NewHandler(opts),
	}

	// Setup middleware
	r.engine.Use(gin.Recovery())
	r.engine.Use(corsMiddleware())
	r.engine.Use(requestLogger(opts.Logger))

	r.setupRoutes()

	return r
}

// setupRoutes configures all routes
func (r *Router) setupRoutes() {
	api := r.engine.Group("/_api")
	{
		// Services
		api.GET("/services", r.handler.ListServices)
		api.POST("/services", r.handler.CreateService)
		api.GET("/services/:id", r.handler.GetService)
		api.PUT("/services/:id", r.handler.UpdateService)
		api.DELETE("/services/:id", r.handler.DeleteService)
		api.PUT("/services/:id/enable", r.handler.EnableService)
		api.PUT("/services/:id/disable", r.handler.DisableService)

		// Operations
		api.GET("/services/:id/operations", r.handler.ListOperations)
		api.POST("/services/:id/operations", r.handler.CreateOperation)
		api.GET("/operations/:id", r.handler.GetOperation)
		api.PUT("/operations/:id", r.handler.UpdateOperation)
		api.DELETE("/operations/:id", r.handler.DeleteOperation)
		api.PUT("/operations/:id/status", r.handler.SetOperationStatus)
		api.POST("/operations/:id/sequence/reset", r.handler.ResetSequence)

		// Mock responses
		api.GET("/operations/:id/responses", r.handler.ListMockResponses)
		api.POST("/operations/:id/responses", r.handler.CreateMockResponse)
		api.GET("/responses/:id", r.handler.GetMockResponse)
		api.PUT("/responses/:id", r.handler.UpdateMockResponse)
		api.DELETE("/responses/:id", r.handler.DeleteMockResponse)

		// Statistics
		api.GET("/stats", r.handler.GetGlobalStats)
		api.GET("/stats/services/:id", r.handler.GetServiceStats)
		api.GET("/stats/operations/:id", r.handler.GetOperationStats)
		api.POST("/stats/reset", r.handler.ResetStats)

		// Audit events
		api.GET("/events", r.handler.ListEvents)
		api.GET("/events/stream", gin.WrapH(audit.NewWebSocketHandler(r.opts.Audit, r.opts.Logger)))
		api.GET("/events/:id", r.handler.GetEvent)
		api.DELETE("/events", r.handler.ClearEvents)

		api.GET("/routes", r.handler.GetRoutes)
		api.GET("/health", r.handler.HealthCheck)
		if r.opts.Metrics != nil {
			api.GET("/metrics", gin.WrapH(r.opts.Metrics.Handler()))
		}
	}

	// Everything else is virtualized traffic
	r.engine.NoRoute(func(c *gin.Context) {
		if r.opts.Proxy == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		r.opts.Proxy.ServeHTTP(c.Writer, c.Request)
	})
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger logs one line per request once it has been served
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("Request served",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()))
	}
}
