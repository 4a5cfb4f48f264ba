package handler

import (
	"net/http"
	"runtime/debug"
	"time"

	"refactor-bot/internal/controller"
	"refactor-bot/pkg/mcp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

func SetupRouter(repoController *controller.RepoController, recommendController *controller.RecommendController, mcpServer *mcp.RecommendServer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(RequestIDMiddleware(), CustomRecoveryMiddleware(logger), LoggerMiddleware(logger))

	api := router.Group("/api/v1")
	api.GET("/health", health)
	api.GET("/algorithms", recommendController.Algorithms)
	api.POST("/processRepo", repoController.ProcessRepo)
	api.POST("/recommendMoves", recommendController.RecommendMoves)

	if mcpServer != nil {
		mcpServer.SetupHTTPRoutes(router)
	}
	return router
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// RequestIDMiddleware reuses the caller's request id or assigns a new one
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("Handled request", fields...)
	}
}

func CustomRecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("Recovered from handler panic",
					zap.Any("panic", recovered),
					zap.String("request_id", c.GetString(requestIDHeader)),
					zap.String("route", c.FullPath()),
					zap.ByteString("stack", debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "internal server error",
					"request_id": c.GetString(requestIDHeader),
				})
			}
		}()
		c.Next()
	}
}
