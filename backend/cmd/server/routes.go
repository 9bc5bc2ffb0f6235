package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"voicegraph/backend/internal/constants"
	"voicegraph/backend/internal/graph"
	"voicegraph/backend/internal/pipeline"
	"voicegraph/backend/internal/state"
	apperrors "voicegraph/backend/pkg/errors"
)

// pipelineService is the part of the pipeline the HTTP surface uses
type pipelineService interface {
	SaveItem(ctx context.Context, item state.ConversationItem) (*pipeline.SaveResult, error)
	ProcessQuestion(ctx context.Context, content, identity string) ([]string, error)
	Facts(ctx context.Context, entities graph.EntitySet) ([]string, error)
	ExtractEntities(ctx context.Context, statement, identity string) (graph.EntitySet, error)
	Topic(ctx context.Context, text string) (string, error)
}

// graphStats reports node and edge counts for the health check
type graphStats func(ctx context.Context) (nodes, edges int, err error)

// newRouter builds the gin engine with middleware and all routes
func newRouter(svc pipelineService, stats graphStats, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(limitBody(constants.MaxRequestBodyBytes))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	registerRoutes(router, svc, stats, log)
	return router
}

func registerRoutes(router *gin.Engine, svc pipelineService, stats graphStats, log *zap.Logger) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		if stats == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		nodes, edges, err := stats(c.Request.Context())
		if err != nil {
			log.Warn("Graph health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"graph":  gin.H{"nodes": nodes, "edges": edges},
		})
	})

	api := router.Group("/api")
	{
		// Save a transcribed turn; questions come back with context
		api.POST("/conversation-items", func(c *gin.Context) {
			var req struct {
				Item *state.ConversationItem `json:"item" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			result, err := svc.SaveItem(c.Request.Context(), *req.Item)
			if err != nil {
				writeError(c, log, err, "Failed to save conversation item")
				return
			}

			c.JSON(http.StatusOK, result)
		})

		// Facts for explicit entities, or for the entities found in a query
		api.POST("/facts", func(c *gin.Context) {
			var req struct {
				Query    string          `json:"query"`
				Identity string          `json:"identity"`
				Entities graph.EntitySet `json:"entities"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			var (
				facts []string
				err   error
			)
			switch {
			case !req.Entities.IsEmpty():
				facts, err = svc.Facts(c.Request.Context(), req.Entities)
			case req.Query != "":
				facts, err = svc.ProcessQuestion(c.Request.Context(), req.Query, req.Identity)
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "query or entities is required"})
				return
			}
			if err != nil {
				writeError(c, log, err, "Failed to fetch facts")
				return
			}

			c.JSON(http.StatusOK, gin.H{"facts": facts})
		})

		api.POST("/entities", func(c *gin.Context) {
			var req struct {
				Statement string `json:"statement" binding:"required"`
				Identity  string `json:"identity"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			entities, err := svc.ExtractEntities(c.Request.Context(), req.Statement, req.Identity)
			if err != nil {
				writeError(c, log, err, "Failed to extract entities")
				return
			}

			c.JSON(http.StatusOK, gin.H{"entities": entities})
		})

		api.POST("/topic", func(c *gin.Context) {
			var req struct {
				Text string `json:"text" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			content, err := svc.Topic(c.Request.Context(), req.Text)
			if err != nil {
				writeError(c, log, err, "Failed to extract topic")
				return
			}

			c.JSON(http.StatusOK, gin.H{"content": content})
		})
	}
}

// writeError maps the error category to a status code
func writeError(c *gin.Context, log *zap.Logger, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsErrorType(err, apperrors.ErrorTypeValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case apperrors.IsErrorType(err, apperrors.ErrorTypeContext):
		status = http.StatusGatewayTimeout
	case apperrors.IsErrorType(err, apperrors.ErrorTypeProvider):
		status = http.StatusBadGateway
	case apperrors.IsErrorType(err, apperrors.ErrorTypeGraph):
		status = http.StatusServiceUnavailable
	}

	log.Error(message, zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{
		"error":     message,
		"retryable": apperrors.IsRetryable(err),
	})
}

// limitBody caps request bodies
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
