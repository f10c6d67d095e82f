package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/metrics"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/rooms"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/visitors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errMissingTokenIssuer    = errors.New("visitor token issuer dependency required")
	errMissingVisitorService = errors.New("visitor service dependency required")
	errMissingRoomsService   = errors.New("rooms service dependency required")
)

// VisitorTokens issues and validates visitor tokens.
type VisitorTokens interface {
	IssueVisitorToken(ctx context.Context, visitorID string) (string, int64, error)
	ValidateRequest(r *http.Request) (auth.VisitorClaims, error)
}

// VisitorRegistry persists visitors.
type VisitorRegistry interface {
	Register(ctx context.Context) (visitors.Visitor, error)
	Touch(ctx context.Context, visitorID string) error
	Get(ctx context.Context, visitorID string) (visitors.Visitor, error)
}

type Dependencies struct {
	TokenIssuer    VisitorTokens
	Visitors       VisitorRegistry
	RoomsService   *rooms.Service
	Metrics        *metrics.Metrics
	RateLimiter    *RateLimiter
	AllowedOrigins []string
	Logger         *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenIssuer == nil {
		return nil, errMissingTokenIssuer
	}
	if deps.Visitors == nil {
		return nil, errMissingVisitorService
	}
	if deps.RoomsService == nil {
		return nil, errMissingRoomsService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.GinMiddleware())
	}
	router.Use(corsMiddleware(deps.AllowedOrigins))

	handler := &httpHandler{
		tokens:   deps.TokenIssuer,
		visitors: deps.Visitors,
		rooms:    deps.RoomsService,
		metrics:  deps.Metrics,
		logger:   logger,
	}

	router.GET("/healthz", handleHealth)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	writeGuard := func(c *gin.Context) { c.Next() }
	if deps.RateLimiter != nil {
		writeGuard = deps.RateLimiter.Middleware()
	}

	api := router.Group("/api")
	api.Use(handler.identifyVisitor)

	api.POST("/visitors", writeGuard, handler.handleIssueVisitor)
	api.GET("/visitors/me", handler.handleCurrentVisitor)

	api.POST("/rooms", writeGuard, handler.handleCreateRoom)
	api.GET("/rooms/:roomId", handler.handleGetRoom)
	api.PATCH("/rooms/:roomId", writeGuard, handler.handleEditRoom)
	api.POST("/rooms/:roomId/close", writeGuard, handler.handleCloseVoting)
	api.POST("/rooms/:roomId/confirm", writeGuard, handler.handleConfirmDate)
	api.GET("/rooms/:roomId/calendar", handler.handleCalendar)

	api.GET("/votes/:roomId", handler.handleGetVotes)
	api.POST("/votes/:roomId", writeGuard, handler.handleRegisterVote)
	api.PUT("/votes/:roomId", writeGuard, handler.handleUpdateVote)

	return router, nil
}

type httpHandler struct {
	tokens   VisitorTokens
	visitors VisitorRegistry
	rooms    *rooms.Service
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowHeaders:  []string{"Content-Type", auth.HeaderName},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	}
	return cors.New(config)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("http request", fields...)
			return
		}
		logger.Info("http request", fields...)
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
