package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultAllowedOrigins are the local front-end dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	RateBurst int
}

// NewRouter sets up the API router
func NewRouter(documents DocumentService, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}

	router := gin.New()
	// Multipart bodies beyond this are spooled to disk by net/http.
	router.MaxMultipartMemory = 32 << 20

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimit > 0 {
		router.Use(RateLimitMiddleware(NewRateLimiter(cfg.RateLimit, cfg.RateBurst)))
	}

	handler := NewHandler(documents, cfg.MaxUploadBytes, logger)

	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)
	router.POST("/upload", handler.UploadDocument)
	router.POST("/ask", handler.Ask)

	docs := router.Group("/documents")
	{
		docs.GET("", handler.ListDocuments)
		docs.GET("/:id", handler.GetDocument)
		docs.DELETE("/:id", handler.DeleteDocument)
	}

	return router
}
