package handler

import (
	"log/slog"
	"net/http"

	_ "edms/api/swagger" // swagger docs
	"edms/internal/middleware"
	"edms/internal/service"
	"edms/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	Logger      *slog.Logger
	JWTSecret   []byte
	CORSOrigins []string
	Hub         *websocket.Hub
	Roster      middleware.Roster

	Requests service.RequestService
	Records  service.RecordsService
	Users    service.UserService
	Audit    service.AuditService
}

// NewRouter assembles middleware, operational endpoints and the /api routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(cfg.Logger), middleware.Metrics())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:5173"}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", IdempotencyHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	if cfg.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			websocket.ServeWs(cfg.Hub, c, cfg.JWTSecret)
		})
	}

	api := router.Group("/api", middleware.Authenticate(cfg.JWTSecret))
	NewRequestHandler(cfg.Requests).RegisterRoutes(api)
	NewRecordsHandler(cfg.Records).RegisterRoutes(api)
	NewUserHandler(cfg.Users).RegisterRoutes(api)
	NewAuditHandler(cfg.Audit).RegisterRoutes(api.Group("", middleware.RequireStaff(cfg.Roster)))

	return router
}
