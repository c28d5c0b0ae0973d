package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/config"
	"github.com/twuijri/Vex/internal/handler"
	"github.com/twuijri/Vex/internal/middleware"
	"github.com/twuijri/Vex/internal/repository"
	"github.com/twuijri/Vex/internal/service"
)

// Server is the dashboard HTTP API.
type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	cfg    *config.Config
	logger *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
		logger: logger,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	jwtSecret := []byte(s.cfg.Auth.JWTSecret)

	userRepo := repository.NewDashboardUserRepository(s.db, s.logger)
	authService := service.NewAuthService(userRepo, jwtSecret, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.logger)

	providerRepo := repository.NewProviderRepository(s.db, s.logger)
	statRepo := repository.NewUsageStatRepository(s.db, s.logger)
	providerHandler := handler.NewProviderHandler(providerRepo, statRepo, s.logger)

	groupRepo := repository.NewGroupRepository(s.db, s.logger)
	groupHandler := handler.NewGroupHandler(groupRepo, s.logger)

	alertRepo := repository.NewAlertRepository(s.db, s.logger)
	alertHandler := handler.NewAlertHandler(alertRepo, s.logger)

	adminRepo := repository.NewAdminRepository(s.db, s.logger)
	adminHandler := handler.NewAdminHandler(adminRepo, s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(jwtSecret, s.logger))
	{
		authRequired.GET("/providers", providerHandler.List)
		authRequired.POST("/providers", providerHandler.Add)
		authRequired.DELETE("/providers/:id", providerHandler.Delete)
		authRequired.POST("/providers/:id/toggle", providerHandler.Toggle)
		authRequired.POST("/providers/:id/move", providerHandler.Move)
		authRequired.GET("/stats", providerHandler.ListStats)
		authRequired.DELETE("/stats/:id", providerHandler.DeleteStat)

		authRequired.GET("/groups", groupHandler.List)
		authRequired.POST("/groups/:id/deactivate", groupHandler.Deactivate)
		authRequired.GET("/groups/:id/words", groupHandler.ListWords)
		authRequired.POST("/groups/:id/words", groupHandler.AddWord)
		authRequired.DELETE("/groups/:id/words", groupHandler.RemoveWord)

		authRequired.GET("/alerts/pending", alertHandler.ListPending)

		authRequired.GET("/admins", adminHandler.List)
	}
}

func (s *Server) Run(addr string) error {
	s.logger.Info("Server starting", zap.String("addr", addr))
	return s.router.Run(addr)
}
