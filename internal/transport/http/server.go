package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quizroom/internal/app"
	"quizroom/internal/config"
	"quizroom/internal/domain"
	"quizroom/internal/store"
	"quizroom/internal/transport/ws"
)

// QuestionBank is the persistent question and score store behind the API
type QuestionBank interface {
	AddQuestion(ctx context.Context, q domain.Question) (uint, error)
	Categories(ctx context.Context) ([]string, error)
	TopScores(ctx context.Context, limit int) ([]store.HighScore, error)
}

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      *gin.Engine
	registry    *app.Registry
	broadcaster *app.ConnectionBroadcaster
	bank        QuestionBank
	config      *config.Config
	logger      *slog.Logger
}

// NewServer creates a new HTTP server. A nil bank disables the
// question bank and high score routes.
func NewServer(cfg *config.Config, registry *app.Registry, broadcaster *app.ConnectionBroadcaster, bank QuestionBank, logger *slog.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		registry:    registry,
		broadcaster: broadcaster,
		bank:        bank,
		config:      cfg,
		logger:      logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.cors(), s.requestLogger())
	s.setupRoutes(router)
	s.router = router

	s.server = &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.GET("/rooms/:roomCode", s.handleGetRoom)
	api.GET("/rooms/:roomCode/exists", s.handleRoomExists)

	if s.bank != nil {
		api.GET("/highscores", s.handleHighScores)
		api.GET("/categories", s.handleCategories)
		api.POST("/questions", s.handleAddQuestion)
	}

	// WebSocket
	wsHandler := ws.NewHandler(s.registry, s.broadcaster, s.logger)
	router.GET("/ws", gin.WrapH(wsHandler))

	router.NoRoute(func(c *gin.Context) {
		s.sendError(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// cors adds CORS headers and answers preflight requests
func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// requestLogger logs every request through slog
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}
