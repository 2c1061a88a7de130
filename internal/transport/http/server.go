package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"docqa/internal/bootstrap"
	"docqa/internal/transport/http/handler"
	"docqa/internal/transport/http/middleware"
)

// Deps are the services behind the routes.
type Deps struct {
	Logger         *slog.Logger
	JWTSecret      string
	MaxUploadBytes int64
	Auth           handler.AuthService
	Documents      handler.DocumentService
	Health         *handler.HealthHandler
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)

	checks := make(map[string]handler.DependencyCheck)
	for name, check := range app.Checks() {
		checks[name] = handler.DependencyCheck(check)
	}

	return NewEngine(Deps{
		Logger:         app.Logger,
		JWTSecret:      app.Config.Auth.JWTSecret,
		MaxUploadBytes: app.Config.Upload.MaxBytes,
		Auth:           app.Auth,
		Documents:      app.Documents,
		Health:         handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, checks),
	})
}

func NewEngine(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(logger), gin.Recovery())
	if deps.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = deps.MaxUploadBytes
	}

	health := deps.Health
	if health == nil {
		health = handler.NewHealthHandler("docqa", "", time.Now(), map[string]handler.DependencyCheck{
			"self": func(context.Context) error { return nil },
		})
	}
	router.GET("/healthz", health.Check)

	authHandler := handler.NewAuthHandler(deps.Auth)
	documentHandler := handler.NewDocumentHandler(deps.Documents, deps.MaxUploadBytes)
	requireAuth := middleware.AuthJWT(deps.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	sessions := v1.Group("/sessions")
	sessions.Use(requireAuth)
	sessions.POST("", documentHandler.CreateSession)
	sessions.GET("", documentHandler.ListSessions)
	sessions.DELETE("/:id", documentHandler.DeleteSession)
	sessions.POST("/:id/document", documentHandler.Upload)
	sessions.GET("/:id/document", documentHandler.GetDocument)
	sessions.POST("/:id/summary", documentHandler.Summarize)
	sessions.POST("/:id/ask", documentHandler.Ask)
	sessions.GET("/:id/history", documentHandler.History)

	return router
}
