package http

import (
	"github.com/gin-gonic/gin"

	"studyrag/internal/bootstrap"
	"studyrag/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	sessionHandler := handler.NewSessionHandler(app.SessionService, app.ChatService)
	ingestHandler := handler.NewIngestHandler(app.IngestService)
	chatHandler := handler.NewChatHandler(app.ChatService)

	v1 := router.Group("/api/v1")
	sessions := v1.Group("/sessions")
	sessions.POST("", sessionHandler.Create)
	sessions.GET("", sessionHandler.List)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.PATCH("/:id", sessionHandler.Update)
	sessions.DELETE("/:id", sessionHandler.Delete)
	sessions.POST("/:id/touch", sessionHandler.Touch)

	sessions.GET("/:id/documents", sessionHandler.ListDocuments)
	sessions.POST("/:id/documents", ingestHandler.Upload)

	sessions.GET("/:id/history", sessionHandler.GetHistory)
	sessions.DELETE("/:id/history", sessionHandler.ClearHistory)

	sessions.POST("/:id/chat", chatHandler.SendMessage)
	sessions.POST("/:id/quick-action", chatHandler.QuickAction)

	return router
}
