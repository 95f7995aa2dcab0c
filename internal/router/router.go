package router

import (
	"net/http"

	"geomark/internal/handlers"
	"geomark/internal/middleware"
	"geomark/internal/store"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, s *store.Store) {
	// Handlers
	authHandler := handlers.NewAuthHandler(s)
	commentHandler := handlers.NewCommentHandler(s)
	userHandler := handlers.NewUserHandler()
	aiHandler := handlers.NewAIHandler()

	// Liveness
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "GeoMark server is running")
	})

	api := r.Group("/api")

	// Auth (public)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Public read routes
	api.GET("/comments", commentHandler.ListByLocation)         // Nearby comments with replies
	api.GET("/comments/all", commentHandler.ListInBounds)       // Viewport markers
	api.GET("/comments/markers", commentHandler.ListMarkers)    // One pin per coordinate
	api.GET("/comments/:id", commentHandler.Detail)             // Comment + ordered replies
	api.POST("/comments", middleware.AuthOptional(), commentHandler.Create) // Guests may post

	// Protected routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/users/me", userHandler.Me)
		authorized.DELETE("/comments/:id", commentHandler.Delete)
		authorized.POST("/replies", commentHandler.CreateReply)
		authorized.DELETE("/replies/:id", commentHandler.DeleteReply)
		authorized.POST("/ai/recommend", aiHandler.Recommend)
	}
}
