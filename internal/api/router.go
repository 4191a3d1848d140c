package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nadyita/Readle-sub000/internal/auth"
	"github.com/Nadyita/Readle-sub000/internal/metadata"
	"github.com/Nadyita/Readle-sub000/internal/storage"
)

// NewRouter wires all routes. Catalog mutation and metadata search sit
// behind authentication; registration, login and health do not.
func NewRouter(db *storage.Database, metadataService *metadata.Service, authn *auth.Authenticator, log *zap.Logger) *gin.Engine {
	handler := NewHandler(db, metadataService, log)
	authHandler := NewAuthHandler(db, authn, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/health", handler.HealthCheck)

	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.RefreshToken)
		}

		protected := apiGroup.Group("")
		protected.Use(auth.Middleware(authn))
		{
			protected.GET("/auth/me", authHandler.GetCurrentUser)

			protected.GET("/search", handler.SearchMetadata)

			protected.POST("/books", handler.CreateBook)
			protected.GET("/books", handler.ListBooks)
			protected.GET("/books/:id", handler.GetBook)
			protected.PUT("/books/:id", handler.UpdateBook)
			protected.PATCH("/books/:id/flags", handler.SetBookFlags)
			protected.DELETE("/books/:id", handler.DeleteBook)
		}
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
