package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const corsMaxAge = 12 * time.Hour

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, products ProductService, st StoreInterface, corsOrigins string, log *zap.Logger) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     splitOrigins(corsOrigins),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}))

	handlers := NewHandlers(products, st, log)

	v1 := r.Group("/api")
	{
		// Health check (handle both GET and HEAD)
		v1.GET("/health", handlers.HealthCheck)
		v1.HEAD("/health", handlers.HealthCheck)

		// Products
		v1.POST("/products", handlers.CreateProduct)
		v1.GET("/products", handlers.GetProducts)
		v1.GET("/products/:id", handlers.GetProduct)
		v1.POST("/products/:id/refresh", handlers.RefreshProduct)
		v1.GET("/products/:id/snapshots", handlers.GetProductSnapshots)

		// Stats
		v1.GET("/stats", handlers.GetStats)
	}
}

func splitOrigins(origins string) []string {
	var out []string
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	if len(out) == 0 {
		out = []string{"http://localhost:3000"}
	}
	return out
}
