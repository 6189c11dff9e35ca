// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/restoklabs/restok/backend-go/internal/api/handlers"
	"github.com/restoklabs/restok/backend-go/internal/api/middleware"
	"github.com/restoklabs/restok/backend-go/internal/service"
)

type Services struct {
	PlanningService *service.PlanningService
	LedgerService   *service.LedgerService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		orgGroup := apiGroup.Group("/orgs/:org")

		if services.PlanningService != nil {
			planHandler := handlers.NewPlanHandler(services.PlanningService)
			{
				orgGroup.GET("/plan", planHandler.GetPlan)
				orgGroup.GET("/plan/transfers", planHandler.GetTransferSuggestions)
				orgGroup.GET("/plan/projection", planHandler.GetProjection)
				orgGroup.GET("/inventory", planHandler.GetInventory)
			}
		}

		if services.LedgerService != nil {
			ledgerHandler := handlers.NewLedgerHandler(services.LedgerService)
			{
				orgGroup.POST("/orders/apply", ledgerHandler.ApplyOrders)
				orgGroup.POST("/transfers/apply", ledgerHandler.ApplyTransfers)
				orgGroup.GET("/events", ledgerHandler.GetEvents)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
