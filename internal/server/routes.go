package server

import (
	"github.com/labstack/echo/v4"

	"github.com/vm2656/travel-itinerary-generator/internal/handlers"
)

type routeHandlers struct {
	health      *handlers.HealthHandler
	itineraries *handlers.ItineraryHandler
	images      *handlers.ImageHandler
	facts       *handlers.FactsHandler
	enrichments *handlers.EnrichmentHandler
	sessions    *handlers.SessionHandler
	exports     *handlers.ExportHandler
}

func registerRoutes(e *echo.Echo, h routeHandlers, aiRateLimiter echo.MiddlewareFunc) {
	e.GET("/health", h.health.Check)

	api := e.Group("/api/v1")

	itineraries := api.Group("/itineraries")
	itineraries.POST("/generate", h.itineraries.Generate, aiRateLimiter)
	itineraries.POST("/import", h.itineraries.Import)

	api.POST("/images/search", h.images.Search)
	api.POST("/travel-facts", h.facts.Create, aiRateLimiter)

	enrichments := api.Group("/enrichments")
	enrichments.POST("", h.enrichments.Start)
	enrichments.POST("/sync", h.enrichments.Sync)
	enrichments.GET("/:id", h.enrichments.Get)
	enrichments.GET("/:id/stream", h.enrichments.Stream)

	sessions := api.Group("/sessions")
	sessions.PUT("/:id", h.sessions.Put)
	sessions.GET("/:id", h.sessions.Get)
	sessions.DELETE("/:id", h.sessions.Delete)

	api.POST("/exports/:format", h.exports.Export)
}
