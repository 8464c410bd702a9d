package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flood-geoservice/internal/config"
	"flood-geoservice/internal/logging"
)

func NewRouter(h *Handler, logger *logging.Logger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLoggingMiddleware(logger))

	api := r.Group(cfg.API.BasePath)
	{
		api.GET("/flood-areas", h.GetFloodAreas)
		api.GET("/water-levels", h.GetWaterLevels)
	}

	r.GET("/ws/alerts", h.AlertSocket)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
