package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"flood-geoservice/internal/cache"
	"flood-geoservice/internal/format"
	"flood-geoservice/internal/geo"
	"flood-geoservice/internal/logging"
	"flood-geoservice/internal/models"
	"flood-geoservice/internal/observability"
	"flood-geoservice/internal/ws"
)

// Store is the record-producing query surface the handlers read from.
type Store interface {
	FloodAreas(ctx context.Context) (models.RecordSet, error)
	WaterLevels(ctx context.Context) (models.RecordSet, error)
}

type Handler struct {
	store   Store
	cache   *cache.Cache
	builder *format.Builder
	hub     *ws.Hub
	logger  *logging.Logger
	metrics *observability.Metrics
}

func NewHandler(store Store, c *cache.Cache, builder *format.Builder, hub *ws.Hub, logger *logging.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{
		store:   store,
		cache:   c,
		builder: builder,
		hub:     hub,
		logger:  logger,
		metrics: metrics,
	}
}

// GetFloodAreas serves the flood situation in the requested format. The
// response is cached per request signature, so identical requests within the
// TTL never reach the database.
func (h *Handler) GetFloodAreas(c *gin.Context) {
	sig := cache.Signature(c.Request)
	if env, ok := h.cache.Get(sig); ok {
		writeEnvelope(c, env)
		return
	}

	rs, err := h.store.FloodAreas(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to query flood areas: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query flood areas"})
		return
	}

	if bounds := c.Query("bounds"); bounds != "" && rs.Collection != nil {
		box, err := geo.ParseBounds(bounds)
		if err != nil {
			h.logger.Errorf("Invalid bounds %q: %v", bounds, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bounds"})
			return
		}
		rs.Collection = geo.FilterCollection(rs.Collection, box)
	}

	h.respond(c, sig, c.Query("format"), rs)
}

// GetWaterLevels serves the latest gauge readings. Water levels are a bare
// row list, so only the JSON formats apply.
func (h *Handler) GetWaterLevels(c *gin.Context) {
	sig := cache.Signature(c.Request)
	if env, ok := h.cache.Get(sig); ok {
		writeEnvelope(c, env)
		return
	}

	rs, err := h.store.WaterLevels(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to query water levels: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query water levels"})
		return
	}

	h.respond(c, sig, c.Query("format"), rs)
}

// AlertSocket upgrades the connection and streams newly raised alerts.
func (h *Handler) AlertSocket(c *gin.Context) {
	h.hub.Handle(c)
}

func (h *Handler) respond(c *gin.Context, sig, requested string, rs models.RecordSet) {
	env, err := h.builder.Build(requested, rs)
	if err != nil {
		h.logger.Errorf("Failed to build %s response: %v", format.Normalize(requested), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build response"})
		return
	}

	if h.metrics != nil {
		h.metrics.ResponsesBuilt.WithLabelValues(format.Normalize(requested)).Inc()
	}
	h.cache.Put(sig, env)
	writeEnvelope(c, env)
}

// writeEnvelope hands a response envelope to the HTTP sink verbatim.
func writeEnvelope(c *gin.Context, env models.ResponseEnvelope) {
	for k, v := range env.Header {
		c.Header(k, v)
	}
	if env.Body == nil {
		c.Status(env.Status)
		return
	}
	c.Data(env.Status, env.Header["Content-Type"], env.Body)
}
