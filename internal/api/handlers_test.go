package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flood-geoservice/internal/cache"
	capalert "flood-geoservice/internal/cap"
	"flood-geoservice/internal/config"
	"flood-geoservice/internal/format"
	"flood-geoservice/internal/logging"
	"flood-geoservice/internal/models"
	"flood-geoservice/internal/observability"
	"flood-geoservice/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubStore struct {
	mu         sync.Mutex
	areas      models.RecordSet
	levels     models.RecordSet
	areaCalls  int
	levelCalls int
}

func (s *stubStore) FloodAreas(context.Context) (models.RecordSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areaCalls++
	return s.areas, nil
}

func (s *stubStore) WaterLevels(context.Context) (models.RecordSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levelCalls++
	return s.levels, nil
}

func (s *stubStore) AreaCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.areaCalls
}

func areaRecordSet() models.RecordSet {
	f := geojson.NewFeature(&geojson.Geometry{
		Type: geojson.GeometryPolygon,
		Polygon: [][][]float64{{
			{100.4, 7.0}, {100.5, 7.0}, {100.5, 7.1}, {100.4, 7.1}, {100.4, 7.0},
		}},
	})
	f.SetProperty("state", 2)
	f.SetProperty("name", "Khlong U Taphao")
	f.SetProperty("parent_name", "Hat Yai")
	f.SetProperty("last_updated", "2026-08-20 10:30:00")

	fc := geojson.NewFeatureCollection()
	fc.AddFeature(f)
	return models.RecordSet{Collection: fc}
}

func testRouter(store Store) *gin.Engine {
	loc := time.FixedZone("ICT", 7*3600)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 20, 12, 0, 0, 0, loc))
	logger := logging.NewNop()
	metrics := observability.NewMetricsForTesting()

	alerts := capalert.NewBuilder(config.DefaultStateTable(), "flood-geoservice", 6*time.Hour, loc, clock)
	feed := capalert.NewFeedSerializer(alerts, "Flood situation alerts", logger, metrics)
	builder := format.NewBuilder(feed, loc, clock)
	respCache := cache.New(time.Minute, clock, metrics)

	h := NewHandler(store, respCache, builder, ws.NewHub(logger), logger, metrics)

	var cfg config.Config
	cfg.API.BasePath = "/api/v1"
	return NewRouter(h, logger, cfg)
}

func doRequest(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

func TestGetFloodAreas(t *testing.T) {
	t.Run("default format serves GeoJSON with QueryTime", func(t *testing.T) {
		r := testRouter(&stubStore{areas: areaRecordSet()})
		w := doRequest(r, "/api/v1/flood-areas")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, "FeatureCollection", payload["type"])
		assert.Equal(t, "2026-08-20T12:00:00", payload["QueryTime"])
	})

	t.Run("cap format serves an XML feed", func(t *testing.T) {
		r := testRouter(&stubStore{areas: areaRecordSet()})
		w := doRequest(r, "/api/v1/flood-areas?format=cap")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")
		assert.Contains(t, w.Body.String(), "urn:oasis:names:tc:emergency:cap:1.2")
	})

	t.Run("topojson format serves a topology", func(t *testing.T) {
		r := testRouter(&stubStore{areas: areaRecordSet()})
		w := doRequest(r, "/api/v1/flood-areas?format=topojson")

		require.Equal(t, http.StatusOK, w.Code)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, "Topology", payload["type"])
	})

	t.Run("absent record set yields 204", func(t *testing.T) {
		r := testRouter(&stubStore{})
		w := doRequest(r, "/api/v1/flood-areas")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("repeated identical requests are served from cache", func(t *testing.T) {
		store := &stubStore{areas: areaRecordSet()}
		r := testRouter(store)

		first := doRequest(r, "/api/v1/flood-areas?format=cap")
		second := doRequest(r, "/api/v1/flood-areas?format=cap")

		assert.Equal(t, 1, store.AreaCalls())
		assert.Equal(t, first.Body.String(), second.Body.String())
	})

	t.Run("different signatures miss independently", func(t *testing.T) {
		store := &stubStore{areas: areaRecordSet()}
		r := testRouter(store)

		doRequest(r, "/api/v1/flood-areas?format=cap")
		doRequest(r, "/api/v1/flood-areas?format=topojson")

		assert.Equal(t, 2, store.AreaCalls())
	})

	t.Run("bounds filter narrows the collection", func(t *testing.T) {
		r := testRouter(&stubStore{areas: areaRecordSet()})
		w := doRequest(r, "/api/v1/flood-areas?bounds=8.9+9.2+102.3+102.6")

		require.Equal(t, http.StatusOK, w.Code)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Empty(t, payload["features"])
	})

	t.Run("malformed bounds are rejected", func(t *testing.T) {
		r := testRouter(&stubStore{areas: areaRecordSet()})
		w := doRequest(r, "/api/v1/flood-areas?bounds=1+2")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetWaterLevels(t *testing.T) {
	store := &stubStore{levels: models.RecordSet{Rows: []map[string]interface{}{
		{"station_id": 1, "station_name": "U Taphao Bridge", "level_m": 2.41},
	}}}
	r := testRouter(store)
	w := doRequest(r, "/api/v1/water-levels")

	require.Equal(t, http.StatusOK, w.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "2026-08-20T12:00:00", payload["QueryTime"])
	assert.Len(t, payload["records"], 1)
}

func TestHealth(t *testing.T) {
	r := testRouter(&stubStore{})
	w := doRequest(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}
