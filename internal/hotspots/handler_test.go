package hotspots

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	repo := newSQLiteRepository(t)
	require.NoError(t, repo.ReplaceAll(context.Background(), seedHotspots()))

	router := gin.New()
	NewHandler(newTestService(repo, ServiceOptions{}), zap.NewNop()).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func get(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandler_List(t *testing.T) {
	router := newTestRouter(t)

	w, body := get(t, router, "/api/v1/hotspots?state=Odisha&limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(2), body["total_pages"])
	assert.Len(t, body["data"], 2)

	w, _ = get(t, router, "/api/v1/hotspots?level=Purple")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Top(t *testing.T) {
	router := newTestRouter(t)

	w, body := get(t, router, "/api/v1/hotspots/top?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])
	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Angul Mine", first["mine_name"])
	assert.Equal(t, "Red", first["hotspot_level"])
}

func TestHandler_StatsAndByState(t *testing.T) {
	router := newTestRouter(t)

	w, body := get(t, router, "/api/v1/hotspots/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), body["total"])

	w, body = get(t, router, "/api/v1/hotspots/by-state")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["count"])
}

func TestHandler_Geo(t *testing.T) {
	router := newTestRouter(t)

	w, body := get(t, router, "/api/v1/hotspots/geo")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["count"])

	w, body = get(t, router, "/api/v1/hotspots/geo?min_lat=20&max_lat=22&min_lng=84&max_lng=86&format=geojson")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FeatureCollection", body["type"])
	features := body["features"].([]any)
	require.Len(t, features, 1)
	props := features[0].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, "Angul Mine", props["mine_name"])

	w, _ = get(t, router, "/api/v1/hotspots/geo?min_lat=30&max_lat=20&min_lng=84&max_lng=86")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = get(t, router, "/api/v1/hotspots/geo?min_lat=x&max_lat=20&min_lng=84&max_lng=86")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
