package offsets

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(svc *Service) *gin.Engine {
	router := gin.New()
	NewHandler(svc, nil, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandler_GetPlan(t *testing.T) {
	router := newTestRouter(newTestService(&stubEngine{result: realResult()}, nil, ServiceOptions{}))

	w := serve(router, "/api/v1/offsets/angul")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "real", w.Header().Get(HeaderPlanKind))
	assert.Equal(t, "Odisha", w.Header().Get(HeaderModelRegion))
	assert.Equal(t, "exact", w.Header().Get(HeaderModelSource))

	body := decode(t, w)
	meta := body["mine_metadata"].(map[string]any)
	assert.Equal(t, "Angul", meta["mine_name"])
	kpis := body["kpis"].(map[string]any)
	assert.Equal(t, float64(9542484), kpis["total_trees_required"])
}

func TestHandler_GetPlan_Simulated(t *testing.T) {
	engine := &stubEngine{err: &planner.ComputationError{Site: "Angul Mine", Reason: "boom"}}
	router := newTestRouter(newTestService(engine, nil, ServiceOptions{}))

	w := serve(router, "/api/v1/offsets/Talcher")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "simulated", w.Header().Get(HeaderPlanKind))
	assert.Empty(t, w.Header().Get(HeaderModelRegion))

	meta := decode(t, w)["mine_metadata"].(map[string]any)
	assert.Equal(t, planner.StatusSimulation, meta["status"])
}

func TestHandler_GetPlan_NotFound(t *testing.T) {
	engine := &stubEngine{err: &planner.SiteNotFoundError{Query: "Atlantis", KnownSites: []string{"Angul Mine", "Talcher Mine"}}}
	router := newTestRouter(newTestService(engine, nil, ServiceOptions{}))

	w := serve(router, "/api/v1/offsets/atlantis")
	require.Equal(t, http.StatusNotFound, w.Code)

	body := decode(t, w)
	assert.Equal(t, "mine 'Atlantis' not found", body["error"])
	assert.Equal(t, []any{"Angul Mine", "Talcher Mine"}, body["available_mines"])
}

func TestHandler_GetPlan_NotReady(t *testing.T) {
	svc := NewService(&stubEngine{result: realResult()}, nil, zap.NewNop(), ServiceOptions{})
	router := newTestRouter(svc)

	w := serve(router, "/api/v1/offsets/angul")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_ExportCSV(t *testing.T) {
	router := newTestRouter(newTestService(&stubEngine{result: realResult()}, nil, ServiceOptions{}))

	w := serve(router, "/api/v1/offsets/angul/export?format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="angul-20240601.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "section,metric,value\n"))
}

func TestHandler_ExportHindiText(t *testing.T) {
	router := newTestRouter(newTestService(&stubEngine{result: realResult()}, nil, ServiceOptions{}))

	w := serve(router, "/api/v1/offsets/angul/export?format=text&lang=hi")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "के लिए ऑफसेट योजना")
}

func TestHandler_ExportRejectsUnknownFormat(t *testing.T) {
	engine := &stubEngine{result: realResult()}
	router := newTestRouter(newTestService(engine, nil, ServiceOptions{}))

	w := serve(router, "/api/v1/offsets/angul/export?format=docx")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, engine.callCount())
}

func TestHandler_ExportArchiveNotConfigured(t *testing.T) {
	router := newTestRouter(newTestService(&stubEngine{result: realResult()}, nil, ServiceOptions{}))

	w := serve(router, "/api/v1/offsets/angul/export?format=pdf&archive=true")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_Dashboard(t *testing.T) {
	router := newTestRouter(newTestService(&stubEngine{result: realResult()}, nil, ServiceOptions{}))

	w := serve(router, "/api/v1/offsets/angul/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Land compliance (ha)")
}

func TestHandler_ListSites(t *testing.T) {
	engine := &stubEngine{sites: []string{"Angul Mine", "Talcher Mine"}}
	router := newTestRouter(newTestService(engine, nil, ServiceOptions{}))

	w := serve(router, "/api/v1/offsets/sites")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, false, body["degraded"])
}

func TestHandler_History(t *testing.T) {
	repo := new(MockRepository)
	repo.On("List", mock.Anything, HistoryFilter{Kind: KindReal, Limit: 10}).
		Return([]PlanRun{{Query: "angul", SiteName: "Angul Mine", Kind: KindReal}}, nil).Once()
	router := newTestRouter(newTestService(nil, repo, ServiceOptions{}))

	w := serve(router, "/api/v1/offsets/history?kind=real&limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = serve(router, "/api/v1/offsets/history?kind=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	repo.AssertExpectations(t)
}
