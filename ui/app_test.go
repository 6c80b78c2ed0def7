package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gosigma/adapters/report"
	"gosigma/app"
	"gosigma/domain/doe"
	"gosigma/internal"
	"gosigma/internal/config"
	"gosigma/internal/errors"
	"gosigma/internal/testkit"
	"gosigma/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, repo ports.AnalysisRepository) http.Handler {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)
	svc := app.NewAnalysisService(repo, config.AnalysisConfig{
		DefaultSigmaLevel: 3,
		HistogramBins:     10,
		PValueMode:        doe.PValueLegacy,
		BatchConcurrency:  2,
	}, logger)
	return NewApp(Config{}, svc, report.NewRenderer(), logger).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func seriesJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(testkit.NewProcessGenerator(testkit.DefaultProcessConfig()).Generate())
	require.NoError(t, err)
	return string(b)
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestApp(t, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","persistence":false}`, rec.Body.String())
}

func TestControlLimitsEndpoint(t *testing.T) {
	h := newTestApp(t, nil)

	rec := do(t, h, http.MethodPost, "/api/control-limits", `{"series":[2,4,4,4,5,5,7,9],"sigma_level":1.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp app.ControlResponse
	decodeBody(t, rec, &resp)
	assert.InDelta(t, 5, resp.Limits.Mean, 1e-12)
	assert.Equal(t, []int{7}, resp.Limits.Violations)

	rec = do(t, h, http.MethodPost, "/api/control-limits", `{"series":[1]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var errBody errorResponse
	decodeBody(t, rec, &errBody)
	assert.Equal(t, errors.CodeInsufficientData, errBody.Code)

	rec = do(t, h, http.MethodPost, "/api/control-limits", `{"series":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/control-limits", `{"points":[1,2,3]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContentTypeEnforced(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/control-limits", strings.NewReader(`{"series":[1,2]}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	newTestApp(t, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCapabilityEndpoints(t *testing.T) {
	h := newTestApp(t, nil)
	body := `{"series":` + seriesJSON(t) + `,"usl":12,"lsl":8,"histogram":true}`

	rec := do(t, h, http.MethodPost, "/api/capability", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp app.CapabilityResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 100, resp.Result.SampleSize)
	assert.Len(t, resp.Histogram, 10)

	rec = do(t, h, http.MethodPost, "/api/capability", `{"series":[1,2,3],"usl":1,"lsl":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/capability/histogram", `{"series":[1,2,3,4,5,6],"usl":5,"lsl":2,"bins":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Histogram, 5)
}

func TestCapabilityReport(t *testing.T) {
	h := newTestApp(t, nil)
	body := `{"label":"Line 3","series":` + seriesJSON(t) + `,"usl":12,"lsl":8}`

	rec := do(t, h, http.MethodPost, "/api/capability/report", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Line 3</h1>")

	rec = do(t, h, http.MethodPost, "/api/capability/report?format=markdown", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Line 3"))
}

func TestDOEEndpoints(t *testing.T) {
	h := newTestApp(t, nil)

	rec := do(t, h, http.MethodPost, "/api/doe/design", `{"type":"half_fraction","k":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var design app.DesignResponse
	decodeBody(t, rec, &design)
	assert.Equal(t, 4, design.Design.RunCount())

	rec = do(t, h, http.MethodPost, "/api/doe/analyze", `{
		"runs": [[-1,-1],[1,-1],[-1,1],[1,1]],
		"factors": ["A","B"],
		"response": [-1,5,-5,1],
		"response_spec": {"name":"y","direction":"minimize"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var analysis app.DOEResponse
	decodeBody(t, rec, &analysis)
	assert.InDelta(t, -5, analysis.Analysis.PredictedOptimum, 1e-12)
	assert.Equal(t, "Error", analysis.Analysis.ANOVA.Rows[3].Source)

	rec = do(t, h, http.MethodPost, "/api/doe/analyze", `{"runs":[[1],[-1]],"factors":["A"],"response":[1]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBatchEndpoint(t *testing.T) {
	h := newTestApp(t, nil)
	body := `{"series":[{"name":"a","values":` + seriesJSON(t) + `},{"name":"b","values":[1]}]}`

	rec := do(t, h, http.MethodPost, "/api/batch/control-limits", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp app.BatchControlResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, errors.CodeInsufficientData, resp.Items[1].ErrorCode)
}

func TestAnalysesEndpoints(t *testing.T) {
	h := newTestApp(t, testkit.NewInMemoryAnalysisRepository())

	rec := do(t, h, http.MethodPost, "/api/control-limits", `{"label":"torque","series":[2,4,4,4,5,5,7,9]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp app.ControlResponse
	decodeBody(t, rec, &resp)
	require.False(t, resp.ID.IsEmpty())

	rec = do(t, h, http.MethodGet, "/api/analyses/"+resp.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stored map[string]interface{}
	decodeBody(t, rec, &stored)
	assert.Equal(t, "control_limits", stored["kind"])
	assert.Equal(t, "torque", stored["label"])

	rec = do(t, h, http.MethodGet, "/api/analyses?kind=control_limits&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	decodeBody(t, rec, &list)
	assert.Len(t, list, 1)

	rec = do(t, h, http.MethodGet, "/api/analyses?limit=zero", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/analyses/00000000-0000-0000-0000-000000000000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalysesWithoutStorage(t *testing.T) {
	rec := do(t, newTestApp(t, nil), http.MethodGet, "/api/analyses/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
