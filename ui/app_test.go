package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocausal/adapters/rng"
	"gocausal/app"
	"gocausal/domain/causal"
	"gocausal/internal/pipeline"
	"gocausal/internal/testkit"
)

func testApp() *App {
	service := app.NewAnalysisService(pipeline.New(nil, nil), rng.NewStreamFactory(), nil, nil)
	return NewApp(service, nil, nil)
}

func postAnalysis(t *testing.T, a *App, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	testApp().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRunAnalysis_SyntheticDataset(t *testing.T) {
	a := testApp()
	rec := postAnalysis(t, a, `{"synthetic": {
		"sample_count": 600, "true_effect": 10, "power_user_share": 0.3,
		"noise_sigma": 5, "seed": 42
	}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report causal.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.NotEmpty(t, report.ID)
	assert.Len(t, report.Refutations, 2)
	assert.InDelta(t, 10.0, report.Estimate.Estimate, 4.0)

	// The finished report is retrievable by ID.
	getRec := httptest.NewRecorder()
	a.Router().ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/api/analyses/"+string(report.ID), nil))
	require.Equal(t, http.StatusOK, getRec.Code)

	// And as rendered HTML.
	htmlRec := httptest.NewRecorder()
	a.Router().ServeHTTP(htmlRec, httptest.NewRequest(http.MethodGet, "/api/analyses/"+string(report.ID)+"/report", nil))
	require.Equal(t, http.StatusOK, htmlRec.Code)
	assert.Contains(t, htmlRec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, htmlRec.Body.String(), "<table>")
}

func TestRunAnalysis_InlineDataset(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	cfg.SampleCount = 600
	ds, err := testkit.NewExperimentGenerator(cfg).Generate()
	require.NoError(t, err)

	payload, err := json.Marshal(AnalysisRequest{Dataset: ds})
	require.NoError(t, err)

	rec := postAnalysis(t, testApp(), string(bytes.TrimSpace(payload)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRunAnalysis_MalformedBody(t *testing.T) {
	rec := postAnalysis(t, testApp(), `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestRunAnalysis_MissingDataset(t *testing.T) {
	rec := postAnalysis(t, testApp(), `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "dataset or synthetic required")
}

func TestRunAnalysis_InvalidOptions(t *testing.T) {
	rec := postAnalysis(t, testApp(), `{
		"synthetic": {"sample_count": 200, "true_effect": 10, "power_user_share": 0.3, "noise_sigma": 5, "seed": 42},
		"options": {"caliper": -1}
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFIG_INVALID")
}

func TestRunAnalysis_DegenerateDatasetUnprocessable(t *testing.T) {
	cfg := testkit.DefaultExperimentConfig()
	cfg.SampleCount = 300
	ds, err := testkit.NewExperimentGenerator(cfg).GenerateDegenerate()
	require.NoError(t, err)

	payload, err := json.Marshal(AnalysisRequest{Dataset: ds})
	require.NoError(t, err)

	rec := postAnalysis(t, testApp(), string(payload))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "ESTIMATION_FAILED")
}

func TestGetAnalysis_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	testApp().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
