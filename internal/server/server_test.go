package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"awesomeml/internal/config"
	"awesomeml/internal/models"
	"awesomeml/internal/persistence"
	"awesomeml/internal/preprocessing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fittedBundle(t *testing.T) *persistence.ModelBundle {
	t.Helper()
	encoder := preprocessing.NewLabelEncoder()
	y, err := encoder.FitTransform([]string{"versicolor", "setosa", "versicolor", "virginica"})
	require.NoError(t, err)

	X := make([][]decimal.Decimal, len(y))
	for i := range X {
		X[i] = []decimal.Decimal{decimal.NewFromInt(int64(i)), decimal.NewFromInt(1)}
	}

	bundle := persistence.NewModelBundle(models.NewMajorityClassifier[int](models.Width8), preprocessing.NewScaler(preprocessing.ScaleMinMax), encoder)
	require.NoError(t, bundle.Pipeline().Fit(X, y))
	bundle.Metadata.RunID = "run-42"
	return bundle
}

func newTestServer(bundle *persistence.ModelBundle) *Server {
	return New(config.ServerConfig{Address: "127.0.0.1:0"}, bundle, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPredict(t *testing.T) {
	s := newTestServer(fittedBundle(t))

	rec := do(t, s, http.MethodPost, "/v1/predict", `{"features": [[0, 1], [3.5, 2], ["1.25", 0]]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"versicolor", "versicolor", "versicolor"}, resp.Predictions)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, rec.Header().Get("X-Request-ID"))
}

func TestPredict_EmptyFeatures(t *testing.T) {
	s := newTestServer(fittedBundle(t))

	rec := do(t, s, http.MethodPost, "/v1/predict", `{"features": []}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Predictions)
}

func TestPredict_BadRequests(t *testing.T) {
	s := newTestServer(fittedBundle(t))

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"features": [[1, 2]`},
		{"not a number", `{"features": [["abc", 1]]}`},
		{"unknown field", `{"rows": [[1, 2]]}`},
		{"ragged rows", `{"features": [[1, 2], [3]]}`},
		{"wrong width", `{"features": [[1, 2, 3]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/predict", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestPredict_Unfitted(t *testing.T) {
	bundle := persistence.NewModelBundle(models.NewMajorityClassifier[int](models.Width8), nil, nil)
	s := newTestServer(bundle)

	rec := do(t, s, http.MethodPost, "/v1/predict", `{"features": [[1, 2]]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, http.MethodGet, "/v1/model", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fitted":"false"`)
}

func TestModelEndpoint(t *testing.T) {
	s := newTestServer(fittedBundle(t))

	rec := do(t, s, http.MethodGet, "/v1/model", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ModelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.MajorityName, resp.Name)
	assert.Equal(t, []string{"setosa", "versicolor", "virginica"}, resp.Classes)
	assert.Equal(t, "versicolor", resp.MajorityClass)
	assert.Equal(t, 8, resp.OutputWidth)
	assert.Equal(t, "run-42", resp.RunID)
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(fittedBundle(t))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestNotFound(t *testing.T) {
	s := newTestServer(fittedBundle(t))
	rec := do(t, s, http.MethodGet, "/v2/predict", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(fittedBundle(t))

	do(t, s, http.MethodPost, "/v1/predict", `{"features": [[0, 1], [1, 1]]}`)
	do(t, s, http.MethodPost, "/v1/predict", `not json`)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "awesomeml_predictions_total 2")
	assert.Contains(t, body, `awesomeml_predict_requests_total{status="ok"} 1`)
	assert.Contains(t, body, `awesomeml_predict_requests_total{status="bad_request"} 1`)
	assert.Contains(t, body, "awesomeml_predict_duration_seconds_count 2")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	s := New(config.ServerConfig{Address: addr}, fittedBundle(t), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
