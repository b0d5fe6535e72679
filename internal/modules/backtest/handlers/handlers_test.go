package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/backtest"
	testingpkg "github.com/aristath/advisor/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter() http.Handler {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	provider := testingpkg.NewMockMarketDataProvider()
	provider.SetBars("BTC", domain.IntervalWeek, testingpkg.FlatBars(10, 100, testingpkg.Week))

	router := chi.NewRouter()
	router.Route("/api", NewHandler(backtest.NewEngine(provider, nil, log), log).RegisterRoutes)
	return router
}

func post(t *testing.T, router http.Handler, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/backtest", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestHandleRun(t *testing.T) {
	rec, body := post(t, setupRouter(), map[string]interface{}{
		"start_date":      "2022-01-01",
		"end_date":        "2022-12-31",
		"initial_capital": 10000,
		"symbols":         []string{"BTC"},
		"strategy":        "buy_and_hold",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "success", data["status"])
	assert.NotEmpty(t, data["run_id"])
	assert.Len(t, data["equity_curve"], 11)
	assert.Len(t, data["trade_history"], 1)

	metrics := data["metrics"].(map[string]interface{})
	assert.Equal(t, 10000.0, metrics["final_value"])
	assert.Equal(t, 1.0, metrics["total_trades"])
}

func TestHandleRun_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]interface{}
		status string
	}{
		{
			name:   "malformed date",
			body:   map[string]interface{}{"start_date": "01/01/2022", "end_date": "2022-12-31"},
			status: "invalid_dates",
		},
		{
			name:   "reversed dates",
			body:   map[string]interface{}{"start_date": "2022-12-31", "end_date": "2022-01-01", "initial_capital": 100, "symbols": []string{"BTC"}, "strategy": "buy_and_hold"},
			status: "invalid_dates",
		},
		{
			name:   "unknown strategy",
			body:   map[string]interface{}{"start_date": "2022-01-01", "end_date": "2022-12-31", "initial_capital": 100, "symbols": []string{"BTC"}, "strategy": "moon"},
			status: "invalid_input",
		},
	}

	router := setupRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := post(t, router, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			if errBody, ok := body["error"].(map[string]interface{}); ok {
				assert.Equal(t, tt.status, errBody["status"])
			} else {
				assert.Equal(t, tt.status, body["data"].(map[string]interface{})["status"])
			}
		})
	}
}
