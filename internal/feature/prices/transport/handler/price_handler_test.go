package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	instrentity "invest_backend/internal/feature/instruments/domain/entity"
	"invest_backend/internal/feature/prices/domain/entity"
	"invest_backend/internal/feature/prices/transport/handler"
)

// mockHistoricIngest はHistoricIngestUsecaseインターフェースのモック実装です。
type mockHistoricIngest struct {
	IngestHistoricFunc func(ctx context.Context, from, to time.Time, offset int) error
}

func (m *mockHistoricIngest) IngestHistoric(ctx context.Context, from, to time.Time, offset int) error {
	return m.IngestHistoricFunc(ctx, from, to, offset)
}

// mockLiveIngest はLiveIngestUsecaseインターフェースのモック実装です。
type mockLiveIngest struct {
	err    error
	called bool
}

func (m *mockLiveIngest) IngestLive(ctx context.Context) error {
	m.called = true
	return m.err
}

// mockPriceQuery はPriceQueryUsecaseインターフェースのモック実装です。
type mockPriceQuery struct {
	GetHistoricPricesFunc func(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error)
}

func (m *mockPriceQuery) GetHistoricPrices(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error) {
	return m.GetHistoricPricesFunc(ctx, optionID, exchange, from, to)
}

func TestPriceHandler_IngestHistoric(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success: explicit window and offset", func(t *testing.T) {
		var gotFrom, gotTo time.Time
		var gotOffset int
		historic := &mockHistoricIngest{
			IngestHistoricFunc: func(ctx context.Context, from, to time.Time, offset int) error {
				gotFrom, gotTo, gotOffset = from, to, offset
				return nil
			},
		}
		h := handler.NewPriceHandler(historic, &mockLiveIngest{}, &mockPriceQuery{})

		router := gin.New()
		router.POST("/cloud/investments/options/historic-prices", h.IngestHistoric)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost,
			"/cloud/investments/options/historic-prices?fromTimeInEpochSeconds=1717200000&toTimeInEpochSeconds=1718323200&offset=300", nil)

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), gotFrom)
		assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), gotTo)
		assert.Equal(t, 300, gotOffset)
	})

	t.Run("success: defaults to a one year window", func(t *testing.T) {
		var gotFrom, gotTo time.Time
		historic := &mockHistoricIngest{
			IngestHistoricFunc: func(ctx context.Context, from, to time.Time, offset int) error {
				gotFrom, gotTo = from, to
				return nil
			},
		}
		h := handler.NewPriceHandler(historic, &mockLiveIngest{}, &mockPriceQuery{})

		router := gin.New()
		router.POST("/cloud/investments/options/historic-prices", h.IngestHistoric)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/cloud/investments/options/historic-prices", nil)

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.WithinDuration(t, time.Now().UTC(), gotTo, time.Minute)
		assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -365), gotFrom, time.Minute)
	})

	t.Run("error: ingestion failure maps to 502", func(t *testing.T) {
		historic := &mockHistoricIngest{
			IngestHistoricFunc: func(ctx context.Context, from, to time.Time, offset int) error {
				return errors.New("vendor unavailable")
			},
		}
		h := handler.NewPriceHandler(historic, &mockLiveIngest{}, &mockPriceQuery{})

		router := gin.New()
		router.POST("/cloud/investments/options/historic-prices", h.IngestHistoric)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/cloud/investments/options/historic-prices", nil)

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"error":"vendor unavailable"}`, w.Body.String())
	})
}

func TestPriceHandler_IngestLive(t *testing.T) {
	gin.SetMode(gin.TestMode)

	live := &mockLiveIngest{}
	h := handler.NewPriceHandler(&mockHistoricIngest{}, live, &mockPriceQuery{})

	router := gin.New()
	router.POST("/cloud/investments/options/live-prices", h.IngestLive)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/cloud/investments/options/live-prices", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.True(t, live.called)
}

func TestPriceHandler_GetHistoricPrices(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		url            string
		mockQuery      func(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: formats stored bars",
			url:  "/client/users/42/investments/options/7/prices?exchange=BSE&fromTimeInEpochSeconds=1717200000&toTimeInEpochSeconds=1718323200",
			mockQuery: func(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error) {
				assert.Equal(t, uint(7), optionID)
				assert.Equal(t, instrentity.ExchangeBSE, exchange)
				assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), from)
				assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), to)
				return []entity.HistoricPrice{
					{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Open: 100, High: 110, Low: 90, Close: 105, Volume: 1000},
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"date":"2024-06-03","open":100,"high":110,"low":90,"close":105,"volume":1000}]`,
		},
		{
			name: "success: exchange defaults to NSE",
			url:  "/client/users/42/investments/options/7/prices",
			mockQuery: func(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error) {
				assert.Equal(t, instrentity.ExchangeNSE, exchange)
				return []entity.HistoricPrice{}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name:           "error: invalid optionId",
			url:            "/client/users/42/investments/options/abc/prices",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid optionId"}`,
		},
		{
			name: "error: storage failure maps to 500",
			url:  "/client/users/42/investments/options/7/prices",
			mockQuery: func(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error) {
				return nil, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"db down"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewPriceHandler(&mockHistoricIngest{}, &mockLiveIngest{}, &mockPriceQuery{GetHistoricPricesFunc: tt.mockQuery})

			router := gin.New()
			router.GET("/client/users/:userId/investments/options/:optionId/prices", h.GetHistoricPrices)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.url, nil)

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
