package handler_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"invest_backend/internal/feature/holdings/transport/handler"
	"invest_backend/internal/feature/holdings/usecase"
)

// mockWebhookProcessor はWebhookProcessorインターフェースのモック実装です。
type mockWebhookProcessor struct {
	gotRaw []byte
	err    error
}

func (m *mockWebhookProcessor) ProcessWebhook(ctx context.Context, raw []byte) error {
	m.gotRaw = raw
	return m.err
}

func TestWebhookHandler_HandleImportWebhook(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		processErr     error
		expectedStatus int
	}{
		{"success", nil, http.StatusOK},
		{"checksum mismatch is forbidden", usecase.ErrChecksumMismatch, http.StatusForbidden},
		{"malformed payload is bad request", usecase.ErrMalformedPayload, http.StatusBadRequest},
		{"unknown broker is bad request", usecase.ErrUnknownBroker, http.StatusBadRequest},
		{"missing transaction is not found", usecase.ErrTransactionNotFound, http.StatusNotFound},
		{"storage failure is internal", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &mockWebhookProcessor{err: tt.processErr}
			h := handler.NewWebhookHandler(proc)

			router := gin.New()
			router.POST("/public/investments/stocks/import-webhook", h.HandleImportWebhook)

			body := bytes.NewBufferString(`{"broker":"kite"}`)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/public/investments/stocks/import-webhook", body)

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			// the raw body reaches the usecase untouched, checksums depend on it
			assert.Equal(t, `{"broker":"kite"}`, string(proc.gotRaw))
		})
	}
}
