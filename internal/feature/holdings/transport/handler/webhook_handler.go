package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"invest_backend/internal/api"
	"invest_backend/internal/feature/holdings/usecase"
)

// WebhookProcessor はベンダーのインポートwebhookを処理するインターフェースです。
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, raw []byte) error
}

// WebhookHandler はベンダーから届く保有インポートwebhookを処理します。
type WebhookHandler struct {
	uc WebhookProcessor
}

// NewWebhookHandler は指定されたusecaseでWebhookHandlerの新しいインスタンスを生成します。
func NewWebhookHandler(uc WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

// HandleImportWebhook はwebhookのボディを検証し、保有データを取り込みます。
// 認証はペイロード内のチェックサム検証で行うため、このルートは公開されています。
//
// エンドポイント例:
// POST /public/investments/stocks/import-webhook
func (h *WebhookHandler) HandleImportWebhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unreadable body"})
		return
	}

	if err := h.uc.ProcessWebhook(c.Request.Context(), raw); err != nil {
		switch {
		case errors.Is(err, usecase.ErrChecksumMismatch):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, usecase.ErrMalformedPayload), errors.Is(err, usecase.ErrUnknownBroker):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, usecase.ErrTransactionNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, api.OK())
}
