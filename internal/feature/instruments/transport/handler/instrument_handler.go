// Package handler はinstrumentsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"invest_backend/internal/api"
	"invest_backend/internal/feature/instruments/domain/entity"
	"invest_backend/internal/feature/instruments/usecase"
)

// ReconcileUsecase は銘柄ユニバース同期のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ReconcileUsecase interface {
	ReconcileExchange(ctx context.Context, exchange entity.Exchange) (usecase.ReconcileSummary, error)
}

// TokenRefresher rotates the market data vendor's access token.
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context) error
}

// InstrumentHandler は銘柄ユニバースの管理系HTTPリクエストを処理します。
type InstrumentHandler struct {
	uc      ReconcileUsecase
	refresh TokenRefresher
}

// NewInstrumentHandler は指定されたusecaseでInstrumentHandlerの新しいインスタンスを生成します。
func NewInstrumentHandler(uc ReconcileUsecase, refresh TokenRefresher) *InstrumentHandler {
	return &InstrumentHandler{uc: uc, refresh: refresh}
}

// Reconcile は取引所の銘柄ダンプを取り込み、投資対象を同期します。
//
// エンドポイント例:
// POST /cloud/investments/kite/instruments?exchange=NSE
func (h *InstrumentHandler) Reconcile(c *gin.Context) {
	exchange, err := entity.ParseExchange(c.DefaultQuery("exchange", string(entity.ExchangeNSE)))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := h.uc.ReconcileExchange(c.Request.Context(), exchange); err != nil {
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.OK())
}

// RefreshAccessToken はベンダーのアクセストークンを再生成します。
//
// エンドポイント例:
// POST /cloud/investments/kite/regenerate-access-token
func (h *InstrumentHandler) RefreshAccessToken(c *gin.Context) {
	if err := h.refresh.RefreshAccessToken(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.OK())
}
