// Package handler はpricesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"invest_backend/internal/api"
	instrentity "invest_backend/internal/feature/instruments/domain/entity"
	"invest_backend/internal/feature/prices/domain/entity"
	"invest_backend/internal/feature/prices/transport/http/dto"
)

// defaultQueryWindow is how far back the price read endpoint looks when the
// caller gives no window.
const defaultQueryWindow = 365 * 24 * time.Hour

// HistoricIngestUsecase は日足価格取り込みのユースケースインターフェースです。
type HistoricIngestUsecase interface {
	IngestHistoric(ctx context.Context, from, to time.Time, offset int) error
}

// LiveIngestUsecase はライブ価格取り込みのユースケースインターフェースです。
type LiveIngestUsecase interface {
	IngestLive(ctx context.Context) error
}

// PriceQueryUsecase は保存済み価格の読み出しインターフェースです。
type PriceQueryUsecase interface {
	GetHistoricPrices(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error)
}

// PriceHandler は価格データのHTTPリクエストを処理します。
type PriceHandler struct {
	historic HistoricIngestUsecase
	live     LiveIngestUsecase
	query    PriceQueryUsecase
}

// NewPriceHandler は指定されたusecase群でPriceHandlerの新しいインスタンスを生成します。
func NewPriceHandler(historic HistoricIngestUsecase, live LiveIngestUsecase, query PriceQueryUsecase) *PriceHandler {
	return &PriceHandler{historic: historic, live: live, query: query}
}

// epochQuery parses an epoch-seconds query parameter, falling back when the
// parameter is absent or malformed.
func epochQuery(c *gin.Context, name string, fallback time.Time) time.Time {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return time.Unix(secs, 0).UTC()
}

// IngestHistoric はアクティブ銘柄1ページ分の日足価格を取り込みます。
//
// エンドポイント例:
// POST /cloud/investments/options/historic-prices?fromTimeInEpochSeconds=...&toTimeInEpochSeconds=...&offset=0
func (h *PriceHandler) IngestHistoric(c *gin.Context) {
	now := time.Now().UTC()
	from := epochQuery(c, "fromTimeInEpochSeconds", now.Add(-defaultQueryWindow))
	to := epochQuery(c, "toTimeInEpochSeconds", now)
	// 文字列を整数に変換
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if err := h.historic.IngestHistoric(c.Request.Context(), from, to, offset); err != nil {
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.OK())
}

// IngestLive は取引時間中のライブ価格を取り込みます。市場が閉まっている
// 場合は何もせず成功を返します。
//
// エンドポイント例:
// POST /cloud/investments/options/live-prices
func (h *PriceHandler) IngestLive(c *gin.Context) {
	if err := h.live.IngestLive(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.OK())
}

// GetHistoricPrices は保存済みの日足価格をJSONで返します。
//
// エンドポイント例:
// GET /client/users/:userId/investments/options/:optionId/prices?exchange=NSE
func (h *PriceHandler) GetHistoricPrices(c *gin.Context) {
	optionID, err := strconv.ParseUint(c.Param("optionId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid optionId"})
		return
	}

	exchange, err := instrentity.ParseExchange(c.DefaultQuery("exchange", string(instrentity.ExchangeNSE)))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	now := time.Now().UTC()
	from := epochQuery(c, "fromTimeInEpochSeconds", now.Add(-defaultQueryWindow))
	to := epochQuery(c, "toTimeInEpochSeconds", now)

	prices, err := h.query.GetHistoricPrices(c.Request.Context(), uint(optionID), exchange, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	// データをフォーマット
	out := make([]dto.HistoricPriceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, dto.HistoricPriceResponse{
			Date:   p.Date.UTC().Format("2006-01-02"),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}

	c.JSON(http.StatusOK, out)
}
