// Package handler はholdingsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invest_backend/internal/api"
	"invest_backend/internal/feature/holdings/domain/entity"
	"invest_backend/internal/feature/holdings/transport/http/dto"
	"invest_backend/internal/feature/holdings/usecase"
	jwtmw "invest_backend/internal/platform/jwt"
)

// ImportUsecase は保有インポート操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ImportUsecase interface {
	CreateImportTransaction(ctx context.Context, userID uint, importType entity.ImportType, broker *entity.Broker) (*entity.ImportTransactionResult, error)
	MarkAuthorized(ctx context.Context, vendorTransactionID string) error
	GetInvestments(ctx context.Context, userID uint, pollingCount int) (*entity.InvestmentsView, error)
}

// HoldingsHandler はユーザーの株式投資に関するHTTPリクエストを処理します。
type HoldingsHandler struct {
	uc ImportUsecase
}

// NewHoldingsHandler は指定されたusecaseでHoldingsHandlerの新しいインスタンスを生成します。
func NewHoldingsHandler(uc ImportUsecase) *HoldingsHandler {
	return &HoldingsHandler{uc: uc}
}

// authUserID は認証ミドルウェアが保存したユーザーIDを取り出します。
// パス上の:userIdは表示用で、識別には一切使いません。
func authUserID(c *gin.Context) (uint, bool) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return 0, false
	}
	return id, true
}

// CreateImport はベンダーとの保有インポートトランザクションを開始します。
//
// エンドポイント例:
// POST /client/users/:userId/investments/stocks/import?importType=REFRESH&broker=KITE
func (h *HoldingsHandler) CreateImport(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}

	importType, ok := entity.ParseImportType(c.DefaultQuery("importType", string(entity.ImportTypeNew)))
	if !ok {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid importType"})
		return
	}

	var broker *entity.Broker
	if raw := c.Query("broker"); raw != "" {
		b, ok := entity.ParseBroker(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid broker"})
			return
		}
		broker = &b
	}

	result, err := h.uc.CreateImportTransaction(c.Request.Context(), userID, importType, broker)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrBrokerRequired),
			errors.Is(err, usecase.ErrImportLimitReached),
			errors.Is(err, usecase.ErrAuthIDNotFound):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ImportTransactionResponse{
		TransactionID:    result.TransactionID,
		SDKToken:         result.SDKToken,
		HoldingsImported: result.HoldingsImported,
	})
}

// MarkAuthorized はユーザーがSDK上で承認したトランザクションを記録します。
//
// エンドポイント例:
// PUT /client/users/:userId/investments/stocks/import/authorized
func (h *HoldingsHandler) MarkAuthorized(c *gin.Context) {
	if _, ok := authUserID(c); !ok {
		return
	}

	var req dto.AuthorizedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.uc.MarkAuthorized(c.Request.Context(), req.SmallcaseTransactionID); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.OK())
}

// GetInvestments はユーザーの株式投資ビューを返します。
//
// エンドポイント例:
// GET /client/users/:userId/investments/stocks?pollingCount=2
func (h *HoldingsHandler) GetInvestments(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}

	// 文字列を整数に変換
	pollingCount, _ := strconv.Atoi(c.DefaultQuery("pollingCount", "0"))

	view, err := h.uc.GetInvestments(c.Request.Context(), userID, pollingCount)
	if err != nil {
		if errors.Is(err, usecase.ErrPollingCountExceeded) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}
