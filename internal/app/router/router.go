package router

import (
	"github.com/gin-gonic/gin"

	holdingshandler "invest_backend/internal/feature/holdings/transport/handler"
	instrhandler "invest_backend/internal/feature/instruments/transport/handler"
	priceshandler "invest_backend/internal/feature/prices/transport/handler"
	"invest_backend/internal/platform/http/handler"
	jwtmw "invest_backend/internal/platform/jwt"
)

func NewRouter(holdings *holdingshandler.HoldingsHandler, webhook *holdingshandler.WebhookHandler,
	instruments *instrhandler.InstrumentHandler, prices *priceshandler.PriceHandler) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	// ベンダーからのインポート通知。チェックサム検証で認証する
	r.POST("/public/investments/stocks/import-webhook", webhook.HandleImportWebhook)

	// 認証必須のクライアントルート
	// jwtmw.AuthRequired() ミドルウェアを適用
	// → リクエストヘッダーに JWT が必要になる
	client := r.Group("/client")
	client.Use(jwtmw.AuthRequired())
	{
		client.GET("/users/:userId/investments/stocks", holdings.GetInvestments)
		client.POST("/users/:userId/investments/stocks/import", holdings.CreateImport)
		client.PUT("/users/:userId/investments/stocks/import/authorized", holdings.MarkAuthorized)
		client.GET("/users/:userId/investments/options/:optionId/prices", prices.GetHistoricPrices)
	}

	// スケジューラから叩くバッチルート
	cloud := r.Group("/cloud")
	{
		cloud.POST("/investments/kite/instruments", instruments.Reconcile)
		cloud.POST("/investments/kite/regenerate-access-token", instruments.RefreshAccessToken)
		cloud.POST("/investments/options/historic-prices", prices.IngestHistoric)
		cloud.POST("/investments/options/live-prices", prices.IngestLive)
	}

	return r
}
