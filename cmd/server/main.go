package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"invest_backend/internal/app/di"
	"invest_backend/internal/app/router"
	holdingadapters "invest_backend/internal/feature/holdings/adapters"
	holdingshandler "invest_backend/internal/feature/holdings/transport/handler"
	holdingsusecase "invest_backend/internal/feature/holdings/usecase"
	instradapters "invest_backend/internal/feature/instruments/adapters"
	instrhandler "invest_backend/internal/feature/instruments/transport/handler"
	instrusecase "invest_backend/internal/feature/instruments/usecase"
	priceadapters "invest_backend/internal/feature/prices/adapters"
	priceshandler "invest_backend/internal/feature/prices/transport/handler"
	pricesusecase "invest_backend/internal/feature/prices/usecase"
	infradb "invest_backend/internal/platform/db"
	"invest_backend/internal/platform/marketcalendar"
	infraredis "invest_backend/internal/platform/redis"
	"invest_backend/internal/shared/ratelimiter"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	// db
	db := infradb.OpenDB()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Repository
	optionRepo := instradapters.NewOptionPostgres(db)
	transactionRepo := holdingadapters.NewTransactionPostgres(db)
	holdingRepo := holdingadapters.NewHoldingPostgres(db)
	authIDRepo := holdingadapters.NewAuthIDPostgres(db)
	instrumentRepo := priceadapters.NewInstrumentPostgres(db)
	// Redisキャッシュでラップ
	priceRepo := di.NewPriceRepository(rdb, db)

	// 外部API
	kiteTokens := di.NewKiteTokenSource(rdb)
	kiteClient := di.NewKiteClient(kiteTokens)
	smallcaseClient := di.NewSmallcaseClient()

	// Usecase
	reconcileUC := instrusecase.NewReconcileUsecase(kiteClient, optionRepo)
	importUC := holdingsusecase.NewImportUsecase(transactionRepo, holdingRepo, authIDRepo, optionRepo, smallcaseClient)
	historicUC := pricesusecase.NewHistoricUsecase(kiteClient, instrumentRepo, priceRepo,
		ratelimiter.NewIntervalPacer(250*time.Millisecond), 4)
	liveUC := pricesusecase.NewLiveUsecase(kiteClient, instrumentRepo, priceRepo,
		marketcalendar.New(), ratelimiter.NewIntervalPacer(time.Second))
	queryUC := pricesusecase.NewQueryUsecase(priceRepo)

	// Handler
	holdingsH := holdingshandler.NewHoldingsHandler(importUC)
	webhookH := holdingshandler.NewWebhookHandler(importUC)
	instrumentsH := instrhandler.NewInstrumentHandler(reconcileUC, kiteClient)
	pricesH := priceshandler.NewPriceHandler(historicUC, liveUC, queryUC)

	// ルータ生成
	router := router.NewRouter(holdingsH, webhookH, instrumentsH, pricesH)

	// JWT_SECRETチェック（開発中の注意喚起）
	if os.Getenv("JWT_SECRET") == "" {
		log.Println("[WARN] JWT_SECRET is not set. Set a strong secret in production.")
	}

	if err := router.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
