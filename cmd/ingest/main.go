// ingest runs one batch job against the market data vendor and exits.
// It is meant to be invoked by a scheduler.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"invest_backend/internal/app/di"
	instradapters "invest_backend/internal/feature/instruments/adapters"
	instrentity "invest_backend/internal/feature/instruments/domain/entity"
	instrusecase "invest_backend/internal/feature/instruments/usecase"
	priceadapters "invest_backend/internal/feature/prices/adapters"
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

	job := flag.String("job", "historic", "instruments | historic | live | refresh-token")
	exchange := flag.String("exchange", "NSE", "exchange for the instruments job")
	fromSecs := flag.Int64("from", time.Now().AddDate(-1, 0, 0).Unix(), "window start, epoch seconds")
	toSecs := flag.Int64("to", time.Now().Unix(), "window end, epoch seconds")
	offset := flag.Int("offset", 0, "instrument page offset for the historic job")
	workers := flag.Int("workers", 4, "concurrent downloads for the historic job")
	flag.Parse()

	db := infradb.OpenDB()

	// Redis（トークン保存用。無い場合は環境変数にフォールバック）
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Using env-based credentials.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	kiteClient := di.NewKiteClient(di.NewKiteTokenSource(rdb))

	// バッチは書き込みが主なのでキャッシュなしのリポジトリを使う
	priceRepo := priceadapters.NewPricePostgres(db)
	instrumentRepo := priceadapters.NewInstrumentPostgres(db)
	optionRepo := instradapters.NewOptionPostgres(db)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	switch *job {
	case "instruments":
		ex, err := instrentity.ParseExchange(*exchange)
		if err != nil {
			log.Fatal(err)
		}
		uc := instrusecase.NewReconcileUsecase(kiteClient, optionRepo)
		if _, err := uc.ReconcileExchange(ctx, ex); err != nil {
			log.Fatal(err)
		}

	case "historic":
		uc := pricesusecase.NewHistoricUsecase(kiteClient, instrumentRepo, priceRepo,
			ratelimiter.NewIntervalPacer(250*time.Millisecond), *workers)
		from := time.Unix(*fromSecs, 0).UTC()
		to := time.Unix(*toSecs, 0).UTC()
		if err := uc.IngestHistoric(ctx, from, to, *offset); err != nil {
			log.Fatal(err)
		}

	case "live":
		uc := pricesusecase.NewLiveUsecase(kiteClient, instrumentRepo, priceRepo,
			marketcalendar.New(), ratelimiter.NewIntervalPacer(time.Second))
		if err := uc.IngestLive(ctx); err != nil {
			log.Fatal(err)
		}

	case "refresh-token":
		if err := kiteClient.RefreshAccessToken(ctx); err != nil {
			log.Fatal(err)
		}

	default:
		log.Fatalf("unknown job %q", *job)
	}
}
