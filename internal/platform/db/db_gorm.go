package db

import (
	"fmt"
	"log"
	"os"
	"time"

	gpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	holdingadapters "invest_backend/internal/feature/holdings/adapters"
	instrentity "invest_backend/internal/feature/instruments/domain/entity"
	priceadapters "invest_backend/internal/feature/prices/adapters"
)

// Config holds the database connection settings.
type Config struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     string
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	return cfg
}

// BuildDSN は設定からPostgres接続文字列を生成します。
func BuildDSN(cfg Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
}

// ConnectWithRetry は指定された期間、3秒間隔で接続をリトライします。
// openerを差し替えることでテスト可能にしています。
func ConnectWithRetry(dsn string, timeout time.Duration, opener func(dsn string) (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		log.Printf("DB connect failed, retrying...: %v", err)
		time.Sleep(3 * time.Second)
	}
}

func gormOpener(dsn string) (*gorm.DB, error) {
	return gorm.Open(gpostgres.Open(dsn), &gorm.Config{})
}

func OpenDB() *gorm.DB {
	dsn := BuildDSN(LoadConfigFromEnv())

	db, err := ConnectWithRetry(dsn, 60*time.Second, gormOpener)
	if err != nil {
		log.Fatal(err)
	}

	if os.Getenv("RUN_MIGRATIONS") == "true" {
		// マイグレーション（銘柄、保有、価格）
		if err := db.AutoMigrate(
			&instrentity.InvestmentOption{},
			&instrentity.InstrumentMapping{},
			&holdingadapters.TransactionModel{},
			&holdingadapters.HoldingModel{},
			&holdingadapters.BrokerAuthIDModel{},
			&priceadapters.HistoricPriceModel{},
			&priceadapters.LivePriceModel{},
		); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	return db
}
