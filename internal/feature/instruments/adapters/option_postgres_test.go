package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"invest_backend/internal/feature/instruments/domain/entity"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(&entity.InvestmentOption{}, &entity.InstrumentMapping{})
	require.NoError(t, err, "failed to migrate tables")

	return db
}

// seedOption creates an investment option for testing.
func seedOption(t *testing.T, db *gorm.DB, name string, nse, bse *string, active bool) *entity.InvestmentOption {
	t.Helper()

	option := &entity.InvestmentOption{Name: name, NSETicker: nse, BSETicker: bse, Active: active}
	require.NoError(t, db.Create(option).Error, "failed to seed option")
	return option
}

func strPtr(s string) *string { return &s }

func TestNewOptionPostgres(t *testing.T) {
	db := setupTestDB(t)

	repo := NewOptionPostgres(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestOptionPostgres_FindByTickers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		tickers   []string
		setupFunc func(t *testing.T, db *gorm.DB)
		wantNames []string
	}{
		{
			name:    "success: match by nse ticker",
			tickers: []string{"RELIANCE"},
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedOption(t, db, "Reliance Industries", strPtr("RELIANCE"), nil, true)
				seedOption(t, db, "Tata Motors", strPtr("TATAMOTORS"), nil, true)
			},
			wantNames: []string{"Reliance Industries"},
		},
		{
			name:    "success: match by bse ticker",
			tickers: []string{"RELIANCE"},
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedOption(t, db, "Reliance Industries", nil, strPtr("RELIANCE"), true)
			},
			wantNames: []string{"Reliance Industries"},
		},
		{
			name:      "success: no match",
			tickers:   []string{"NOTLISTED"},
			wantNames: nil,
		},
		{
			name:      "success: empty ticker list",
			tickers:   nil,
			wantNames: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewOptionPostgres(db)

			if tt.setupFunc != nil {
				tt.setupFunc(t, db)
			}

			options, err := repo.FindByTickers(context.Background(), tt.tickers)

			assert.NoError(t, err)
			var names []string
			for _, o := range options {
				names = append(names, o.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestOptionPostgres_UpdateTickers(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewOptionPostgres(db)

	option := seedOption(t, db, "Reliance Industries", nil, strPtr("RELIANCE"), true)
	option.SetTicker(entity.ExchangeNSE, "RELIANCE")

	err := repo.UpdateTickers(context.Background(), []entity.InvestmentOption{*option}, entity.ExchangeNSE)
	require.NoError(t, err)

	var stored entity.InvestmentOption
	require.NoError(t, db.First(&stored, option.ID).Error)
	require.NotNil(t, stored.NSETicker)
	assert.Equal(t, "RELIANCE", *stored.NSETicker)
	require.NotNil(t, stored.BSETicker, "bse ticker must be untouched")
	assert.Equal(t, "RELIANCE", *stored.BSETicker)
}

func TestOptionPostgres_InsertOptions(t *testing.T) {
	t.Parallel()

	t.Run("success: assigns ids to new options", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		repo := NewOptionPostgres(db)

		toInsert := []entity.InvestmentOption{
			{Name: "Reliance Industries", NSETicker: strPtr("RELIANCE")},
			{Name: "Tata Motors", NSETicker: strPtr("TATAMOTORS")},
		}

		inserted, err := repo.InsertOptions(context.Background(), toInsert)
		require.NoError(t, err)
		require.Len(t, inserted, 2)
		for _, o := range inserted {
			assert.NotZero(t, o.ID, "inserted option must carry an id")
		}
	})

	t.Run("success: conflicting ticker keeps the stored row", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		repo := NewOptionPostgres(db)

		existing := seedOption(t, db, "Reliance Industries", strPtr("RELIANCE"), nil, true)

		inserted, err := repo.InsertOptions(context.Background(), []entity.InvestmentOption{
			{Name: "Reliance Industries Ltd", NSETicker: strPtr("RELIANCE")},
		})
		require.NoError(t, err)
		require.Len(t, inserted, 1)
		assert.Equal(t, existing.ID, inserted[0].ID, "conflict must resolve to the stored id")

		var count int64
		db.Model(&entity.InvestmentOption{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("success: empty slice", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		repo := NewOptionPostgres(db)

		inserted, err := repo.InsertOptions(context.Background(), nil)
		assert.NoError(t, err)
		assert.Empty(t, inserted)
	})
}

func TestOptionPostgres_UpsertMappings(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewOptionPostgres(db)

	option := seedOption(t, db, "Reliance Industries", strPtr("RELIANCE"), nil, true)

	err := repo.UpsertMappings(context.Background(), []entity.InstrumentMapping{
		{InvestmentOptionID: option.ID, Exchange: entity.ExchangeNSE, TradingSymbol: "RELIANCE", InstrumentToken: "738561"},
	})
	require.NoError(t, err)

	// same (option, exchange) with a new token must update in place
	err = repo.UpsertMappings(context.Background(), []entity.InstrumentMapping{
		{InvestmentOptionID: option.ID, Exchange: entity.ExchangeNSE, TradingSymbol: "RELIANCE-BE", InstrumentToken: "999999"},
	})
	require.NoError(t, err)

	var mappings []entity.InstrumentMapping
	require.NoError(t, db.Find(&mappings).Error)
	require.Len(t, mappings, 1, "mapping count should remain 1 after upsert")
	assert.Equal(t, "RELIANCE-BE", mappings[0].TradingSymbol)
	assert.Equal(t, "999999", mappings[0].InstrumentToken)
}

func TestOptionPostgres_DeactivateAllAndActivate(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewOptionPostgres(db)

	kept := seedOption(t, db, "Reliance Industries", strPtr("RELIANCE"), nil, true)
	dropped := seedOption(t, db, "Delisted Corp", strPtr("DELISTED"), nil, true)

	require.NoError(t, repo.DeactivateAll(context.Background()))
	require.NoError(t, repo.Activate(context.Background(), []uint{kept.ID}))

	var stored entity.InvestmentOption
	require.NoError(t, db.First(&stored, kept.ID).Error)
	assert.True(t, stored.Active, "reconciled option should be active")

	require.NoError(t, db.First(&stored, dropped.ID).Error)
	assert.False(t, stored.Active, "delisted option should stay inactive")
}
