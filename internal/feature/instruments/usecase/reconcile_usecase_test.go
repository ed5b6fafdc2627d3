package usecase

import (
	"context"
	"errors"
	"testing"

	"invest_backend/internal/feature/instruments/domain/entity"
)

// mockInstrumentSource is a hand-written mock of InstrumentSource.
type mockInstrumentSource struct {
	downloadFunc func(ctx context.Context) ([]entity.InstrumentRow, error)
}

func (m *mockInstrumentSource) DownloadInstruments(ctx context.Context) ([]entity.InstrumentRow, error) {
	return m.downloadFunc(ctx)
}

// mockOptionRepository is a hand-written mock of OptionRepository recording
// what the usecase asked it to persist.
type mockOptionRepository struct {
	existing []entity.InvestmentOption

	updated      []entity.InvestmentOption
	inserted     []entity.InvestmentOption
	mappings     []entity.InstrumentMapping
	activatedIDs []uint
	deactivated  bool

	nextID uint
}

func (m *mockOptionRepository) FindByTickers(ctx context.Context, tickers []string) ([]entity.InvestmentOption, error) {
	set := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		set[t] = true
	}
	var out []entity.InvestmentOption
	for _, o := range m.existing {
		if (o.NSETicker != nil && set[*o.NSETicker]) || (o.BSETicker != nil && set[*o.BSETicker]) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOptionRepository) UpdateTickers(ctx context.Context, options []entity.InvestmentOption, exchange entity.Exchange) error {
	m.updated = append(m.updated, options...)
	return nil
}

func (m *mockOptionRepository) InsertOptions(ctx context.Context, options []entity.InvestmentOption) ([]entity.InvestmentOption, error) {
	for i := range options {
		m.nextID++
		options[i].ID = m.nextID
	}
	m.inserted = append(m.inserted, options...)
	return options, nil
}

func (m *mockOptionRepository) UpsertMappings(ctx context.Context, mappings []entity.InstrumentMapping) error {
	m.mappings = append(m.mappings, mappings...)
	return nil
}

func (m *mockOptionRepository) DeactivateAll(ctx context.Context) error {
	m.deactivated = true
	return nil
}

func (m *mockOptionRepository) Activate(ctx context.Context, ids []uint) error {
	m.activatedIDs = append(m.activatedIDs, ids...)
	return nil
}

func strPtr(s string) *string { return &s }

func TestBuildInstrumentIndex(t *testing.T) {
	t.Parallel()

	rows := []entity.InstrumentRow{
		{Exchange: "NSE", TradingSymbol: "RELIANCE-BE", InstrumentToken: "2", Name: "Reliance Industries"},
		{Exchange: "NSE", TradingSymbol: "RELIANCE", InstrumentToken: "1", Name: `"Reliance Industries"`},
		{Exchange: "NSE", TradingSymbol: "SGBAUG24-GB-IV", InstrumentToken: "3", Name: "Sovereign Gold Bond"},
		{Exchange: "NSE", TradingSymbol: "NONAME", InstrumentToken: "4", Name: "   "},
		{Exchange: "BSE", TradingSymbol: "SENSEXONLY", InstrumentToken: "5", Name: "Bse Listed"},
	}

	index := BuildInstrumentIndex(rows, entity.ExchangeNSE)

	if len(index) != 3 {
		t.Fatalf("index size = %d, want 3", len(index))
	}

	// sorted order puts RELIANCE before RELIANCE-BE, first seen wins
	rel := index["RELIANCE"]
	if rel == nil {
		t.Fatal("RELIANCE missing from index")
	}
	if rel.InstrumentToken != "1" || rel.TradingSymbol != "RELIANCE" {
		t.Errorf("RELIANCE resolved to token %s symbol %s, want token 1 symbol RELIANCE", rel.InstrumentToken, rel.TradingSymbol)
	}
	if rel.Name != "Reliance Industries" {
		t.Errorf("RELIANCE name = %q, quotes should be stripped", rel.Name)
	}

	// blank names fall back to the ticker
	if got := index["NONAME"].Name; got != "NONAME" {
		t.Errorf("NONAME name = %q, want ticker fallback", got)
	}

	// three-part symbols are discarded, other exchanges filtered out
	if _, ok := index["SGBAUG24"]; ok {
		t.Error("three-part symbol should be discarded")
	}
	if _, ok := index["SENSEXONLY"]; ok {
		t.Error("BSE row should be filtered out on the NSE pass")
	}
}

func TestReconcileExchange_InsertsNewTickers(t *testing.T) {
	t.Parallel()

	source := &mockInstrumentSource{
		downloadFunc: func(ctx context.Context) ([]entity.InstrumentRow, error) {
			return []entity.InstrumentRow{
				{Exchange: "NSE", TradingSymbol: "RELIANCE", InstrumentToken: "1", Name: "Reliance Industries"},
				{Exchange: "NSE", TradingSymbol: "TATAMOTORS", InstrumentToken: "2", Name: "Tata Motors"},
			}, nil
		},
	}
	repo := &mockOptionRepository{}

	uc := NewReconcileUsecase(source, repo)
	summary, err := uc.ReconcileExchange(context.Background(), entity.ExchangeNSE)
	if err != nil {
		t.Fatalf("ReconcileExchange() error = %v", err)
	}

	if summary.Inserted != 2 || summary.Instruments != 2 {
		t.Errorf("summary = %+v, want 2 instruments / 2 inserted", summary)
	}
	if len(repo.mappings) != 2 {
		t.Fatalf("mappings = %d, want 2", len(repo.mappings))
	}
	if !repo.deactivated {
		t.Error("NSE pass must deactivate all options first")
	}
	if len(repo.activatedIDs) != 2 {
		t.Errorf("activated ids = %v, want 2 entries", repo.activatedIDs)
	}
	for _, o := range repo.inserted {
		if o.NSETicker == nil {
			t.Errorf("inserted option %q has no NSE ticker", o.Name)
		}
	}
}

func TestReconcileExchange_BackfillsCrossListedTicker(t *testing.T) {
	t.Parallel()

	source := &mockInstrumentSource{
		downloadFunc: func(ctx context.Context) ([]entity.InstrumentRow, error) {
			return []entity.InstrumentRow{
				{Exchange: "NSE", TradingSymbol: "RELIANCE", InstrumentToken: "1", Name: "Reliance Industries"},
			}, nil
		},
	}
	repo := &mockOptionRepository{
		existing: []entity.InvestmentOption{
			{ID: 7, Name: "Reliance Industries", BSETicker: strPtr("RELIANCE")},
		},
		nextID: 100,
	}

	uc := NewReconcileUsecase(source, repo)
	summary, err := uc.ReconcileExchange(context.Background(), entity.ExchangeNSE)
	if err != nil {
		t.Fatalf("ReconcileExchange() error = %v", err)
	}

	if summary.Backfilled != 1 || summary.Inserted != 0 {
		t.Errorf("summary = %+v, want 1 backfilled / 0 inserted", summary)
	}
	if len(repo.updated) != 1 {
		t.Fatalf("updated = %d, want 1", len(repo.updated))
	}
	if repo.updated[0].NSETicker == nil || *repo.updated[0].NSETicker != "RELIANCE" {
		t.Errorf("backfilled option should carry the NSE ticker, got %+v", repo.updated[0])
	}
	if len(repo.mappings) != 1 || repo.mappings[0].InvestmentOptionID != 7 {
		t.Errorf("mapping should target the existing option id 7, got %+v", repo.mappings)
	}
}

func TestReconcileExchange_BSEPassDoesNotDeactivate(t *testing.T) {
	t.Parallel()

	source := &mockInstrumentSource{
		downloadFunc: func(ctx context.Context) ([]entity.InstrumentRow, error) {
			return []entity.InstrumentRow{
				{Exchange: "BSE", TradingSymbol: "RELIANCE", InstrumentToken: "9", Name: "Reliance Industries"},
			}, nil
		},
	}
	repo := &mockOptionRepository{}

	uc := NewReconcileUsecase(source, repo)
	if _, err := uc.ReconcileExchange(context.Background(), entity.ExchangeBSE); err != nil {
		t.Fatalf("ReconcileExchange() error = %v", err)
	}

	if repo.deactivated {
		t.Error("BSE pass must not deactivate options")
	}
	if len(repo.activatedIDs) != 1 {
		t.Errorf("activated ids = %v, want 1 entry", repo.activatedIDs)
	}
}

func TestReconcileExchange_DownloadError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("vendor down")
	source := &mockInstrumentSource{
		downloadFunc: func(ctx context.Context) ([]entity.InstrumentRow, error) {
			return nil, wantErr
		},
	}
	repo := &mockOptionRepository{}

	uc := NewReconcileUsecase(source, repo)
	_, err := uc.ReconcileExchange(context.Background(), entity.ExchangeNSE)

	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped %v", err, wantErr)
	}
	if len(repo.mappings) != 0 || repo.deactivated {
		t.Error("no persistence should happen when the download fails")
	}
}

func TestReconcileExchange_EmptyDump(t *testing.T) {
	t.Parallel()

	source := &mockInstrumentSource{
		downloadFunc: func(ctx context.Context) ([]entity.InstrumentRow, error) {
			return nil, nil
		},
	}
	repo := &mockOptionRepository{}

	uc := NewReconcileUsecase(source, repo)
	summary, err := uc.ReconcileExchange(context.Background(), entity.ExchangeNSE)
	if err != nil {
		t.Fatalf("ReconcileExchange() error = %v", err)
	}
	if summary.Instruments != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}
	if repo.deactivated {
		t.Error("an empty dump must not wipe the active flags")
	}
}
