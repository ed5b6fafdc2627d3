package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"invest_backend/internal/feature/holdings/domain/entity"
	instrentity "invest_backend/internal/feature/instruments/domain/entity"
)

// guestAuthID is the vendor auth id used for first-time (NEW) imports, before
// the user has a persisted id with the vendor.
const guestAuthID = "guest"

// maxPollingCount caps how often the client may poll the investments endpoint
// while an import is in flight.
const maxPollingCount = 5

// TransactionRepository persists import transactions and applies completed
// imports. ApplyImport must be atomic: holdings replacement, status change
// and auth-id insert all commit or none do.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.ImportTransaction) error
	FindByVendorID(ctx context.Context, vendorTransactionID string) (*entity.ImportTransaction, error)
	// MarkAuthorized moves a STARTED transaction to AUTHORIZED. Any other
	// current status leaves the row untouched.
	MarkAuthorized(ctx context.Context, vendorTransactionID string) error
	CountImportsSince(ctx context.Context, userID uint, broker entity.Broker, since time.Time) (int64, error)
	ApplyImport(ctx context.Context, app entity.ImportApplication) error
	LinkedBrokers(ctx context.Context, userID uint, since time.Time) ([]entity.BrokerSummary, error)
	HasActiveFetch(ctx context.Context, userID uint) (bool, error)
}

// HoldingRepository reads the user's stored holdings.
type HoldingRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]entity.InvestmentDetail, error)
}

// AuthIDRepository reads stored vendor auth ids.
type AuthIDRepository interface {
	Get(ctx context.Context, userID uint, broker entity.Broker) (string, error)
}

// TickerResolver maps tickers back to investment options.
type TickerResolver interface {
	FindByTickers(ctx context.Context, tickers []string) ([]instrentity.InvestmentOption, error)
}

// ImportGateway talks to the import vendor.
type ImportGateway interface {
	CreateTransaction(ctx context.Context, userID uint, authID string, guest bool, notes string) (*entity.VendorTransaction, error)
	VerifyChecksum(timestamp, authID, checksum string) bool
}

// transactionNotes is sent to the vendor at creation for operator-facing
// context. It is never trusted on the way back; the webhook correlates via
// the stored transaction row.
type transactionNotes struct {
	UserID     uint              `json:"userId"`
	ImportType entity.ImportType `json:"importType"`
}

// ImportUsecase drives the holdings import flow end to end.
type ImportUsecase struct {
	transactions TransactionRepository
	holdings     HoldingRepository
	authIDs      AuthIDRepository
	options      TickerResolver
	gateway      ImportGateway

	now func() time.Time
}

// NewImportUsecase creates a new ImportUsecase.
func NewImportUsecase(
	transactions TransactionRepository,
	holdings HoldingRepository,
	authIDs AuthIDRepository,
	options TickerResolver,
	gateway ImportGateway,
) *ImportUsecase {
	return &ImportUsecase{
		transactions: transactions,
		holdings:     holdings,
		authIDs:      authIDs,
		options:      options,
		gateway:      gateway,
		now:          time.Now,
	}
}

// CreateImportTransaction opens a vendor transaction for the user. NEW
// imports run as the vendor's guest identity; REFRESH imports require a
// broker, a stored auth id and headroom under the daily limit. A KITE
// refresh short-circuits to the direct vendor import path.
func (u *ImportUsecase) CreateImportTransaction(ctx context.Context, userID uint, importType entity.ImportType, broker *entity.Broker) (*entity.ImportTransactionResult, error) {
	authID := guestAuthID

	if importType == entity.ImportTypeRefresh {
		if broker == nil {
			return nil, ErrBrokerRequired
		}
		count, err := u.transactions.CountImportsSince(ctx, userID, *broker, startOfDay(u.now()))
		if err != nil {
			return nil, fmt.Errorf("count imports: %w", err)
		}
		if count >= entity.ImportLimitPerDay {
			return nil, ErrImportLimitReached
		}
		authID, err = u.authIDs.Get(ctx, userID, *broker)
		if err != nil {
			return nil, err
		}
		if *broker == entity.BrokerKite {
			imported := u.importDirectlyFromVendor(ctx, userID, authID)
			return &entity.ImportTransactionResult{HoldingsImported: &imported}, nil
		}
	}

	notes, err := json.Marshal(transactionNotes{UserID: userID, ImportType: importType})
	if err != nil {
		return nil, fmt.Errorf("marshal notes: %w", err)
	}

	vt, err := u.gateway.CreateTransaction(ctx, userID, authID, importType == entity.ImportTypeNew, string(notes))
	if err != nil {
		return nil, fmt.Errorf("create vendor transaction: %w", err)
	}

	expireAt, err := time.Parse(time.RFC3339, vt.ExpireAt)
	if err != nil {
		return nil, fmt.Errorf("parse vendor expireAt %q: %w", vt.ExpireAt, err)
	}

	tx := &entity.ImportTransaction{
		UserID:              userID,
		VendorTransactionID: vt.TransactionID,
		TransactionType:     entity.TransactionTypeHoldingsImport,
		Status:              entity.StatusStarted,
		ImportType:          importType,
		Broker:              broker,
		ExpireAt:            expireAt.UnixMilli(),
		VendorResponse:      vt.Raw,
	}
	if err := u.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("persist import transaction: %w", err)
	}

	slog.Info("import transaction created",
		"userId", userID, "importType", importType, "vendorTransactionId", vt.TransactionID)
	return &entity.ImportTransactionResult{
		TransactionID: &vt.TransactionID,
		SDKToken:      &vt.SDKToken,
	}, nil
}

// importDirectlyFromVendor would pull kite holdings without the SDK round
// trip. The vendor-side contract is not live yet, so it reports not imported.
// TODO: implement once the kite holdings API access is granted.
func (u *ImportUsecase) importDirectlyFromVendor(ctx context.Context, userID uint, authID string) bool {
	slog.Warn("direct kite holdings import is not enabled", "userId", userID)
	return false
}

// MarkAuthorized records that the user authorized the import in the SDK.
func (u *ImportUsecase) MarkAuthorized(ctx context.Context, vendorTransactionID string) error {
	if err := u.transactions.MarkAuthorized(ctx, vendorTransactionID); err != nil {
		return fmt.Errorf("mark transaction authorized: %w", err)
	}
	return nil
}

// ProcessWebhook verifies and applies one holdings webhook delivery. The raw
// body is kept for audit. The checksum gate runs before anything is touched.
func (u *ImportUsecase) ProcessWebhook(ctx context.Context, raw []byte) error {
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if !u.gateway.VerifyChecksum(payload.Timestamp, payload.SmallcaseAuthID, payload.Checksum) {
		return ErrChecksumMismatch
	}

	broker, ok := entity.BrokerFromVendorCode(payload.Broker)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBroker, payload.Broker)
	}

	txRow, err := u.transactions.FindByVendorID(ctx, payload.TransactionID)
	if err != nil {
		return err
	}

	merged, err := mergeSecurities(payload.Securities)
	if err != nil {
		return err
	}

	holdings, err := u.resolveHoldings(ctx, txRow, broker, merged)
	if err != nil {
		return err
	}

	app := entity.ImportApplication{
		TransactionID: txRow.ID,
		UserID:        txRow.UserID,
		Broker:        broker,
		Holdings:      holdings,
		RawPayload:    string(raw),
	}
	if txRow.ImportType == entity.ImportTypeNew {
		app.AuthID = &payload.SmallcaseAuthID
	}
	if err := u.transactions.ApplyImport(ctx, app); err != nil {
		return fmt.Errorf("apply import: %w", err)
	}

	slog.Info("holdings import processed",
		"userId", txRow.UserID,
		"broker", broker,
		"securities", len(payload.Securities),
		"holdings", len(holdings),
	)
	return nil
}

// mergeSecurities folds each security's holding and open positions into one
// quantity-weighted aggregate, keyed "NSE:<ticker>" or, when the security is
// not NSE-listed, "BSE:<ticker>". Colliding keys are weighted-merged again.
func mergeSecurities(securities []WebhookSecurity) (map[string]entity.MergedHolding, error) {
	merged := make(map[string]entity.MergedHolding, len(securities))
	for _, s := range securities {
		quantity := s.Holdings.Quantity + s.Positions.NSE.Quantity + s.Positions.BSE.Quantity
		value := weighted(s.Holdings).
			Add(weighted(s.Positions.NSE)).
			Add(weighted(s.Positions.BSE))

		var ticker, key string
		switch {
		case s.NSETicker != nil:
			ticker = *s.NSETicker
			key = "NSE:" + ticker
		case s.BSETicker != nil:
			ticker = *s.BSETicker
			key = "BSE:" + ticker
		default:
			return nil, fmt.Errorf("%w: isin %s", ErrTickerMissing, s.ISIN)
		}

		if prev, ok := merged[key]; ok {
			quantity += prev.Quantity
			value = value.Add(prev.AveragePrice.Mul(decimal.NewFromInt(prev.Quantity)))
		}
		avg := decimal.Zero
		if quantity > 0 {
			avg = value.Div(decimal.NewFromInt(quantity))
		}
		merged[key] = entity.MergedHolding{Ticker: ticker, Quantity: quantity, AveragePrice: avg}
	}
	return merged, nil
}

func weighted(p PositionValue) decimal.Decimal {
	return p.AveragePrice.Mul(decimal.NewFromInt(p.Quantity))
}

// resolveHoldings maps merged tickers to investment option ids. A key that
// resolves to no option is an internal inconsistency and fails the import.
func (u *ImportUsecase) resolveHoldings(ctx context.Context, txRow *entity.ImportTransaction, broker entity.Broker, merged map[string]entity.MergedHolding) ([]entity.UserHolding, error) {
	if len(merged) == 0 {
		return nil, nil
	}

	tickers := make([]string, 0, len(merged))
	for _, m := range merged {
		tickers = append(tickers, m.Ticker)
	}
	options, err := u.options.FindByTickers(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("resolve tickers: %w", err)
	}

	optionByKey := make(map[string]uint, len(options)*2)
	for i := range options {
		if t := options[i].NSETicker; t != nil {
			optionByKey["NSE:"+*t] = options[i].ID
		}
		if t := options[i].BSETicker; t != nil {
			optionByKey["BSE:"+*t] = options[i].ID
		}
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	holdings := make([]entity.UserHolding, 0, len(merged))
	for _, key := range keys {
		optionID, ok := optionByKey[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedTicker, key)
		}
		m := merged[key]
		holdings = append(holdings, entity.UserHolding{
			UserID:             txRow.UserID,
			InvestmentOptionID: optionID,
			TransactionRef:     txRow.ID,
			Quantity:           m.Quantity,
			AveragePrice:       m.AveragePrice,
			Broker:             broker,
		})
	}
	return holdings, nil
}

// GetInvestments aggregates the user's holdings across brokers for the
// client, together with the linked-broker summary.
func (u *ImportUsecase) GetInvestments(ctx context.Context, userID uint, pollingCount int) (*entity.InvestmentsView, error) {
	if pollingCount > maxPollingCount {
		return nil, ErrPollingCountExceeded
	}

	details, err := u.holdings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	brokers, err := u.transactions.LinkedBrokers(ctx, userID, startOfDay(u.now()))
	if err != nil {
		return nil, fmt.Errorf("list linked brokers: %w", err)
	}
	activeFetch, err := u.transactions.HasActiveFetch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check active fetch: %w", err)
	}

	stockCounts := make(map[entity.Broker]int64, len(brokers))
	perOption := make(map[uint]*entity.AggregatedInvestment, len(details))
	order := make([]uint, 0, len(details))
	total := decimal.Zero
	for _, d := range details {
		invested := d.AveragePrice.Mul(decimal.NewFromInt(d.Quantity))
		total = total.Add(invested)
		stockCounts[d.Broker]++

		agg, ok := perOption[d.InvestmentOptionID]
		if !ok {
			agg = &entity.AggregatedInvestment{
				InvestmentOptionID: d.InvestmentOptionID,
				Name:               d.Name,
				NSETicker:          d.NSETicker,
				BSETicker:          d.BSETicker,
			}
			perOption[d.InvestmentOptionID] = agg
			order = append(order, d.InvestmentOptionID)
		}
		agg.Quantity += d.Quantity
		agg.InvestedValue = agg.InvestedValue.Add(invested)
		if agg.Quantity > 0 {
			agg.AveragePrice = agg.InvestedValue.Div(decimal.NewFromInt(agg.Quantity))
		}
	}

	investments := make([]entity.AggregatedInvestment, 0, len(order))
	for _, id := range order {
		investments = append(investments, *perOption[id])
	}
	sort.SliceStable(investments, func(i, j int) bool {
		return investments[i].InvestedValue.GreaterThan(investments[j].InvestedValue)
	})

	var lastFetched *int64
	for i := range brokers {
		brokers[i].StockCount = stockCounts[brokers[i].Broker]
		if brokers[i].LastFetched == 0 {
			continue
		}
		if lastFetched == nil || brokers[i].LastFetched > *lastFetched {
			v := brokers[i].LastFetched
			lastFetched = &v
		}
	}

	return &entity.InvestmentsView{
		TotalValue:            total,
		LastFetched:           lastFetched,
		Investments:           investments,
		Brokers:               brokers,
		ActiveFetchInProgress: activeFetch,
	}, nil
}

// startOfDay returns midnight UTC of t's day.
func startOfDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
