package kite

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"invest_backend/internal/platform/externalapi/kite/dto"

	instrentity "invest_backend/internal/feature/instruments/domain/entity"
	instrusecase "invest_backend/internal/feature/instruments/usecase"
	pricesentity "invest_backend/internal/feature/prices/domain/entity"
	pricesusecase "invest_backend/internal/feature/prices/usecase"
)

// refreshAttempts is how often a session refresh is retried before giving up.
const refreshAttempts = 5

// candleTimeLayout is the timestamp format of historical candle entries.
const candleTimeLayout = "2006-01-02T15:04:05-0700"

// Credentials is the kite credential bundle.
type Credentials struct {
	APIKey       string `json:"api_key"`
	APISecret    string `json:"api_secret"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenSource supplies and persists the credential bundle.
// インターフェースは利用側で定義します。
type TokenSource interface {
	Get(ctx context.Context) (Credentials, error)
	Put(ctx context.Context, creds Credentials) error
}

// Client はKite Connect APIから銘柄・株価データを取得するクライアントです。
type Client struct {
	cfg    Config
	client *http.Client
	tokens TokenSource
}

// コンパイル時のインターフェース実装確認
var (
	_ instrusecase.InstrumentSource = (*Client)(nil)
	_ pricesusecase.MarketRepository = (*Client)(nil)
)

// NewClient は指定された設定とHTTPクライアントでClientの新しいインスタンスを生成します。
func NewClient(cfg Config, client *http.Client, tokens TokenSource) *Client {
	return &Client{cfg: cfg, client: client, tokens: tokens}
}

// authHeader builds the "token apiKey:accessToken" Authorization value.
func (c *Client) authHeader(ctx context.Context) (string, error) {
	creds, err := c.tokens.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load kite credentials: %w", err)
	}
	return "token " + creds.APIKey + ":" + creds.AccessToken, nil
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.client.Do(req)
}

func closeBody(res *http.Response) {
	if err := res.Body.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err)
	}
}

// vendorError logs the endpoint and raw response, returning a generic error.
func vendorError(endpoint string, status int, raw []byte, message string) error {
	slog.Error("kite api error",
		"endpoint", endpoint,
		"status", status,
		"response", string(raw),
	)
	if message == "" {
		message = fmt.Sprintf("http %d", status)
	}
	return fmt.Errorf("kite %s: %s", endpoint, message)
}

// DownloadInstruments fetches the vendor's full instrument dump (CSV) and
// returns the raw rows.
func (c *Client) DownloadInstruments(ctx context.Context) ([]instrentity.InstrumentRow, error) {
	auth, err := c.authHeader(ctx)
	if err != nil {
		return nil, err
	}

	u := c.cfg.BaseURL + "/instruments"
	res, err := c.do(ctx, http.MethodGet, u, nil, map[string]string{"Authorization": auth})
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, vendorError("/instruments", res.StatusCode, raw, "")
	}

	reader := csv.NewReader(res.Body)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read instrument csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"exchange", "tradingsymbol", "instrument_token", "name"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("instrument csv is missing column %q", required)
		}
	}

	var rows []instrentity.InstrumentRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read instrument csv: %w", err)
		}
		rows = append(rows, instrentity.InstrumentRow{
			Exchange:        record[cols["exchange"]],
			TradingSymbol:   record[cols["tradingsymbol"]],
			InstrumentToken: record[cols["instrument_token"]],
			Name:            record[cols["name"]],
		})
	}
	slog.Info("instrument dump downloaded", "rows", len(rows))
	return rows, nil
}

// histDate renders a bound of the historical range. The vendor expects the
// literal "yyyy-MM-dd+00:00:00" form, so the query string is concatenated
// by hand rather than url-encoded.
func histDate(t time.Time) string {
	return t.UTC().Format("2006-01-02") + "+00:00:00"
}

// HistoricCandles fetches the instrument's daily candles within [from, to].
func (c *Client) HistoricCandles(ctx context.Context, instrumentToken string, from, to time.Time) ([]pricesentity.Candle, error) {
	auth, err := c.authHeader(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := "/instruments/historical/" + instrumentToken + "/day"
	u := c.cfg.BaseURL + endpoint + "?from=" + histDate(from) + "&to=" + histDate(to)
	res, err := c.do(ctx, http.MethodGet, u, nil, map[string]string{"Authorization": auth})
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read historical response: %w", err)
	}

	var body dto.HistoricalResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, vendorError(endpoint, res.StatusCode, raw, "invalid JSON")
	}
	if res.StatusCode >= 400 || body.Status != "success" {
		return nil, vendorError(endpoint, res.StatusCode, raw, body.Message)
	}

	candles := make([]pricesentity.Candle, 0, len(body.Data.Candles))
	for _, entry := range body.Data.Candles {
		candle, err := parseCandle(entry)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", instrumentToken, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// parseCandle converts one [timestamp, o, h, l, c, v] entry.
func parseCandle(entry []any) (pricesentity.Candle, error) {
	if len(entry) < 6 {
		return pricesentity.Candle{}, fmt.Errorf("candle entry has %d fields, want 6", len(entry))
	}
	ts, ok := entry[0].(string)
	if !ok {
		return pricesentity.Candle{}, fmt.Errorf("candle timestamp %v is not a string", entry[0])
	}
	tm, err := time.Parse(candleTimeLayout, ts)
	if err != nil {
		return pricesentity.Candle{}, fmt.Errorf("parse candle timestamp %q: %w", ts, err)
	}

	values := make([]float64, 5)
	for i := 1; i < 6; i++ {
		v, err := toFloat(entry[i])
		if err != nil {
			return pricesentity.Candle{}, fmt.Errorf("candle field %d: %w", i, err)
		}
		values[i-1] = v
	}
	return pricesentity.Candle{
		Timestamp: tm,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    int64(values[4]),
	}, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("unexpected numeric value %v (%T)", v, v)
	}
}

// OHLCQuotes fetches live OHLC quotes for up to 500 instruments, keyed
// "EXCHANGE:SYMBOL". Instruments the vendor omits are absent from the map.
func (c *Client) OHLCQuotes(ctx context.Context, instruments []string) (map[string]pricesentity.Quote, error) {
	auth, err := c.authHeader(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	for _, inst := range instruments {
		q.Add("i", inst)
	}
	endpoint := "/quote/ohlc"
	res, err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+endpoint+"?"+q.Encode(), nil, map[string]string{"Authorization": auth})
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read quote response: %w", err)
	}

	var body dto.OHLCResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, vendorError(endpoint, res.StatusCode, raw, "invalid JSON")
	}
	if res.StatusCode >= 400 || body.Status != "success" {
		return nil, vendorError(endpoint, res.StatusCode, raw, body.Message)
	}

	quotes := make(map[string]pricesentity.Quote, len(body.Data))
	for key, q := range body.Data {
		quote := pricesentity.Quote{
			Open:      q.OHLC.Open,
			High:      q.OHLC.High,
			Low:       q.OHLC.Low,
			Close:     q.OHLC.Close,
			LastPrice: q.LastPrice,
		}
		if q.Volume != nil {
			quote.Volume = *q.Volume
		}
		quotes[key] = quote
	}
	return quotes, nil
}

// RefreshAccessToken exchanges the stored refresh token for a new access
// token and persists the rotated bundle. Up to refreshAttempts tries; the
// store is left untouched if all fail.
func (c *Client) RefreshAccessToken(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= refreshAttempts; attempt++ {
		if err := c.refreshOnce(ctx); err != nil {
			lastErr = err
			slog.Error("kite access token refresh failed", "attempt", attempt, "error", err)
			continue
		}
		slog.Info("kite access token refreshed", "attempt", attempt)
		return nil
	}
	return fmt.Errorf("refresh access token after %d attempts: %w", refreshAttempts, lastErr)
}

func (c *Client) refreshOnce(ctx context.Context) error {
	creds, err := c.tokens.Get(ctx)
	if err != nil {
		return fmt.Errorf("load kite credentials: %w", err)
	}

	sum := sha256.Sum256([]byte(creds.APIKey + creds.RefreshToken + creds.APISecret))
	form := url.Values{}
	form.Set("api_key", creds.APIKey)
	form.Set("refresh_token", creds.RefreshToken)
	form.Set("checksum", hex.EncodeToString(sum[:]))

	endpoint := "/session/refresh_token"
	res, err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+endpoint,
		strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	if err != nil {
		return err
	}
	defer closeBody(res)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read refresh response: %w", err)
	}

	var body dto.RefreshTokenResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return vendorError(endpoint, res.StatusCode, raw, "invalid JSON")
	}
	if res.StatusCode >= 400 || body.Status != "success" || body.Data == nil {
		return vendorError(endpoint, res.StatusCode, raw, body.Message)
	}

	creds.AccessToken = body.Data.AccessToken
	if body.Data.RefreshToken != "" {
		creds.RefreshToken = body.Data.RefreshToken
	}
	if err := c.tokens.Put(ctx, creds); err != nil {
		return fmt.Errorf("store refreshed credentials: %w", err)
	}
	return nil
}
