package smallcase

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"invest_backend/internal/platform/externalapi/smallcase/dto"

	"invest_backend/internal/feature/holdings/domain/entity"
	"invest_backend/internal/feature/holdings/usecase"
)

// tokenLifetime is how long a gateway token stays valid.
const tokenLifetime = 24 * time.Hour

// transactionIntent is the only intent this service creates.
const transactionIntent = "HOLDINGS_IMPORT"

// Client はsmallcase gateway APIのクライアントです。
type Client struct {
	cfg    Config
	client *http.Client
}

// コンパイル時のインターフェース実装確認
var _ usecase.ImportGateway = (*Client)(nil)

// NewClient は指定された設定とHTTPクライアントでClientの新しいインスタンスを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// gatewayToken signs an HS256 gateway token. Guest sessions carry the
// {"guest": true} claim; known users carry their smallcase auth id.
func (c *Client) gatewayToken(authID string, guest bool) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
	}
	if guest {
		claims["guest"] = true
	} else {
		claims["smallcaseAuthId"] = authID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign gateway token: %w", err)
	}
	return signed, nil
}

// CreateTransaction opens a HOLDINGS_IMPORT transaction with the vendor and
// returns its id, expiry and the gateway token the client SDK needs.
func (c *Client) CreateTransaction(ctx context.Context, userID uint, authID string, guest bool, notes string) (*entity.VendorTransaction, error) {
	token, err := c.gatewayToken(authID, guest)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(dto.TransactionRequest{
		Intent:      transactionIntent,
		Version:     "v2",
		AssetConfig: dto.AssetConfig{MFHoldings: false},
		Notes:       notes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal transaction request: %w", err)
	}

	endpoint := "/gateway/" + c.cfg.Gateway + "/transaction"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-gateway-authtoken", token)
	req.Header.Set("x-gateway-secret", c.cfg.APIGatewaySecret)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read transaction response: %w", err)
	}

	var body dto.TransactionResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, c.vendorError(endpoint, userID, res.StatusCode, raw, "invalid JSON")
	}
	if res.StatusCode >= 400 || !body.Success || body.Data == nil || body.Data.TransactionID == "" {
		return nil, c.vendorError(endpoint, userID, res.StatusCode, raw, body.ErrorType)
	}

	return &entity.VendorTransaction{
		SDKToken:      token,
		TransactionID: body.Data.TransactionID,
		ExpireAt:      body.Data.ExpireAt,
		Raw:           string(raw),
	}, nil
}

// vendorError logs the endpoint and raw response, returning a generic error.
func (c *Client) vendorError(endpoint string, userID uint, status int, raw []byte, message string) error {
	slog.Error("smallcase api error",
		"endpoint", endpoint,
		"userId", userID,
		"status", status,
		"response", string(raw),
	)
	if message == "" {
		message = fmt.Sprintf("http %d", status)
	}
	return fmt.Errorf("smallcase %s: %s", endpoint, message)
}

// Checksum computes the webhook checksum: HMAC-SHA256 over
// timestamp+smallcaseAuthId keyed with the api gateway secret, hex-encoded.
func (c *Client) Checksum(timestamp, authID string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.APIGatewaySecret))
	mac.Write([]byte(timestamp + authID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyChecksum reports whether the webhook checksum verifies.
func (c *Client) VerifyChecksum(timestamp, authID, checksum string) bool {
	expected := c.Checksum(timestamp, authID)
	return hmac.Equal([]byte(expected), []byte(checksum))
}
