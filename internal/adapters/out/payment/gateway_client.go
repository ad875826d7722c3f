// internal/adapters/out/payment/gateway_client.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIKeyProvider resolves the gateway credential at call time so key
// rotation does not require a restart.
type APIKeyProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticAPIKey is the local-dev provider.
type StaticAPIKey string

func (k StaticAPIKey) APIKey(ctx context.Context) (string, error) {
	if strings.TrimSpace(string(k)) == "" {
		return "", fmt.Errorf("payment: static api key is empty")
	}
	return string(k), nil
}

// HTTPGateway charges through the external payment service. The core only
// consumes the binary outcome: a payment reference on success, an error on
// failure or cancel.
type HTTPGateway struct {
	baseURL string
	keys    APIKeyProvider
	client  *http.Client
}

func NewHTTPGateway(baseURL string, keys APIKeyProvider) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		keys:    keys,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type chargeRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type chargeResponse struct {
	Reference string `json:"reference"`
	Error     string `json:"error,omitempty"`
}

func (g *HTTPGateway) Charge(ctx context.Context, amount int64, idempotencyKey string) (string, error) {
	if g == nil || g.client == nil {
		return "", fmt.Errorf("payment: gateway client is nil")
	}
	if g.baseURL == "" {
		return "", fmt.Errorf("payment: gateway baseURL is empty")
	}
	if amount <= 0 {
		return "", fmt.Errorf("payment: amount must be positive")
	}

	key, err := g.keys.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("payment: resolve api key: %w", err)
	}

	body, _ := json.Marshal(chargeRequest{
		Amount:         amount,
		Currency:       "jpy",
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	res, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment: charge failed status=%d body=%s", res.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed chargeResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("payment: decode charge response: %w", err)
	}
	if strings.TrimSpace(parsed.Reference) == "" {
		return "", fmt.Errorf("payment: charge response has no reference (error=%s)", parsed.Error)
	}
	return parsed.Reference, nil
}
