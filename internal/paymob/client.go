package paymob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Hanafy91/buddytour/config"
	"github.com/Hanafy91/buddytour/internal/domain"
)

// Client talks to the Paymob Accept REST API. Every call is bounded by the
// underlying http.Client timeout; any failure is reported as
// domain.ErrGatewayUnavailable so callers can compensate.
type Client struct {
	baseURL       string
	apiKey        string
	integrationID string
	iframeID      string
	currency      string
	httpClient    *http.Client
}

type BillingData struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Apartment   string `json:"apartment"`
	Floor       string `json:"floor"`
	Street      string `json:"street"`
	Building    string `json:"building"`
	City        string `json:"city"`
	Country     string `json:"country"`
	State       string `json:"state"`
}

func NewClient(cfg config.PaymobConfig) *Client {
	return &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		integrationID: cfg.IntegrationID,
		iframeID:      cfg.IframeID,
		currency:      cfg.Currency,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Authenticate(ctx context.Context) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/auth/tokens", map[string]interface{}{"api_key": c.apiKey}, &resp); err != nil {
		return "", fmt.Errorf("paymob auth: %w", err)
	}
	return resp.Token, nil
}

func (c *Client) CreateOrder(ctx context.Context, token string, amountCents int64, merchantOrderID string) (string, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	body := map[string]interface{}{
		"auth_token":        token,
		"delivery_needed":   false,
		"amount_cents":      amountCents,
		"currency":          c.currency,
		"merchant_order_id": merchantOrderID,
		"items":             []interface{}{},
	}
	if err := c.post(ctx, "/ecommerce/orders", body, &resp); err != nil {
		return "", fmt.Errorf("paymob create order: %w", err)
	}
	return strconv.FormatInt(resp.ID, 10), nil
}

func (c *Client) PaymentKey(ctx context.Context, token, gatewayOrderID string, amountCents int64, billing BillingData) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]interface{}{
		"auth_token":           token,
		"amount_cents":         amountCents,
		"expiration":           3600,
		"order_id":             gatewayOrderID,
		"billing_data":         billing,
		"currency":             c.currency,
		"integration_id":       c.integrationID,
		"lock_order_when_paid": true,
	}
	if err := c.post(ctx, "/acceptance/payment_keys", body, &resp); err != nil {
		return "", fmt.Errorf("paymob payment key: %w", err)
	}
	return resp.Token, nil
}

func (c *Client) IframeURL(paymentToken string) string {
	return fmt.Sprintf("%s/acceptance/iframes/%s?payment_token=%s", c.baseURL, c.iframeID, paymentToken)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned %d: %s", domain.ErrGatewayUnavailable, path, res.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrGatewayUnavailable, path, err)
	}
	return nil
}
