package checkout

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

// APIClient reaches the storefront backend's payment and order endpoints. It
// implements IntentCreator and OrderPlacer.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewAPIClient builds a client for the backend at baseURL. token is the
// user's bearer token and may be empty for guest checkout.
func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateIntent asks the backend to open a payment transaction for amount
// (major currency units) and returns the client secret.
func (a *APIClient) CreateIntent(ctx context.Context, amount float64) (string, error) {
	var out struct {
		ClientSecret string `json:"clientSecret"`
	}
	if err := a.postJSON(ctx, "/api/payments/create-payment-intent",
		map[string]float64{"amount": amount}, &out); err != nil {
		return "", err
	}
	if out.ClientSecret == "" {
		return "", fmt.Errorf("backend response missing clientSecret")
	}
	return out.ClientSecret, nil
}

// PlaceOrder submits a reconciled order and returns the created (or, for a
// replayed transaction reference, the existing) order id.
func (a *APIClient) PlaceOrder(ctx context.Context, order OrderPayload) (string, error) {
	var out struct {
		OrderID string `json:"orderId"`
	}
	if err := a.postJSON(ctx, "/api/orders", order, &out); err != nil {
		return "", err
	}
	return out.OrderID, nil
}

func (a *APIClient) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
			return fmt.Errorf("%s: %s", path, payload.Error)
		}
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	return json.Unmarshal(data, out)
}
