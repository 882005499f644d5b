// Package payment opens payment intents with the external processor. The
// processor is reached over its plain REST surface; the only operation this
// system needs is a single form-encoded POST.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// InitError reports a failed payment-intent creation. It is surfaced to the
// caller as-is; intent creation is never retried automatically because each
// call opens a fresh transaction on the processor side.
type InitError struct {
	Status  int
	Message string
}

func (e *InitError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("payment intent creation failed (%d): %s", e.Status, e.Message)
	}
	return "payment intent creation failed: " + e.Message
}

// ErrNonPositiveAmount rejects intent creation before any network call.
var ErrNonPositiveAmount = &InitError{Message: "amount must be greater than zero"}

// Intent is the read reference this system holds for one checkout attempt.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Client talks to the processor's payment-intent endpoint.
type Client struct {
	secretKey  string
	apiBase    string
	currency   string
	httpClient *http.Client
}

func NewClient(secretKey, apiBase, currency string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiBase:    strings.TrimRight(apiBase, "/"),
		currency:   currency,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// MinorUnits converts a major-unit amount to the processor's integer minor
// units. Rounding, not truncation: 24.99 in float arithmetic can land a hair
// under 2499 and must still submit as 2499.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateIntent opens one transaction for amount (major currency units) and
// returns the client secret. Every successful call creates a distinct
// transaction; callers must invoke it once per checkout attempt.
func (c *Client) CreateIntent(ctx context.Context, amount float64) (Intent, error) {
	minor := MinorUnits(amount)
	if minor <= 0 {
		return Intent{}, ErrNonPositiveAmount
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(minor, 10))
	form.Set("currency", c.currency)
	form.Set("automatic_payment_methods[enabled]", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return Intent{}, &InitError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Intent{}, &InitError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Intent{}, &InitError{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return Intent{}, &InitError{Status: resp.StatusCode, Message: processorErrorMessage(body)}
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return Intent{}, &InitError{Status: resp.StatusCode, Message: "unreadable processor response"}
	}
	if intent.ClientSecret == "" {
		return Intent{}, &InitError{Status: resp.StatusCode, Message: "processor response missing client secret"}
	}

	return intent, nil
}

func processorErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return "processor rejected the request"
}
