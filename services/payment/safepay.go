package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"carvia/models"

	"github.com/google/uuid"
)

// SafepayGateway drives the direct-redirect protocol: one server-side init
// call returns a checkout token; the client auto-submits a hidden POST form
// to the checkout page and the gateway itself redirects the browser to the
// merchant return/cancel URL afterwards. No second roundtrip through this
// adapter is required.
type SafepayGateway struct {
	BaseURL   string
	APIKey    string
	ReturnURL string
	CancelURL string
	Sandbox   bool
	HTTP      *http.Client
}

func NewSafepayGateway(baseURL, apiKey, returnURL, cancelURL string, sandbox bool) *SafepayGateway {
	return &SafepayGateway{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		ReturnURL: returnURL,
		CancelURL: cancelURL,
		Sandbox:   sandbox,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

// safepayInitResponse is the shape of the gateway's order init reply.
type safepayInitResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Initiate opens an order with the gateway and builds the redirect target the
// client will auto-submit.
func (g *SafepayGateway) Initiate(ctx context.Context, b *models.Booking) (*models.PaymentSession, error) {
	body, err := json.Marshal(map[string]interface{}{
		"merchant_api_key": g.APIKey,
		"intent":           "PAYMENT",
		"mode":             "payment",
		"amount":           b.TotalPrice,
		"currency":         "PKR",
		"order_id":         b.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode safepay init request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/order/v1/init", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build safepay init request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("safepay init call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("safepay init returned status %d", resp.StatusCode)
	}

	var initResp safepayInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return nil, fmt.Errorf("failed to parse safepay init response: %w", err)
	}
	if initResp.Data.Token == "" {
		return nil, fmt.Errorf("safepay init response missing token")
	}

	now := time.Now()
	return &models.PaymentSession{
		ID:        uuid.New().String(),
		BookingID: b.ID,
		Gateway:   models.GatewaySafepay,
		Token:     initResp.Data.Token,
		Status:    models.SessionInitiated,
		Sandbox:   g.Sandbox,
		Amount:    b.TotalPrice,
		Redirect: &models.RedirectTarget{
			URL: g.BaseURL + "/checkout/pay",
			Fields: map[string]string{
				"beacon":       initResp.Data.Token,
				"order_id":     b.ID,
				"redirect_url": g.ReturnURL,
				"cancel_url":   g.CancelURL,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
