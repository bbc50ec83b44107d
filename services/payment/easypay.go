package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carvia/models"

	"github.com/google/uuid"
)

// Fixed confirm endpoints; the session's own sandbox flag selects between
// them. Mismatching the flag against the credentials used at init time causes
// silent confirmation failure at the gateway, so the flag lives on the
// session, never in live config.
const (
	easypaySandboxHost    = "https://easypaystg.easypaisa.com.pk"
	easypayProductionHost = "https://easypay.easypaisa.com.pk"
	easypayIndexPath      = "/easypay/Index.jsf"
	easypayConfirmPath    = "/easypay/Confirm.jsf"
)

// Gateway-reported redirect statuses.
const (
	easypayStatusSuccess = "Success"
	easypayStatusFailed  = "Failed"
)

// EasypayGateway drives the two-step handshake protocol: the browser pays on
// the gateway's hosted page, gets redirected back to the merchant callback
// URL with an auth token, and the merchant must then POST that token back to
// the gateway's confirm endpoint before the reported status counts.
type EasypayGateway struct {
	StoreID     string
	CallbackURL string
	Sandbox     bool
	HTTP        *http.Client

	// confirmURL overrides the fixed confirm endpoint when set.
	confirmURL string
}

func NewEasypayGateway(storeID, callbackURL string, sandbox bool) *EasypayGateway {
	return &EasypayGateway{
		StoreID:     storeID,
		CallbackURL: callbackURL,
		Sandbox:     sandbox,
		HTTP:        &http.Client{Timeout: 15 * time.Second},
	}
}

func hostFor(sandbox bool) string {
	if sandbox {
		return easypaySandboxHost
	}
	return easypayProductionHost
}

// Initiate builds the redirect to the gateway's hosted payment page. The
// actual handshake begins when the gateway calls back.
func (g *EasypayGateway) Initiate(ctx context.Context, b *models.Booking) (*models.PaymentSession, error) {
	now := time.Now()
	return &models.PaymentSession{
		ID:        uuid.New().String(),
		BookingID: b.ID,
		Gateway:   models.GatewayEasypay,
		Status:    models.SessionInitiated,
		Sandbox:   g.Sandbox,
		Amount:    b.TotalPrice,
		Redirect: &models.RedirectTarget{
			URL: hostFor(g.Sandbox) + easypayIndexPath,
			Fields: map[string]string{
				"storeId":     g.StoreID,
				"amount":      fmt.Sprintf("%.2f", b.TotalPrice),
				"orderRefNum": b.ID,
				"postBackURL": g.CallbackURL,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ConfirmEndpoint returns the confirm URL for the session's environment.
func ConfirmEndpoint(session *models.PaymentSession) string {
	return hostFor(session.Sandbox) + easypayConfirmPath
}

// StripQuery removes the query string from a URL, keeping scheme, host and
// path byte-for-byte. The gateway compares the confirm POST's postBackURL
// against the registered callback URL exactly.
func StripQuery(rawURL string) string {
	return strings.SplitN(rawURL, "?", 2)[0]
}

// Confirm performs the handshake's second POST from the merchant to the
// gateway confirm endpoint. Only after this completes is the redirect status
// authoritative.
func (g *EasypayGateway) Confirm(ctx context.Context, session *models.PaymentSession) error {
	form := url.Values{}
	form.Set("auth_token", session.Token)
	form.Set("postBackURL", StripQuery(g.CallbackURL))

	endpoint := g.confirmURL
	if endpoint == "" {
		endpoint = ConfirmEndpoint(session)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build easypay confirm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayConfirmationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: confirm endpoint returned status %d", ErrGatewayConfirmationFailed, resp.StatusCode)
	}
	return nil
}

// newCallbackSession builds a session for a callback that arrived without a
// prior explicit initiation (payment began on the gateway's hosted page).
func (g *EasypayGateway) newCallbackSession(bookingID string) *models.PaymentSession {
	now := time.Now()
	return &models.PaymentSession{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		Gateway:   models.GatewayEasypay,
		Status:    models.SessionInitiated,
		Sandbox:   g.Sandbox,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
