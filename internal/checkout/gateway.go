package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"permini-backend/internal/models"

	"github.com/shopspring/decimal"
)

type GatewayReason string

const (
	GatewayTimeout     GatewayReason = "timeout"
	GatewayDeclined    GatewayReason = "declined"
	GatewayUnavailable GatewayReason = "unavailable"
)

// GatewayError maps every charge failure to one of three reasons; the
// state machine treats them all as Failed with zero mutation.
type GatewayError struct {
	Reason  GatewayReason
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %s", e.Reason, e.Message)
}

type ChargeDetails struct {
	Method      models.PaymentMethod
	CardToken   string
	PhoneNumber string // mobile wallet
}

type ChargeResult struct {
	TransactionID string
}

// Gateway is the narrow interface to the external payment provider:
// one synchronous charge per checkout attempt.
type Gateway interface {
	Charge(ctx context.Context, amount decimal.Decimal, details ChargeDetails) (*ChargeResult, error)
}

// HTTPGateway talks to the hosted payment provider. The client timeout
// caps the only blocking call in the checkout path.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type chargeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	CardToken   string `json:"card_token,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type chargeResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

func (g *HTTPGateway) Charge(ctx context.Context, amount decimal.Decimal, details ChargeDetails) (*ChargeResult, error) {
	payload, err := json.Marshal(chargeRequest{
		Amount:      amount.StringFixed(2),
		Currency:    "TND",
		Method:      string(details.Method),
		CardToken:   details.CardToken,
		PhoneNumber: details.PhoneNumber,
	})
	if err != nil {
		return nil, &GatewayError{Reason: GatewayUnavailable, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return nil, &GatewayError{Reason: GatewayUnavailable, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &GatewayError{Reason: GatewayTimeout, Message: "charge timed out"}
		}
		var nerr interface{ Timeout() bool }
		if errors.As(err, &nerr) && nerr.Timeout() {
			return nil, &GatewayError{Reason: GatewayTimeout, Message: "charge timed out"}
		}
		return nil, &GatewayError{Reason: GatewayUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &GatewayError{Reason: GatewayUnavailable, Message: resp.Status}
	}

	var body chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &GatewayError{Reason: GatewayUnavailable, Message: "unreadable gateway response"}
	}
	if !body.Success {
		msg := body.Reason
		if msg == "" {
			msg = "charge declined"
		}
		return nil, &GatewayError{Reason: GatewayDeclined, Message: msg}
	}

	return &ChargeResult{TransactionID: body.TransactionID}, nil
}
