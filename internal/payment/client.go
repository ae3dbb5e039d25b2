package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const apiVersion = "2023-08-01"

// GatewayError wraps any non-success gateway response or transport failure.
// It is surfaced to the caller and never retried.
type GatewayError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway: %v", e.Err)
	}
	return fmt.Sprintf("payment gateway: status %d: %s", e.StatusCode, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Client talks to a Cashfree-compatible payment gateway. Credentials ride
// on every request as the x-client-id / x-client-secret header pair.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewClient(baseURL, clientID, clientSecret string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
	}
}

type CreateOrderRequest struct {
	OrderID       string
	Amount        int64
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ReturnURL     string
	Note          string
}

type CreateOrderResponse struct {
	GatewayOrderID   string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderStatus      string `json:"order_status"`
	CFOrderID        string `json:"cf_order_id"`
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
}

type createOrderPayload struct {
	OrderID       string          `json:"order_id"`
	OrderAmount   int64           `json:"order_amount"`
	OrderCurrency string          `json:"order_currency"`
	Customer      customerDetails `json:"customer_details"`
	OrderMeta     orderMeta       `json:"order_meta"`
	OrderNote     string          `json:"order_note"`
}

// CreateOrder registers the payment with the gateway. The caller's order is
// created only after this succeeds; on any failure nothing is persisted.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	payload := createOrderPayload{
		OrderID:       req.OrderID,
		OrderAmount:   req.Amount,
		OrderCurrency: "INR",
		Customer: customerDetails{
			CustomerID:    req.CustomerID,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
		},
		OrderMeta: orderMeta{ReturnURL: req.ReturnURL},
		OrderNote: req.Note,
	}
	if payload.Customer.CustomerEmail == "" {
		payload.Customer.CustomerEmail = req.CustomerID + "@madraskitchen.com"
	}
	if payload.Customer.CustomerPhone == "" {
		payload.Customer.CustomerPhone = "9999999999"
	}
	if payload.OrderNote == "" {
		payload.OrderNote = "Madras Kitchen Order"
	}

	var resp CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", payload, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

type VerifyPaymentResponse struct {
	OrderStatus   string `json:"order_status"`
	OrderAmount   int64  `json:"order_amount"`
	PaymentStatus string `json:"payment_status"`
}

// VerifyPayment reports the gateway's authoritative state for the order.
// It never touches the stored order; reconciliation stays a manual step.
func (c *Client) VerifyPayment(ctx context.Context, gatewayOrderID string) (*VerifyPaymentResponse, error) {
	var resp VerifyPaymentResponse
	if err := c.do(ctx, http.MethodGet, "/orders/"+gatewayOrderID, nil, &resp); err != nil {
		return nil, err
	}

	if resp.OrderStatus == "PAID" {
		resp.PaymentStatus = "SUCCESS"
	} else {
		resp.PaymentStatus = resp.OrderStatus
	}

	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-client-secret", c.clientSecret)
	req.Header.Set("x-api-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&gwErr)
		if gwErr.Message == "" {
			gwErr.Message = http.StatusText(resp.StatusCode)
		}
		return &GatewayError{StatusCode: resp.StatusCode, Message: gwErr.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}
