package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_CreateOrder(t *testing.T) {
	t.Run("sends credentials and the INR payload", func(t *testing.T) {
		var got createOrderPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/orders" {
				t.Errorf("expected POST /orders, got %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get("x-client-id") != "client-1" {
				t.Errorf("expected x-client-id client-1, got %s", r.Header.Get("x-client-id"))
			}
			if r.Header.Get("x-client-secret") != "secret-1" {
				t.Errorf("expected x-client-secret secret-1, got %s", r.Header.Get("x-client-secret"))
			}
			if r.Header.Get("x-api-version") != "2023-08-01" {
				t.Errorf("expected x-api-version 2023-08-01, got %s", r.Header.Get("x-api-version"))
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("failed to decode payload: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"order_id": "CF123", "payment_session_id": "ps_1", "order_status": "ACTIVE", "cf_order_id": "cf_1"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "client-1", "secret-1", server.Client())
		resp, err := client.CreateOrder(context.Background(), CreateOrderRequest{
			OrderID:       "CF123",
			Amount:        137,
			CustomerID:    "stu-1",
			CustomerName:  "Priya",
			CustomerEmail: "priya@campus.edu",
			CustomerPhone: "9876543210",
			ReturnURL:     "https://canteen.example/return",
			Note:          "Canteen order AB2CD",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if resp.GatewayOrderID != "CF123" {
			t.Errorf("expected order id CF123, got %s", resp.GatewayOrderID)
		}
		if resp.PaymentSessionID != "ps_1" {
			t.Errorf("expected payment session ps_1, got %s", resp.PaymentSessionID)
		}

		if got.OrderCurrency != "INR" {
			t.Errorf("expected currency INR, got %s", got.OrderCurrency)
		}
		if got.OrderAmount != 137 {
			t.Errorf("expected amount 137, got %d", got.OrderAmount)
		}
		if got.Customer.CustomerEmail != "priya@campus.edu" {
			t.Errorf("unexpected customer email: %s", got.Customer.CustomerEmail)
		}
		if got.OrderMeta.ReturnURL != "https://canteen.example/return" {
			t.Errorf("unexpected return url: %s", got.OrderMeta.ReturnURL)
		}
	})

	t.Run("fills in defaults for missing customer fields", func(t *testing.T) {
		var got createOrderPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"order_id": "CF124"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "client-1", "secret-1", server.Client())
		_, err := client.CreateOrder(context.Background(), CreateOrderRequest{
			OrderID:    "CF124",
			Amount:     100,
			CustomerID: "stu-2",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got.Customer.CustomerEmail != "stu-2@madraskitchen.com" {
			t.Errorf("expected default email, got %s", got.Customer.CustomerEmail)
		}
		if got.Customer.CustomerPhone != "9999999999" {
			t.Errorf("expected default phone, got %s", got.Customer.CustomerPhone)
		}
		if got.OrderNote != "Madras Kitchen Order" {
			t.Errorf("expected default note, got %s", got.OrderNote)
		}
	})

	t.Run("maps a rejection to GatewayError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message": "invalid credentials"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "bad", "bad", server.Client())
		_, err := client.CreateOrder(context.Background(), CreateOrderRequest{OrderID: "CF125", Amount: 50})

		var gwErr *GatewayError
		if !errors.As(err, &gwErr) {
			t.Fatalf("expected GatewayError, got %v", err)
		}
		if gwErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", gwErr.StatusCode)
		}
		if gwErr.Message != "invalid credentials" {
			t.Errorf("expected gateway message, got %q", gwErr.Message)
		}
	})

	t.Run("wraps transport failures", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "c", "s", &http.Client{})
		_, err := client.CreateOrder(context.Background(), CreateOrderRequest{OrderID: "CF126", Amount: 50})

		var gwErr *GatewayError
		if !errors.As(err, &gwErr) {
			t.Fatalf("expected GatewayError, got %v", err)
		}
		if gwErr.Unwrap() == nil {
			t.Error("expected wrapped transport error")
		}
	})
}

func TestClient_VerifyPayment(t *testing.T) {
	t.Run("PAID maps to SUCCESS", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/orders/CF123" {
				t.Errorf("expected /orders/CF123, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"order_status": "PAID", "order_amount": 137}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "c", "s", server.Client())
		resp, err := client.VerifyPayment(context.Background(), "CF123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if resp.PaymentStatus != "SUCCESS" {
			t.Errorf("expected SUCCESS, got %s", resp.PaymentStatus)
		}
		if resp.OrderAmount != 137 {
			t.Errorf("expected amount 137, got %d", resp.OrderAmount)
		}
	})

	t.Run("anything else passes through", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"order_status": "ACTIVE", "order_amount": 137}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "c", "s", server.Client())
		resp, err := client.VerifyPayment(context.Background(), "CF123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if resp.PaymentStatus != "ACTIVE" {
			t.Errorf("expected ACTIVE, got %s", resp.PaymentStatus)
		}
	})
}
