package orders

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/madraskitchen/canteen/internal/domain"
	"github.com/madraskitchen/canteen/internal/payment"
)

type fakeRepo struct {
	orders map[string]*domain.Order
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (f *fakeRepo) List(_ context.Context, studentID string, status domain.OrderStatus) ([]domain.Order, error) {
	var result []domain.Order
	for _, order := range f.orders {
		if studentID != "" && order.StudentID != studentID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		result = append(result, *order)
	}
	if result == nil {
		result = []domain.Order{}
	}
	return result, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	order.Status = status
	copied := *order
	return &copied, nil
}

type fakeVerifier struct {
	resp *payment.VerifyPaymentResponse
	err  error
}

func (f *fakeVerifier) VerifyPayment(_ context.Context, _ string) (*payment.VerifyPaymentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestHandler(repo *fakeRepo, verifier PaymentVerifier) (*Handler, *http.ServeMux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(repo, verifier, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", handler.HandleList)
	mux.HandleFunc("GET /orders/{id}", handler.HandleGet)
	mux.HandleFunc("PATCH /orders/{id}/status", handler.HandleUpdateStatus)
	mux.HandleFunc("POST /orders/{id}/verify", handler.HandleVerifyPayment)
	return handler, mux
}

func TestHandler_HandleList(t *testing.T) {
	repo := &fakeRepo{orders: map[string]*domain.Order{
		"o1": {ID: "o1", StudentID: "stu-1", Status: domain.OrderStatusPending},
		"o2": {ID: "o2", StudentID: "stu-2", Status: domain.OrderStatusReady},
	}}
	_, mux := newTestHandler(repo, nil)

	t.Run("filters by status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders?status=ready", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var orders []domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&orders); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(orders) != 1 || orders[0].ID != "o2" {
			t.Errorf("expected only o2, got %+v", orders)
		}
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders?status=cooking", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("filters by student", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders?student_id=stu-1", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		var orders []domain.Order
		_ = json.NewDecoder(rec.Body).Decode(&orders)
		if len(orders) != 1 || orders[0].ID != "o1" {
			t.Errorf("expected only o1, got %+v", orders)
		}
	})
}

func TestHandler_HandleGet(t *testing.T) {
	repo := &fakeRepo{orders: map[string]*domain.Order{
		"o1": {ID: "o1", Token: "AB2CD", Status: domain.OrderStatusPending},
	}}
	_, mux := newTestHandler(repo, nil)

	t.Run("returns the order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/o1", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var order domain.Order
		_ = json.NewDecoder(rec.Body).Decode(&order)
		if order.Token != "AB2CD" {
			t.Errorf("expected token AB2CD, got %s", order.Token)
		}
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/nope", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleUpdateStatus(t *testing.T) {
	t.Run("any known status is accepted in any order", func(t *testing.T) {
		repo := &fakeRepo{orders: map[string]*domain.Order{
			"o1": {ID: "o1", Status: domain.OrderStatusPending},
		}}
		_, mux := newTestHandler(repo, nil)

		// Straight from pending to delivered, then back to preparing.
		for _, status := range []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusPreparing} {
			body := `{"status": "` + string(status) + `"}`
			req := httptest.NewRequest(http.MethodPatch, "/orders/o1/status", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status %s: expected 200, got %d: %s", status, rec.Code, rec.Body.String())
			}
			var order domain.Order
			_ = json.NewDecoder(rec.Body).Decode(&order)
			if order.Status != status {
				t.Errorf("expected status %s, got %s", status, order.Status)
			}
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		repo := &fakeRepo{orders: map[string]*domain.Order{
			"o1": {ID: "o1", Status: domain.OrderStatusPending},
		}}
		_, mux := newTestHandler(repo, nil)

		req := httptest.NewRequest(http.MethodPatch, "/orders/o1/status", strings.NewReader(`{"status": "burnt"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if repo.orders["o1"].Status != domain.OrderStatusPending {
			t.Errorf("order must be unchanged, got %s", repo.orders["o1"].Status)
		}
	})

	t.Run("unknown order is 404", func(t *testing.T) {
		_, mux := newTestHandler(&fakeRepo{orders: map[string]*domain.Order{}}, nil)

		req := httptest.NewRequest(http.MethodPatch, "/orders/nope/status", strings.NewReader(`{"status": "ready"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleVerifyPayment(t *testing.T) {
	t.Run("reports the gateway result without touching the order", func(t *testing.T) {
		repo := &fakeRepo{orders: map[string]*domain.Order{
			"o1": {ID: "o1", Status: domain.OrderStatusPending, GatewayOrderID: "CF123"},
		}}
		verifier := &fakeVerifier{resp: &payment.VerifyPaymentResponse{
			OrderStatus:   "PAID",
			OrderAmount:   137,
			PaymentStatus: "SUCCESS",
		}}
		_, mux := newTestHandler(repo, verifier)

		req := httptest.NewRequest(http.MethodPost, "/orders/o1/verify", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp payment.VerifyPaymentResponse
		_ = json.NewDecoder(rec.Body).Decode(&resp)
		if resp.PaymentStatus != "SUCCESS" {
			t.Errorf("expected SUCCESS, got %s", resp.PaymentStatus)
		}
		if repo.orders["o1"].Status != domain.OrderStatusPending {
			t.Errorf("verify must not change the stored status, got %s", repo.orders["o1"].Status)
		}
	})

	t.Run("order without a gateway id is a conflict", func(t *testing.T) {
		repo := &fakeRepo{orders: map[string]*domain.Order{
			"o1": {ID: "o1", Status: domain.OrderStatusPending},
		}}
		_, mux := newTestHandler(repo, &fakeVerifier{})

		req := httptest.NewRequest(http.MethodPost, "/orders/o1/verify", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("expected status 409, got %d", rec.Code)
		}
	})

	t.Run("gateway failure is a bad gateway", func(t *testing.T) {
		repo := &fakeRepo{orders: map[string]*domain.Order{
			"o1": {ID: "o1", GatewayOrderID: "CF123"},
		}}
		verifier := &fakeVerifier{err: &payment.GatewayError{StatusCode: 503, Message: "down"}}
		_, mux := newTestHandler(repo, verifier)

		req := httptest.NewRequest(http.MethodPost, "/orders/o1/verify", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}
	})

	t.Run("unknown order is 404", func(t *testing.T) {
		_, mux := newTestHandler(&fakeRepo{orders: map[string]*domain.Order{}}, &fakeVerifier{})

		req := httptest.NewRequest(http.MethodPost, "/orders/nope/verify", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}
