package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/madraskitchen/canteen/internal/domain"
	"github.com/madraskitchen/canteen/internal/payment"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, studentID string, status domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, gatewayOrderID string) (*payment.VerifyPaymentResponse, error)
}

type Handler struct {
	repo     Repository
	verifier PaymentVerifier
	logger   *slog.Logger
}

func NewHandler(repo Repository, verifier PaymentVerifier, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		verifier: verifier,
		logger:   logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("student_id")
	status := domain.OrderStatus(r.URL.Query().Get("status"))

	if status != "" && !domain.KnownStatus(status) {
		h.writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	orders, err := h.repo.List(r.Context(), studentID, status)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// HandleUpdateStatus is the staff action that moves an order through
// pending, preparing, ready, delivered. Any known status can be written at
// any time; skipping ahead or moving backwards is allowed on purpose.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !domain.KnownStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	order, err := h.repo.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.logger.Error("failed to update order status", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status, "token", order.Token)
	h.writeJSON(w, http.StatusOK, order)
}

// HandleVerifyPayment asks the gateway for its view of a gateway-paid
// order. The result goes back to the caller as-is; the stored status is
// never changed here.
func (h *Handler) HandleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if order.GatewayOrderID == "" {
		h.writeError(w, http.StatusConflict, "order was not paid through the gateway")
		return
	}

	result, err := h.verifier.VerifyPayment(r.Context(), order.GatewayOrderID)
	if err != nil {
		var gwErr *payment.GatewayError
		if errors.As(err, &gwErr) {
			h.logger.Error("payment verification failed", "error", err, "order_id", order.ID)
			h.writeError(w, http.StatusBadGateway, "payment gateway unavailable")
			return
		}
		h.logger.Error("failed to verify payment", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("payment verified", "order_id", order.ID, "payment_status", result.PaymentStatus)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
