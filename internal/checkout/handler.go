package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/madraskitchen/canteen/internal/cart"
	"github.com/madraskitchen/canteen/internal/payment"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method"`
	UPIID         string `json:"upi_id"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(cart.SessionHeader)
	if sessionID == "" {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.Checkout(r.Context(), sessionID, req.PaymentMethod, req.UPIID)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) respondCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, ErrEmptyCart):
		h.writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, ErrInsufficientBalance):
		h.writeError(w, http.StatusPaymentRequired, "insufficient balance")
	case errors.Is(err, ErrMissingUPIID):
		h.writeError(w, http.StatusBadRequest, "upi id is required")
	case errors.Is(err, ErrUnknownPaymentMethod):
		h.writeError(w, http.StatusBadRequest, "unknown payment method")
	default:
		var gwErr *payment.GatewayError
		if errors.As(err, &gwErr) {
			h.logger.Error("payment gateway error during checkout", "error", err)
			h.writeError(w, http.StatusBadGateway, "payment gateway unavailable")
			return
		}
		h.logger.Error("checkout failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
