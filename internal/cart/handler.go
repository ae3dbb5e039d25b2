package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/madraskitchen/canteen/internal/domain"
)

// SessionHeader carries the opaque cart key. It is per browser, not per
// student: whoever shares the device shares the cart.
const SessionHeader = "X-Session-Id"

type MenuLookup interface {
	GetByID(ctx context.Context, id string) (*domain.MenuItem, error)
}

type Handler struct {
	service *Service
	menu    MenuLookup
	logger  *slog.Logger
}

func NewHandler(service *Service, menu MenuLookup, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		menu:    menu,
		logger:  logger,
	}
}

type cartResponse struct {
	Items     []domain.CartItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  int64             `json:"subtotal"`
}

func newCartResponse(items []domain.CartItem) cartResponse {
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{
		Items:     items,
		ItemCount: ItemCount(items),
		Subtotal:  Subtotal(items),
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	items, err := h.service.Get(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(items))
}

type addItemRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	menuItem, err := h.menu.GetByID(r.Context(), req.ItemID)
	if err != nil {
		h.logger.Error("failed to look up menu item", "error", err, "item_id", req.ItemID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if menuItem == nil {
		h.writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	items, err := h.service.Add(r.Context(), sessionID, domain.CartItem{
		ID:       menuItem.ID,
		Name:     menuItem.Name,
		Price:    menuItem.Price,
		Quantity: req.Quantity,
		Image:    menuItem.Image,
		Category: menuItem.Category,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidQuantity) {
			h.writeError(w, http.StatusBadRequest, "quantity must be at least 1")
			return
		}
		h.logger.Error("failed to add cart item", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item added", "session_id", sessionID, "item_id", menuItem.ID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, newCartResponse(items))
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	itemID := r.PathValue("itemID")
	if itemID == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items, err := h.service.SetQuantity(r.Context(), sessionID, itemID, req.Quantity)
	if err != nil {
		h.logger.Error("failed to update cart quantity", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(items))
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	itemID := r.PathValue("itemID")
	if itemID == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	items, err := h.service.Remove(r.Context(), sessionID, itemID)
	if err != nil {
		h.logger.Error("failed to remove cart item", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(items))
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), sessionID); err != nil {
		h.logger.Error("failed to clear cart", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(nil))
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing "+SessionHeader+" header")
		return "", false
	}
	return sessionID, true
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
