package menu

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	repo   *MenuRepository
	logger *slog.Logger
}

func NewHandler(repo *MenuRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	items, err := h.repo.List(r.Context(), category)
	if err != nil {
		h.logger.Error("failed to list menu", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	item, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get menu item", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if item == nil {
		h.writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
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
