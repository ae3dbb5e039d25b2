package students

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type Handler struct {
	repo     *StudentRepository
	sessions *SessionRepository
	logger   *slog.Logger
}

func NewHandler(repo *StudentRepository, sessions *SessionRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
	}
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" {
		h.writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	student, err := h.repo.Create(r.Context(), req.Name, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			h.writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("failed to register student", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("student registered", "student_id", student.ID)
	h.writeJSON(w, http.StatusCreated, student)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing student id")
		return
	}

	student, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get student", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if student == nil {
		h.writeError(w, http.StatusNotFound, "student not found")
		return
	}

	h.writeJSON(w, http.StatusOK, student)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing student id")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" {
		h.writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	student, err := h.repo.UpdateProfile(r.Context(), id, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			h.writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("failed to update profile", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if student == nil {
		h.writeError(w, http.StatusNotFound, "student not found")
		return
	}

	h.logger.Info("profile updated", "student_id", student.ID)
	h.writeJSON(w, http.StatusOK, student)
}

type loginRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Student   any    `json:"student"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" {
		h.writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	student, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to look up student", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if student == nil {
		h.writeError(w, http.StatusNotFound, "student not found")
		return
	}

	session, err := h.sessions.Create(r.Context(), student.ID)
	if err != nil {
		h.logger.Error("failed to create session", "error", err, "student_id", student.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("student logged in", "student_id", student.ID, "session_id", session.ID)
	h.writeJSON(w, http.StatusCreated, sessionResponse{SessionID: session.ID, Student: student})
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get session", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if session == nil {
		h.writeError(w, http.StatusNotFound, "session not found")
		return
	}

	student, err := h.repo.GetByID(r.Context(), session.StudentID)
	if err != nil {
		h.logger.Error("failed to get session student", "error", err, "id", session.StudentID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, sessionResponse{SessionID: session.ID, Student: student})
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
