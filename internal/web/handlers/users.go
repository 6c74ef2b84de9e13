package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-enroll/internal/constants"
	"github.com/kozaktomas/face-enroll/internal/enrollment"
	"github.com/kozaktomas/face-enroll/internal/faceapi"
)

// UserDirectory is the user administration part of the face service
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]faceapi.UserRecord, error)
	GetUser(ctx context.Context, id int64) (*faceapi.UserRecord, error)
	DeleteUser(ctx context.Context, id int64) (*faceapi.Confirmation, error)
	UpdateUserStatus(ctx context.Context, id int64, status string) (*faceapi.Confirmation, error)
}

// UsersHandler handles enrolled user endpoints
type UsersHandler struct {
	users    UserDirectory
	registry *enrollment.Registry
	logger   *zap.Logger
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(users UserDirectory, registry *enrollment.Registry, logger *zap.Logger) *UsersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersHandler{users: users, registry: registry, logger: logger}
}

// UsersResponse is the user list response
type UsersResponse struct {
	Count int                  `json:"count"`
	Users []faceapi.UserRecord `json:"users"`
}

// List returns all enrolled users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.logger.Warn("listing users failed", zap.Error(err))
		respondFailure(w, err)
		return
	}
	if users == nil {
		users = []faceapi.UserRecord{}
	}
	respondJSON(w, http.StatusOK, UsersResponse{Count: len(users), Users: users})
}

// Get returns a single user
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Delete removes a user on the backend and forgets it locally
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	conf, err := h.users.DeleteUser(r.Context(), id)
	if err != nil {
		respondFailure(w, err)
		return
	}
	if h.registry != nil {
		h.registry.Forget(id)
	}
	h.logger.Info("user deleted", zap.Int64("user_id", id))
	respondJSON(w, http.StatusOK, conf)
}

// UpdateStatusRequest is the body of a status change
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus sets a user active or inactive
func (h *UsersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Status != constants.StatusActive && req.Status != constants.StatusInactive {
		respondError(w, http.StatusBadRequest, "status must be active or inactive")
		return
	}
	conf, err := h.users.UpdateUserStatus(r.Context(), id, req.Status)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conf)
}

// SessionEnrollments lists the enrollments made by this process
func (h *UsersHandler) SessionEnrollments(w http.ResponseWriter, r *http.Request) {
	entries := []enrollment.Entry{}
	if h.registry != nil {
		entries = h.registry.Entries()
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":       len(entries),
		"enrollments": entries,
	})
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}
