package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// CreateUser создаёт пользователя и его анкету.
// POST /api/v1/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Email, customStepsFromDefs(req.CustomSteps))
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Created(w, UserFromDomain(*user))
}

// ListUsers возвращает список пользователей.
// GET /api/v1/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.service.ListUsers()

	result := make([]UserResponse, len(users))
	for i, u := range users {
		result[i] = UserFromDomain(u)
	}

	List(w, result, len(result))
}

// GetUser возвращает пользователя со статусом анкеты.
// GET /api/v1/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	user, err := h.service.GetUser(id)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	status, err := h.service.FlowStatus(id)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, UserDetailResponse{
		UserID:     user.ID,
		Email:      user.Email,
		FlowStatus: status.String(),
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	})
}

// UpdateEmail меняет email пользователя.
// PATCH /api/v1/users/{id}/email
func (h *Handler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	var req UpdateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	err = h.service.UpdateEmail(r.Context(), id, req.Email)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, MessageResponse{Message: "Email updated successfully"})
}

// DeleteUser удаляет пользователя вместе с анкетой.
// DELETE /api/v1/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	err = h.service.DeleteUser(r.Context(), id)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, MessageResponse{Message: "User deleted"})
}
