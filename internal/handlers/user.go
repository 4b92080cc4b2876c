package handlers

import (
	"net/http"

	"github.com/crucial707/sqlgate/internal/models"
	"github.com/crucial707/sqlgate/internal/repo"
)

const (
	defaultSkip  = 0
	defaultLimit = 100
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Repo *repo.UserRepo
}

// ==========================
// Create User
// ==========================
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input models.UserInput
	if !decodeBody(w, r, &input) {
		return
	}

	user, err := h.Repo.Create(r.Context(), *input.Email, *input.Username)
	if err != nil {
		writeDBError(w, r, err, http.StatusBadRequest)
		return
	}

	JSON(w, http.StatusOK, user)
}

// ==========================
// List Users
// ==========================
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var params models.ListParams
	var fields []FieldError

	skip, fe := queryInt(r, "skip", defaultSkip)
	if fe != nil {
		fields = append(fields, *fe)
	}
	limit, fe := queryInt(r, "limit", defaultLimit)
	if fe != nil {
		fields = append(fields, *fe)
	}
	if len(fields) > 0 {
		JSONError(w, r, http.StatusUnprocessableEntity, "validation_error", fields)
		return
	}

	params.Skip, params.Limit = skip, limit
	if !validStruct(w, r, &params) {
		return
	}

	users, err := h.Repo.List(r.Context(), params.Skip, params.Limit)
	if err != nil {
		writeDBError(w, r, err, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, users)
}

// ==========================
// Get User
// ==========================
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		writeDBError(w, r, err, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, user)
}

// ==========================
// Update User
// ==========================
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var input models.UserInput
	if !decodeBody(w, r, &input) {
		return
	}

	user, err := h.Repo.Update(r.Context(), id, *input.Email, *input.Username)
	if err != nil {
		writeDBError(w, r, err, http.StatusBadRequest)
		return
	}

	JSON(w, http.StatusOK, user)
}

// ==========================
// Delete User
// ==========================
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		writeDBError(w, r, err, http.StatusBadRequest)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
