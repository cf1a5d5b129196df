package handlers

import (
	"errors"
	"net/http"

	"github.com/Totarae/shortlinks/internal/model"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) authResponse(w http.ResponseWriter, user *model.User, token string) {
	h.Auth.SetCookie(w, token)
	writeJSON(w, http.StatusOK, model.AuthResponse{Token: token, User: model.NewUserView(user, false)})
}

// Register POST /user/new.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Please provide all data required"})
		return
	}

	user, token, err := h.Users.Register(r.Context(), req)
	if errors.Is(err, model.ErrUserExists) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "User exists"})
		return
	}
	if err != nil {
		h.fail(w, r, err, "Not found")
		return
	}
	h.authResponse(w, user, token)
}

// Login POST /user/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Please provide all data"})
		return
	}

	user, token, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, model.ErrBadCredentials) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "wrong email or password"})
		return
	}
	if err != nil {
		h.fail(w, r, err, "Not found")
		return
	}
	h.authResponse(w, user, token)
}

// Logout POST /user/logout.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.Auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Logging out"})
}

// Me GET /user/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	user, err := h.Users.Get(r.Context(), caller.ID)
	if err != nil {
		h.fail(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": model.NewUserView(user, true)})
}

// UpdateMe PATCH /user/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var upd model.ProfileUpdate
	if err := h.decode(r, &upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid profile data"})
		return
	}

	user, err := h.Users.UpdateProfile(r.Context(), caller.ID, upd)
	if err != nil {
		h.fail(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "Profile updated", "user": model.NewUserView(user, true)})
}

// ListUsers GET /user/users, только для администратора.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err, "Not found")
		return
	}
	views := make([]model.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, model.NewUserView(u, true))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

// UpdateUserRole PATCH /user/users/{id}/role.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req model.RoleUpdateRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid role"})
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid role"})
		return
	}

	user, err := h.Users.UpdateRole(r.Context(), chi.URLParam(r, "id"), role)
	if err != nil {
		h.fail(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "User role updated", "user": model.NewUserView(user, true)})
}

// DeleteUser DELETE /user/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.Users.DeleteUser(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "User deleted successfully"})
}
