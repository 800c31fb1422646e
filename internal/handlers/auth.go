package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/gate"
	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/models"
	"github.com/diewo77/go-ppat/internal/services"
	"github.com/diewo77/go-ppat/validation"
)

// PermissionLister lists what a role may do, for the /me payload.
type PermissionLister func(role models.Role) []gate.Permission

type AuthHandler struct {
	users       *services.UserService
	permissions PermissionLister
}

func NewAuthHandler(users *services.UserService, permissions PermissionLister) *AuthHandler {
	return &AuthHandler{users: users, permissions: permissions}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the credentials, sets the session cookie and also returns the
// token for clients that send it as a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	token, err := auth.IssueToken(user.ID, time.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := auth.CreateSession(w, user.ID); err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user with the permissions of their role.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	user, err := h.users.Get(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	perms := []gate.Permission{}
	if h.permissions != nil {
		perms = append(perms, h.permissions(user.Role)...)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user, "permissions": perms})
}
