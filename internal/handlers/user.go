package handlers

import (
	"net/http"

	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/services"
)

type UserHandler struct {
	users *services.UserService
	authz Authorizer
}

func NewUserHandler(users *services.UserService, authz Authorizer) *UserHandler {
	return &UserHandler{users: users, authz: authz}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httpx.Page(r)
	res, err := h.users.List(r.Context(), r.URL.Query().Get("q"), page, perPage)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.UserInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.users.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.UserInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.users.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

// Delete is decided on the loaded user so that nobody can delete themselves.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !authorizeDelete(w, r, h.authz, "user", u) {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
