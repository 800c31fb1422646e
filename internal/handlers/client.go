package handlers

import (
	"net/http"

	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/services"
)

type ClientHandler struct {
	clients *services.ClientService
	authz   Authorizer
}

func NewClientHandler(clients *services.ClientService, authz Authorizer) *ClientHandler {
	return &ClientHandler{clients: clients, authz: authz}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httpx.Page(r)
	res, err := h.clients.List(r.Context(), r.URL.Query().Get("q"), page, perPage)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.clients.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.clients.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.clients.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.clients.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !authorizeDelete(w, r, h.authz, "client", c) {
		return
	}
	if err := h.clients.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
