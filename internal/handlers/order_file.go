package handlers

import (
	"net/http"

	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/services"
)

type OrderFileHandler struct {
	files *services.OrderFileService
	authz Authorizer
}

func NewOrderFileHandler(files *services.OrderFileService, authz Authorizer) *OrderFileHandler {
	return &OrderFileHandler{files: files, authz: authz}
}

// Add takes a multipart form with "file" and an optional "category".
func (h *OrderFileHandler) Add(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !parseMultipart(w, r, "file") {
		return
	}
	defer r.MultipartForm.RemoveAll()
	f, hdr, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"file": "required"})
		return
	}
	defer f.Close()

	file, err := h.files.Add(r.Context(), orderID, r.FormValue("category"), services.Upload{Name: hdr.Filename, Reader: f})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, file)
}

func (h *OrderFileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	fileID, ok := pathID(w, r, "file_id")
	if !ok {
		return
	}
	file, err := h.files.Find(r.Context(), orderID, fileID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !authorizeDelete(w, r, h.authz, "order_file", file) {
		return
	}
	if err := h.files.Delete(r.Context(), orderID, fileID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
