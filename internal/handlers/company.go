package handlers

import (
	"net/http"

	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/services"
)

type CompanyHandler struct {
	company *services.CompanyService
	authz   Authorizer
}

func NewCompanyHandler(company *services.CompanyService, authz Authorizer) *CompanyHandler {
	return &CompanyHandler{company: company, authz: authz}
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.company.Get(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.CompanyInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.company.Update(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// SetLogo takes a multipart form with a "logo" image.
func (h *CompanyHandler) SetLogo(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, "logo") {
		return
	}
	defer r.MultipartForm.RemoveAll()
	f, hdr, err := r.FormFile("logo")
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"logo": "required"})
		return
	}
	defer f.Close()
	c, err := h.company.SetLogo(r.Context(), services.Upload{Name: hdr.Filename, Reader: f})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CompanyHandler) DeleteLogo(w http.ResponseWriter, r *http.Request) {
	c, err := h.company.Get(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !authorizeDelete(w, r, h.authz, "company", c) {
		return
	}
	c, err = h.company.DeleteLogo(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
