package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
	authz    Authorizer
}

func NewPaymentHandler(payments *services.PaymentService, authz Authorizer) *PaymentHandler {
	return &PaymentHandler{payments: payments, authz: authz}
}

// Add accepts JSON, or a multipart form carrying the fields and an optional "proof" image.
func (h *PaymentHandler) Add(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var (
		in    services.PaymentInput
		proof *services.Upload
	)
	if isMultipart(r) {
		if !parseMultipart(w, r, "proof") {
			return
		}
		defer r.MultipartForm.RemoveAll()
		amount, err := strconv.ParseInt(r.FormValue("amount"), 10, 64)
		if err != nil {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"amount": "invalid"})
			return
		}
		in = services.PaymentInput{
			Amount: amount,
			PaidAt: r.FormValue("paid_at"),
			Method: r.FormValue("method"),
			Note:   r.FormValue("note"),
		}
		f, hdr, err := r.FormFile("proof")
		switch {
		case err == nil:
			defer f.Close()
			proof = &services.Upload{Name: hdr.Filename, Reader: f}
		case !errors.Is(err, http.ErrMissingFile):
			httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"proof": "invalid"})
			return
		}
	} else if !decode(w, r, &in) {
		return
	}

	p, err := h.payments.Add(r.Context(), orderID, in, proof)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	paymentID, ok := pathID(w, r, "payment_id")
	if !ok {
		return
	}
	if !authorizeDelete(w, r, h.authz, "payment", nil) {
		return
	}
	if err := h.payments.Delete(r.Context(), orderID, paymentID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
