package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/services"
	"github.com/diewo77/go-ppat/view"
)

type OrderHandler struct {
	orders   *services.OrderService
	invoices *services.InvoiceService
}

func NewOrderHandler(orders *services.OrderService, invoices *services.InvoiceService) *OrderHandler {
	return &OrderHandler{orders: orders, invoices: invoices}
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := httpx.Page(r)
	clientID, _ := strconv.ParseUint(q.Get("client_id"), 10, 64)
	res, err := h.orders.List(r.Context(), services.OrderFilter{
		Q:             q.Get("q"),
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
		ClientID:      uint(clientID),
		Page:          page,
		PerPage:       perPage,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.OrderInput
	if !decode(w, r, &in) {
		return
	}
	o, err := h.orders.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.OrderInput
	if !decode(w, r, &in) {
		return
	}
	o, err := h.orders.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

// Invoice answers the invoice view-model, or the printable page when the client asks for HTML.
func (h *OrderHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.Build(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, inv)
		return
	}
	if err := view.Render(w, r, "invoice.html", inv); err != nil {
		respondError(w, r, err)
	}
}
