package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/services"
)

type ExpenseHandler struct {
	expenses *services.ExpenseService
	authz    Authorizer
}

func NewExpenseHandler(expenses *services.ExpenseService, authz Authorizer) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, authz: authz}
}

func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := httpx.Page(r)
	orderID, _ := strconv.ParseUint(q.Get("order_id"), 10, 64)
	res, err := h.expenses.List(r.Context(), services.ExpenseFilter{
		From:     q.Get("from"),
		To:       q.Get("to"),
		Category: q.Get("category"),
		OrderID:  uint(orderID),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.expenses.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ExpenseInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.expenses.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.ExpenseInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.expenses.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.expenses.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !authorizeDelete(w, r, h.authz, "expense", e) {
		return
	}
	if err := h.expenses.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
