package handlers

import (
	"net/http"

	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/services"
)

type ScheduleHandler struct {
	schedules *services.ScheduleService
	authz     Authorizer
}

func NewScheduleHandler(schedules *services.ScheduleService, authz Authorizer) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, authz: authz}
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httpx.Page(r)
	res, err := h.schedules.List(r.Context(), page, perPage)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// Notifications lists the entries starting within the notification window.
func (h *ScheduleHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.schedules.Upcoming(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sc, err := h.schedules.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sc)
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ScheduleInput
	if !decode(w, r, &in) {
		return
	}
	sc, err := h.schedules.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sc)
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.ScheduleInput
	if !decode(w, r, &in) {
		return
	}
	sc, err := h.schedules.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sc)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sc, err := h.schedules.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !authorizeDelete(w, r, h.authz, "schedule", sc) {
		return
	}
	if err := h.schedules.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
