package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/audit"
	"github.com/diewo77/go-ppat/internal/services"
)

// ReportHandler serves the read-only aggregate views.
type ReportHandler struct {
	reports *services.ReportService
	search  *services.SearchService
	feed    *audit.Feed
}

func NewReportHandler(reports *services.ReportService, search *services.SearchService, feed *audit.Feed) *ReportHandler {
	return &ReportHandler{reports: reports, search: search, feed: feed}
}

func queryUint(r *http.Request, name string) uint {
	n, _ := strconv.ParseUint(r.URL.Query().Get(name), 10, 64)
	return uint(n)
}

func (h *ReportHandler) Orders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rep, err := h.reports.Orders(r.Context(), services.ReportFilter{
		From:          q.Get("from"),
		To:            q.Get("to"),
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
		ServiceTypeID: queryUint(r, "service_type_id"),
		ClientID:      queryUint(r, "client_id"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.Dashboard(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *ReportHandler) Search(w http.ResponseWriter, r *http.Request) {
	res, err := h.search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// Activity lists the audit feed, newest first.
func (h *ReportHandler) Activity(w http.ResponseWriter, r *http.Request) {
	page, perPage := httpx.Page(r)
	res, err := h.feed.List(r.Context(), audit.FeedFilter{
		SubjectType: r.URL.Query().Get("subject_type"),
		SubjectID:   queryUint(r, "subject_id"),
		CauserID:    queryUint(r, "causer_id"),
	}, page, perPage)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
