package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/diewo77/go-ppat/internal/backup"
	"github.com/diewo77/go-ppat/internal/metrics"
)

// Dumper produces a database dump file owned by the caller.
type Dumper interface {
	Dump(ctx context.Context) (string, error)
}

type BackupHandler struct {
	dumper  Dumper
	metrics *metrics.Metrics
}

func NewBackupHandler(dumper Dumper, m *metrics.Metrics) *BackupHandler {
	return &BackupHandler{dumper: dumper, metrics: m}
}

// Download dumps the database and streams the file; the dump is removed after
// sending or on failure.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	p, err := h.dumper.Dump(r.Context())
	if err != nil {
		h.metrics.Backup(false)
		respondError(w, r, err)
		return
	}
	defer os.Remove(p)

	f, err := os.Open(p)
	if err != nil {
		h.metrics.Backup(false)
		respondError(w, r, err)
		return
	}
	defer f.Close()
	if st, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(st.Size(), 10))
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+backup.FileName(time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		h.metrics.Backup(false)
		slog.Warn("backup download interrupted", "err", err)
		return
	}
	h.metrics.Backup(true)
}
