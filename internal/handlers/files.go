package handlers

import (
	"net/http"
	"os"
	"path"

	"github.com/diewo77/go-ppat/httpx"
)

// FileOpener opens stored artifacts by their relative path.
type FileOpener interface {
	Open(rel string) (*os.File, error)
}

type FileHandler struct {
	store FileOpener
}

func NewFileHandler(store FileOpener) *FileHandler {
	return &FileHandler{store: store}
}

// Download serves a stored file to an authenticated user.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")
	f, err := h.store.Open(rel)
	if err != nil {
		// invalid paths are reported the same as missing ones
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil || st.IsDir() {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, path.Base(rel), st.ModTime(), f)
}
