// Package handlers exposes the domain services over HTTP/JSON. Handlers decode
// input, call one service operation and map its error to a response.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/diewo77/go-ppat/gate"
	"github.com/diewo77/go-ppat/httpx"
	"github.com/diewo77/go-ppat/internal/backup"
	"github.com/diewo77/go-ppat/internal/services"
)

// Authorizer decides actions on a loaded resource, such as a delete.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
}

// respondError maps a service error to its status and code.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *services.ValidationError
		dumpEr *backup.Error
	)
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Violations)
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, gate.ErrUnauthenticated):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
	case errors.Is(err, gate.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
	case errors.As(err, &dumpEr):
		slog.Error("backup failed", "exit_code", dumpEr.ExitCode, "err", err)
		httpx.JSONError(w, http.StatusBadGateway, "backup_failed", map[string]any{
			"exit_code": dumpEr.ExitCode,
			"message":   dumpEr.Error(),
		})
	case errors.Is(err, services.ErrTransactionFailed):
		slog.Error("transaction failed", "method", r.Method, "path", r.URL.Path, "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "transaction_failed", map[string]string{"message": err.Error()})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// decode reads the JSON body; a malformed body is a validation failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.Decode(r, dst); err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"_body": "invalid"})
		return false
	}
	return true
}

// pathID reads a numeric path value and answers 404 when it is not one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, ok := httpx.PathID(r, name)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	}
	return id, ok
}

// authorizeDelete runs the delete decision on the loaded resource before anything is written.
func authorizeDelete(w http.ResponseWriter, r *http.Request, authz Authorizer, resourceType string, resource any) bool {
	if err := authz.Authorize(r.Context(), gate.ActionDelete, resourceType, resource); err != nil {
		respondError(w, r, err)
		return false
	}
	return true
}

const (
	// multipartMemory is what ParseMultipartForm keeps in memory; the rest spills to disk.
	multipartMemory = 4 << 20
	// maxMultipartBody bounds a whole upload request. Per-file caps are enforced by the services.
	maxMultipartBody = 32 << 20
)

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseMultipart reads the form; failures are reported on field. Callers remove
// the temporary files with r.MultipartForm.RemoveAll.
func parseMultipart(w http.ResponseWriter, r *http.Request, field string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		code := "invalid"
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			code = "too_large"
		}
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{field: code})
		return false
	}
	return true
}
