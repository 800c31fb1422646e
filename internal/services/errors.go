package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/diewo77/go-ppat/internal/storage"
	"github.com/diewo77/go-ppat/validation"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransactionFailed wraps any unexpected failure inside a write; the write was rolled back.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrInvalidCredentials is returned by Authenticate.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries field level codes; nothing was written.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f, c := range e.Violations {
		fields = append(fields, f+"="+c)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

func invalid(field, code string) error {
	return &ValidationError{Violations: validation.Violations{field: code}}
}

func check(in any) error {
	if v := validation.Struct(in); !v.Empty() {
		return &ValidationError{Violations: v}
	}
	return nil
}

// wrapTx passes domain errors through and marks everything else as a failed transaction.
func wrapTx(err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransactionFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// uploadError turns storage rejections into field violations.
func uploadError(field string, err error) error {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return invalid(field, "too_large")
	case errors.Is(err, storage.ErrNotAnImage):
		return invalid(field, "not_an_image")
	case errors.Is(err, storage.ErrExtension):
		return invalid(field, "file_type_not_allowed")
	}
	return err
}
