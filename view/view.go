// Package view renders the printable pages (invoice) from embedded templates.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-ppat/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	tplOnce sync.Once
	tpl     *template.Template
	tplErr  error

	langResolver = func(r *http.Request) string { return i18n.LangFromContext(r.Context()) }
)

// SetLangResolver allows the host app to provide a custom language resolver.
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// Funcs returns the template helpers bound to the request language.
func Funcs(lang string) template.FuncMap {
	return template.FuncMap{
		"t":      func(code string) string { return i18n.T(lang, code) },
		"lang":   func() string { return lang },
		"rupiah": Rupiah,
		"date":   Date,
		"year":   func() int { return time.Now().Year() },
		"add":    func(a, b int64) int64 { return a + b },
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

func templates() (*template.Template, error) {
	tplOnce.Do(func() {
		// parsed once with placeholder funcs; Render clones and rebinds per request
		tpl, tplErr = template.New("").Funcs(Funcs(i18n.DefaultLang)).ParseFS(templateFS, "templates/*.html")
	})
	return tpl, tplErr
}

// Render executes the named template into w. The output is buffered so a
// failing template never sends a partial page.
func Render(w http.ResponseWriter, r *http.Request, name string, data any) error {
	base, err := templates()
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(langResolver(r)))

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

// Rupiah formats minor units as "Rp 1.200.000".
func Rupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}

// Date formats a date as 02-01-2006; nil and zero times render empty.
func Date(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("02-01-2006")
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("02-01-2006")
	}
	return ""
}
