package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("fr-FR,id;q=0.8") != "id" {
		t.Fatalf("expected id from second choice")
	}
	if DetectLanguage("") != "id" {
		t.Fatalf("expected default id")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("id", "required") != "Wajib diisi" {
		t.Fatalf("expected Wajib diisi")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to id translation if exists
	if T("es", "required") != "Wajib diisi" {
		t.Fatalf("expected id fallback for es lang")
	}
}

func TestLangContext(t *testing.T) {
	if LangFromContext(context.Background()) != DefaultLang {
		t.Fatalf("expected default language")
	}
	if LangFromContext(WithLang(context.Background(), "en")) != "en" {
		t.Fatalf("expected en from context")
	}
}
