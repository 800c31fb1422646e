// Package i18n holds the UI strings of printable pages and error codes.
// Indonesian is the default language; English is the only other one.
package i18n

import (
	"context"
	"strings"
)

const DefaultLang = "id"

type ctxKey struct{}

var messages = map[string]map[string]string{
	"id": {
		"required":           "Wajib diisi",
		"invalid":            "Tidak valid",
		"too_small":          "Nilai terlalu kecil",
		"below_minimum":      "Di bawah jumlah minimum",
		"not_found":          "Data tidak ditemukan",
		"forbidden":          "Anda tidak memiliki akses",
		"invoice":            "Invoice",
		"invoice_number":     "No. Invoice",
		"order_number":       "No. Order",
		"date":               "Tanggal",
		"client":             "Klien",
		"service":            "Layanan",
		"service_price":      "Biaya Jasa",
		"tax_deposit":        "Titipan Pajak",
		"total":              "Total",
		"paid":               "Dibayar",
		"balance":            "Sisa Tagihan",
		"payments":           "Pembayaran",
		"method":             "Metode",
		"amount":             "Jumlah",
		"status_unpaid":      "Belum Lunas",
		"status_partial":     "Sebagian",
		"status_paid":        "Lunas",
		"bank_transfer_to":   "Transfer ke",
		"seller":             "Penjual",
		"buyer":              "Pembeli",
		"certificate_number": "No. Sertipikat",
		"transaction_value":  "Nilai Transaksi",
		"no_payments":        "Belum ada pembayaran",
		"description":        "Keterangan",
	},
	"en": {
		"required":           "Required",
		"invalid":            "Invalid",
		"too_small":          "Value too small",
		"below_minimum":      "Below the minimum amount",
		"not_found":          "Not found",
		"forbidden":          "You are not allowed to do this",
		"invoice":            "Invoice",
		"invoice_number":     "Invoice No.",
		"order_number":       "Order No.",
		"date":               "Date",
		"client":             "Client",
		"service":            "Service",
		"service_price":      "Service fee",
		"tax_deposit":        "Tax deposit",
		"total":              "Total",
		"paid":               "Paid",
		"balance":            "Balance due",
		"payments":           "Payments",
		"method":             "Method",
		"amount":             "Amount",
		"status_unpaid":      "Unpaid",
		"status_partial":     "Partially paid",
		"status_paid":        "Paid",
		"bank_transfer_to":   "Transfer to",
		"seller":             "Seller",
		"buyer":              "Buyer",
		"certificate_number": "Certificate No.",
		"transaction_value":  "Transaction value",
		"no_payments":        "No payments yet",
		"description":        "Description",
	},
}

// T translates a code. Unknown languages fall back to Indonesian and unknown
// codes are returned unchanged.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if _, ok := messages[base]; ok {
			return base
		}
	}
	return DefaultLang
}

func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(ctxKey{}).(string); ok && l != "" {
		return l
	}
	return DefaultLang
}
