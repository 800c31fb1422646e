package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/internal/backup"
	"github.com/diewo77/go-ppat/internal/db"
	"github.com/diewo77/go-ppat/internal/handlers"
	"github.com/diewo77/go-ppat/internal/metrics"
	"github.com/diewo77/go-ppat/internal/models"
	"github.com/diewo77/go-ppat/internal/policy"
	"github.com/diewo77/go-ppat/internal/services"
	"github.com/diewo77/go-ppat/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db  *gorm.DB
	cfg *policy.RouterConfig
	mux *http.ServeMux
}

func setup(t *testing.T, dumper handlers.Dumper) *fixture {
	t.Helper()
	d, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(d, false, ""))
	require.NoError(t, db.Seed(d, db.SeedOptions{}))

	cfg := policy.NewRouterConfig(d, policy.RouterOptions{
		Store:   storage.NewLocal(t.TempDir()),
		Metrics: metrics.New(),
		Limits:  services.DefaultLimits,
		Dumper:  dumper,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", cfg.AuthHandler.Login)
	mux.Handle("GET /me", auth.RequireAuth(http.HandlerFunc(cfg.AuthHandler.Me)))
	mux.HandleFunc("POST /clients", cfg.ClientHandler.Create)
	mux.HandleFunc("GET /clients/{id}", cfg.ClientHandler.Get)
	mux.HandleFunc("DELETE /clients/{id}", cfg.ClientHandler.Delete)
	mux.HandleFunc("DELETE /users/{id}", cfg.UserHandler.Delete)
	mux.HandleFunc("POST /orders", cfg.OrderHandler.Create)
	mux.HandleFunc("GET /orders/{id}/invoice", cfg.OrderHandler.Invoice)
	mux.HandleFunc("POST /orders/{id}/payments", cfg.PaymentHandler.Add)
	mux.HandleFunc("GET /backup", cfg.BackupHandler.Download)
	return &fixture{db: d, cfg: cfg, mux: mux}
}

func (f *fixture) user(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	u, err := f.cfg.UserService.Create(context.Background(), services.UserInput{
		Name: email, Email: email, Password: "rahasia123", Role: string(role),
	})
	require.NoError(t, err)
	return u
}

// do runs a request as the given user; uid 0 is anonymous.
func (f *fixture) do(t *testing.T, uid uint, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	if uid != 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), uid))
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestLogin(t *testing.T) {
	f := setup(t, nil)
	f.user(t, "admin@kantor.test", models.RoleAdmin)

	rec := f.do(t, 0, "POST", "/login", map[string]string{"email": "ADMIN@kantor.test", "password": "rahasia123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, rec.Result().Cookies())

	rec = f.do(t, 0, "POST", "/login", map[string]string{"email": "admin@kantor.test", "password": "salah"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["error"])

	rec = f.do(t, 0, "POST", "/login", map[string]string{"email": "admin@kantor.test"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, map[string]any{"password": "required"}, decodeBody(t, rec)["details"])
}

func TestMe_ListsRolePermissions(t *testing.T) {
	f := setup(t, nil)
	bos := f.user(t, "bos@kantor.test", models.RoleBos)

	rec := f.do(t, 0, "GET", "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, bos.ID, "GET", "/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	perms, ok := decodeBody(t, rec)["permissions"].([]any)
	require.True(t, ok)
	assert.Contains(t, perms, "report:report")
	assert.NotContains(t, perms, "client:delete")
}

func TestUserDelete_Authorization(t *testing.T) {
	f := setup(t, nil)
	root := f.user(t, "root@kantor.test", models.RoleSuperAdmin)
	bos := f.user(t, "bos@kantor.test", models.RoleBos)
	staff := f.user(t, "staff@kantor.test", models.RoleStaff)

	rec := f.do(t, 0, "DELETE", fmt.Sprintf("/users/%d", staff.ID), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, bos.ID, "DELETE", fmt.Sprintf("/users/%d", staff.ID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeBody(t, rec)["error"])
	_, err := f.cfg.UserService.Get(context.Background(), staff.ID)
	require.NoError(t, err, "a denied delete writes nothing")

	rec = f.do(t, root.ID, "DELETE", fmt.Sprintf("/users/%d", root.ID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, root.ID, "DELETE", fmt.Sprintf("/users/%d", staff.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err = f.cfg.UserService.Get(context.Background(), staff.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	rec = f.do(t, root.ID, "DELETE", fmt.Sprintf("/users/%d", staff.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClient_ErrorMapping(t *testing.T) {
	f := setup(t, nil)
	admin := f.user(t, "admin@kantor.test", models.RoleAdmin)

	rec := f.do(t, admin.ID, "POST", "/clients", map[string]string{"type": "robot", "national_id": "3201"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "validation_failed", body["error"])
	assert.Equal(t, map[string]any{"type": "invalid_choice", "name": "required"}, body["details"])

	rec = f.do(t, admin.ID, "POST", "/clients", map[string]string{"bogus": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, admin.ID, "GET", "/clients/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["error"])

	rec = f.do(t, admin.ID, "GET", "/clients/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, admin.ID, "POST", "/clients", map[string]string{"type": "individual", "name": "Siti", "national_id": "3201"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := uint(decodeBody(t, rec)["id"].(float64))

	// admins hold no delete rights
	rec = f.do(t, admin.ID, "DELETE", fmt.Sprintf("/clients/%d", id), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(t, admin.ID, "GET", fmt.Sprintf("/clients/%d", id), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func createOrder(t *testing.T, f *fixture, uid uint) uint {
	t.Helper()
	client := models.Client{Type: models.ClientIndividual, Name: "Budi", NationalID: "3202"}
	require.NoError(t, f.db.Create(&client).Error)
	var svc models.Service
	require.NoError(t, f.db.Order("id").First(&svc).Error)

	rec := f.do(t, uid, "POST", "/orders", map[string]any{
		"client_id": client.ID, "service_id": svc.ID,
		"service_price": 1000000, "tax_deposit": 200000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint(decodeBody(t, rec)["id"].(float64))
}

func TestPaymentAndInvoice(t *testing.T) {
	f := setup(t, nil)
	staff := f.user(t, "staff@kantor.test", models.RoleStaff)
	orderID := createOrder(t, f, staff.ID)

	rec := f.do(t, staff.ID, "POST", fmt.Sprintf("/orders/%d/payments", orderID), map[string]any{
		"amount": 500000, "paid_at": "2024-03-05", "method": "transfer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, staff.ID, "POST", fmt.Sprintf("/orders/%d/payments", orderID), map[string]any{
		"amount": 10, "paid_at": "2024-03-05", "method": "transfer",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, staff.ID, "GET", fmt.Sprintf("/orders/%d/invoice", orderID), nil, "Accept", "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	inv := decodeBody(t, rec)
	assert.EqualValues(t, 1200000, inv["total"])
	assert.EqualValues(t, 500000, inv["total_paid"])
	assert.EqualValues(t, 700000, inv["balance"])
	number, _ := inv["number"].(string)
	require.NotEmpty(t, number)

	rec = f.do(t, staff.ID, "GET", fmt.Sprintf("/orders/%d/invoice", orderID), nil, "Accept", "text/html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), number)
	assert.Contains(t, rec.Body.String(), "Rp 1.200.000")

	rec = f.do(t, staff.ID, "GET", "/orders/999/invoice", nil, "Accept", "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeDumper struct {
	path string
	err  error
}

func (d fakeDumper) Dump(context.Context) (string, error) { return d.path, d.err }

func TestBackup_FailureCarriesExitCode(t *testing.T) {
	f := setup(t, fakeDumper{err: &backup.Error{ExitCode: 1, Stderr: "connection refused"}})
	root := f.user(t, "root@kantor.test", models.RoleSuperAdmin)

	rec := f.do(t, root.ID, "GET", "/backup", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "backup_failed", body["error"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, details["exit_code"])
	assert.Contains(t, details["message"], "connection refused")
}

func TestBackup_StreamsAndRemovesDump(t *testing.T) {
	p := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, os.WriteFile(p, []byte("PGDMP"), 0o600))
	f := setup(t, fakeDumper{path: p})
	root := f.user(t, "root@kantor.test", models.RoleSuperAdmin)

	rec := f.do(t, root.ID, "GET", "/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PGDMP", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="ppat-backup-`)
	assert.NoFileExists(t, p)
}
