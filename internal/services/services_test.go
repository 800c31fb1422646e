package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/diewo77/go-ppat/internal/db"
	"github.com/diewo77/go-ppat/internal/metrics"
	"github.com/diewo77/go-ppat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(d, false, ""))
	require.NoError(t, db.Seed(d, db.SeedOptions{}))
	return d
}

// serviceOf returns a seeded service of the given type slug.
func serviceOf(t *testing.T, d *gorm.DB, slug string) models.Service {
	t.Helper()
	var svc models.Service
	err := d.Where("service_type_id = (?)", d.Model(&models.ServiceType{}).Select("id").Where("slug = ?", slug)).
		Order("id").First(&svc).Error
	require.NoError(t, err)
	return svc
}

func newClient(t *testing.T, d *gorm.DB, nationalID string) models.Client {
	t.Helper()
	c := models.Client{Type: models.ClientIndividual, Name: "Budi " + nationalID, NationalID: nationalID}
	require.NoError(t, d.Create(&c).Error)
	return c
}

func newUser(t *testing.T, d *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	u := models.User{Email: email, Name: email, Password: "x", Role: role, IsActive: true}
	require.NoError(t, d.Create(&u).Error)
	return u
}

func createOrder(t *testing.T, s *OrderService, in OrderInput) *models.Order {
	t.Helper()
	o, err := s.Create(context.Background(), in)
	require.NoError(t, err)
	return o
}

// num reads a number out of a JSON column value.
func num(t *testing.T, v any) int64 {
	t.Helper()
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		require.NoError(t, err)
		return i
	case float64:
		return int64(n)
	case int64:
		return n
	}
	t.Fatalf("not a number: %#v", v)
	return 0
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assertViolation(t *testing.T, err error, field, code string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, code, verr.Violations[field], "violations: %v", verr.Violations)
}

// counterValue sums every series of a counter family in the registry.
func counterValue(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, s := range f.GetMetric() {
			total += s.GetCounter().GetValue()
		}
	}
	return total
}
