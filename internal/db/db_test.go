package db

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/internal/config"
	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(d, false, ""); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

func TestSeedIdempotent(t *testing.T) {
	d := openTestDB(t)
	opts := SeedOptions{AdminEmail: "root@ppat.test", AdminPassword: "s3cret", AdminName: "Root"}
	if err := Seed(d, opts); err != nil {
		t.Fatal(err)
	}
	if err := Seed(d, opts); err != nil {
		t.Fatal(err)
	}

	var typeCount, companyCount, adminCount int64
	d.Model(&models.ServiceType{}).Count(&typeCount)
	d.Model(&models.Company{}).Count(&companyCount)
	d.Model(&models.User{}).Where("email = ?", opts.AdminEmail).Count(&adminCount)
	if typeCount != 3 {
		t.Fatalf("expected 3 service types got %d", typeCount)
	}
	if companyCount != 1 {
		t.Fatalf("expected exactly one company got %d", companyCount)
	}
	if adminCount != 1 {
		t.Fatalf("expected exactly one admin got %d", adminCount)
	}

	var ajb models.Service
	if err := d.Preload("ServiceType").Where("name = ?", "Akta Jual Beli (AJB)").First(&ajb).Error; err != nil {
		t.Fatalf("AJB missing: %v", err)
	}
	if !ajb.IsPPAT() {
		t.Fatalf("AJB should belong to the ppat type")
	}
	var c int64
	d.Model(&models.Service{}).Where("name = ?", "Akta Jual Beli (AJB)").Count(&c)
	if c != 1 {
		t.Fatalf("baseline service duplicated or missing: %d", c)
	}

	var admin models.User
	d.Where("email = ?", opts.AdminEmail).First(&admin)
	if admin.Role != models.RoleSuperAdmin || !auth.CheckPassword(admin.Password, "s3cret") {
		t.Fatalf("admin not seeded correctly: %+v", admin)
	}
}

func TestSeedAdminRequiresPassword(t *testing.T) {
	d := openTestDB(t)
	if err := Seed(d, SeedOptions{AdminEmail: "x@test"}); err == nil {
		t.Fatal("expected error without admin password")
	}
}

func TestNormalizeDSN(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{`"postgres://u:p@h/db"`, "postgres://u:p@h/db"},
		{"host=h  user=u dbname=d", "host=h user=u dbname=d sslmode=disable"},
		{"host=h user=u dbname=d sslmode=require", "host=h user=u dbname=d sslmode=require"},
	}
	for _, c := range cases {
		if got := NormalizeDSN(c.in); got != c.want {
			t.Errorf("NormalizeDSN(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestToURLDSN(t *testing.T) {
	got := ToURLDSN("host=db port=5432 user=ppat password=pw dbname=ppat sslmode=disable")
	want := "postgres://ppat:pw@db:5432/ppat?sslmode=disable"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestMaskDSN(t *testing.T) {
	if got := MaskDSN("host=h password=secret dbname=d"); got != "host=h password=*** dbname=d" {
		t.Errorf("kv mask: %q", got)
	}
	if got := MaskDSN("postgres://u:secret@h/db"); strings.Contains(got, "secret") {
		t.Errorf("url mask leaked password: %q", got)
	}
}

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"ppat.db":                         "ppat.db?_foreign_keys=1",
		"file:x?mode=memory&cache=shared": "file:x?mode=memory&cache=shared&_foreign_keys=1",
		"file:x?_foreign_keys=0":          "file:x?_foreign_keys=0",
		"file:x?mode=memory&_fk=1":        "file:x?mode=memory&_fk=1",
	}
	for in, want := range cases {
		if got := SQLiteDSN(in); got != want {
			t.Fatalf("SQLiteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenSQLiteForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		DBName: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := d.DB()
	if err != nil {
		t.Fatal(err)
	}
	defer sqlDB.Close()

	// hold several connections at once so the pool has to open new ones
	for i := 0; i < 3; i++ {
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		var on int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
			t.Fatal(err)
		}
		if on != 1 {
			t.Fatalf("connection %d: foreign_keys = %d", i, on)
		}
	}
}
