package gate_test

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-ppat/gate"
)

func TestCachedResolver_CachesProfile(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.NewStaticProfile("staff"))
	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)

	p1, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1.Name() != "staff" {
		t.Errorf("expected 'staff', got '%s'", p1.Name())
	}

	inner.Set(1, gate.NewStaticProfile("admin"))
	p2, _ := cached.Resolve(context.Background(), 1)
	if p2.Name() != "staff" {
		t.Errorf("expected cached 'staff', got '%s'", p2.Name())
	}
}

func TestCachedResolver_Invalidate(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.NewStaticProfile("staff"))
	inner.Set(2, gate.NewStaticProfile("bos"))
	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)
	_, _ = cached.Resolve(context.Background(), 1)
	_, _ = cached.Resolve(context.Background(), 2)

	inner.Set(1, gate.NewStaticProfile("admin"))
	inner.Set(2, gate.NewStaticProfile("admin"))

	cached.Invalidate(1)
	if p, _ := cached.Resolve(context.Background(), 1); p.Name() != "admin" {
		t.Errorf("expected 'admin' after invalidation, got '%s'", p.Name())
	}
	if p, _ := cached.Resolve(context.Background(), 2); p.Name() != "bos" {
		t.Errorf("user 2 should still be cached, got '%s'", p.Name())
	}

	cached.InvalidateAll()
	if p, _ := cached.Resolve(context.Background(), 2); p.Name() != "admin" {
		t.Errorf("expected 'admin' after InvalidateAll, got '%s'", p.Name())
	}
}

func TestCachedResolver_TTLExpiry(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.NewStaticProfile("staff"))
	cached := gate.NewCachedResolver[uint](inner, 10*time.Millisecond)
	_, _ = cached.Resolve(context.Background(), 1)

	inner.Set(1, gate.NewStaticProfile("admin"))
	time.Sleep(20 * time.Millisecond)

	if p, _ := cached.Resolve(context.Background(), 1); p.Name() != "admin" {
		t.Errorf("expected 'admin' after TTL expiry, got '%s'", p.Name())
	}
}
