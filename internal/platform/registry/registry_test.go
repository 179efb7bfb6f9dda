package registry

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestResolveAdminFacilityHasNoStore(t *testing.T) {
	r := NewWithPools(map[int64]*pgxpool.Pool{2: nil, 3: nil}, 1)

	pool, ok, err := r.Resolve(1)
	if err != nil {
		t.Fatalf("Resolve(admin): %v", err)
	}
	if ok {
		t.Fatal("admin facility must not resolve to a store")
	}
	if pool != nil {
		t.Fatal("admin facility must resolve to a nil pool")
	}
}

func TestResolveRegisteredFacility(t *testing.T) {
	r := NewWithPools(map[int64]*pgxpool.Pool{2: nil}, 1)

	_, ok, err := r.Resolve(2)
	if err != nil {
		t.Fatalf("Resolve(2): %v", err)
	}
	if !ok {
		t.Fatal("facility 2 should resolve")
	}
}

func TestResolveUnknownFacility(t *testing.T) {
	r := NewWithPools(map[int64]*pgxpool.Pool{2: nil}, 1)

	_, ok, err := r.Resolve(99)
	if ok {
		t.Fatal("unknown facility must not resolve")
	}
	var ufe *UnknownFacilityError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected UnknownFacilityError, got %v", err)
	}
	if ufe.FacilityID != 99 {
		t.Errorf("FacilityID = %d, want 99", ufe.FacilityID)
	}
}

func TestFacilityIDsSorted(t *testing.T) {
	r := NewWithPools(map[int64]*pgxpool.Pool{7: nil, 2: nil, 5: nil}, 1)

	ids := r.FacilityIDs()
	want := []int64{2, 5, 7}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}
