package config

import (
	"strings"
	"testing"
	"time"
)

func TestFacilityStoresParsing(t *testing.T) {
	cfg := &Config{
		AdminFacilityID: 1,
		FacilityDSNs:    "2=postgres://host-a/guayaquil; 3=postgres://host-b/cuenca",
	}

	stores, err := cfg.FacilityStores()
	if err != nil {
		t.Fatalf("FacilityStores: %v", err)
	}
	if len(stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(stores))
	}
	if stores[2] != "postgres://host-a/guayaquil" {
		t.Errorf("store 2 = %q", stores[2])
	}
	if stores[3] != "postgres://host-b/cuenca" {
		t.Errorf("store 3 = %q", stores[3])
	}
}

func TestFacilityStoresRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		dsns string
		want string
	}{
		{"missing separator", "2postgres://x", "not of the form"},
		{"non-numeric id", "two=postgres://x", "non-numeric"},
		{"duplicate id", "2=postgres://a;2=postgres://b", "twice"},
		{"admin facility", "1=postgres://hq", "administrative facility"},
		{"empty", " ; ; ", "no usable entries"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{AdminFacilityID: 1, FacilityDSNs: tc.dsns}
			_, err := cfg.FacilityStores()
			if err == nil {
				t.Fatalf("expected error for %q", tc.dsns)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestFacilityIDsSorted(t *testing.T) {
	cfg := &Config{
		AdminFacilityID: 1,
		FacilityDSNs:    "7=postgres://c;2=postgres://a;3=postgres://b",
	}
	ids := cfg.FacilityIDs()
	want := []int64{2, 3, 7}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestValidateRequiresAuthOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", FacilityFetchTimeout: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error without auth configuration")
	}

	cfg.JWTSigningKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate with signing key: %v", err)
	}
}

func TestValidateRequiresPositiveFetchTimeout(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero FACILITY_FETCH_TIMEOUT")
	}
	cfg.FacilityFetchTimeout = 5 * time.Second
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
