package auth

import (
	"errors"
	"testing"
)

func int64p(v int64) *int64 { return &v }

func claimsFor(sub, role string, facilityID *int64) *Claims {
	c := &Claims{Role: role, FacilityID: facilityID}
	c.Subject = sub
	return c
}

func TestResolveIdentityVariants(t *testing.T) {
	cases := []struct {
		name   string
		claims *Claims
		want   Caller
	}{
		{
			name:   "physician bound to facility",
			claims: claimsFor("42", RolePhysician, int64p(2)),
			want:   FacilityBoundStaff{StaffID: 42, Role: RolePhysician, FacilityID: 2},
		},
		{
			name:   "admin bound to facility",
			claims: claimsFor("7", RoleAdmin, int64p(3)),
			want:   FacilityBoundStaff{StaffID: 7, Role: RoleAdmin, FacilityID: 3},
		},
		{
			name:   "admin without facility",
			claims: claimsFor("7", RoleAdmin, nil),
			want:   FacilitylessAdmin{StaffID: 7},
		},
		{
			name:   "patient",
			claims: claimsFor("99", "", nil),
			want:   UnaffiliatedPatient{PatientID: 99},
		},
		{
			name:   "patient with stray facility claim",
			claims: claimsFor("99", "", int64p(2)),
			want:   UnaffiliatedPatient{PatientID: 99},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveIdentity(tc.claims)
			if err != nil {
				t.Fatalf("ResolveIdentity: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestResolveIdentityMalformed(t *testing.T) {
	cases := []struct {
		name   string
		claims *Claims
	}{
		{"physician without facility", claimsFor("42", RolePhysician, nil)},
		{"unknown role", claimsFor("42", "NURSE", int64p(2))},
		{"unknown role without facility", claimsFor("42", "NURSE", nil)},
		{"non-numeric subject", claimsFor("doctor-bob", RolePhysician, int64p(2))},
		{"empty subject", claimsFor("", "", nil)},
		{"zero subject", claimsFor("0", RoleAdmin, nil)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveIdentity(tc.claims)
			if !errors.Is(err, ErrMalformedIdentity) {
				t.Fatalf("expected ErrMalformedIdentity, got %v", err)
			}
		})
	}
}

func TestHasRole(t *testing.T) {
	physician := FacilityBoundStaff{StaffID: 1, Role: RolePhysician, FacilityID: 2}
	facilityAdmin := FacilityBoundStaff{StaffID: 2, Role: RoleAdmin, FacilityID: 2}
	admin := FacilitylessAdmin{StaffID: 3}
	patient := UnaffiliatedPatient{PatientID: 4}

	if !HasRole(physician, RolePhysician) {
		t.Error("physician should hold PHYSICIAN")
	}
	if HasRole(physician, RoleAdmin) {
		t.Error("physician should not hold ADMIN")
	}
	if !HasRole(facilityAdmin, RolePhysician) {
		t.Error("facility admin passes every role check")
	}
	if !HasRole(admin, RolePhysician) {
		t.Error("facility-less admin passes every role check")
	}
	if HasRole(patient, RolePhysician) {
		t.Error("patients hold no staff roles")
	}
	if IsStaff(patient) {
		t.Error("patient is not staff")
	}
	if !IsStaff(admin) || !IsStaff(physician) {
		t.Error("staff variants must report IsStaff")
	}
}
