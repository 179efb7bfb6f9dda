package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Staff roles as they appear in the role claim. Patient tokens carry no role.
const (
	RoleAdmin     = "ADMIN"
	RolePhysician = "PHYSICIAN"
)

// ErrMalformedIdentity indicates a verified token whose claims do not form a
// valid caller: a non-numeric subject, a role outside the known set, or a
// staff role without a facility binding where one is required.
var ErrMalformedIdentity = errors.New("malformed identity")

// Claims is the JWT claim set issued by the authentication service.
type Claims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	FacilityID *int64 `json:"facility_id"`
}

// Caller is the resolved identity of a request. The set of variants is
// closed: FacilityBoundStaff, FacilitylessAdmin, UnaffiliatedPatient.
type Caller interface {
	caller()
}

// FacilityBoundStaff is a staff member assigned to one facility. All of their
// clinical reads and writes are routed to that facility's store.
type FacilityBoundStaff struct {
	StaffID    int64
	Role       string
	FacilityID int64
}

// FacilitylessAdmin is an administrator with no facility binding. They work
// against the shared directory and have no local clinical store.
type FacilitylessAdmin struct {
	StaffID int64
}

// UnaffiliatedPatient is a patient identity. Patients can only read their own
// records.
type UnaffiliatedPatient struct {
	PatientID int64
}

func (FacilityBoundStaff) caller()  {}
func (FacilitylessAdmin) caller()   {}
func (UnaffiliatedPatient) caller() {}

// ResolveIdentity maps verified claims onto exactly one caller variant.
// A role-less identity is a patient even if a facility claim is present; the
// claim is ignored because the token issuer never sets it for patients.
func ResolveIdentity(claims *Claims) (Caller, error) {
	sub, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || sub <= 0 {
		return nil, fmt.Errorf("%w: subject %q is not a positive id", ErrMalformedIdentity, claims.Subject)
	}

	switch {
	case claims.Role == "":
		return UnaffiliatedPatient{PatientID: sub}, nil
	case claims.Role != RoleAdmin && claims.Role != RolePhysician:
		return nil, fmt.Errorf("%w: unknown role %q", ErrMalformedIdentity, claims.Role)
	case claims.FacilityID != nil:
		return FacilityBoundStaff{StaffID: sub, Role: claims.Role, FacilityID: *claims.FacilityID}, nil
	case claims.Role == RoleAdmin:
		return FacilitylessAdmin{StaffID: sub}, nil
	default:
		return nil, fmt.Errorf("%w: role %s requires a facility claim", ErrMalformedIdentity, claims.Role)
	}
}

// IsStaff reports whether the caller is a staff identity of either kind.
func IsStaff(c Caller) bool {
	switch c.(type) {
	case FacilityBoundStaff, FacilitylessAdmin:
		return true
	}
	return false
}

// HasRole reports whether the caller is staff with the given role. A
// facility-less admin implicitly holds the ADMIN role, and ADMIN staff pass
// every role check.
func HasRole(c Caller, role string) bool {
	switch v := c.(type) {
	case FacilitylessAdmin:
		return true
	case FacilityBoundStaff:
		return v.Role == role || v.Role == RoleAdmin
	}
	return false
}
