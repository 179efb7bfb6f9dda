package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, Caller) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Caller
	handler := mw(func(c echo.Context) error {
		got, _ = CallerFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, got
}

func TestJWTMiddlewareResolvesCaller(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})
	token := signToken(t, claimsFor("42", RolePhysician, int64p(2)))

	rec, caller := doRequest(t, mw, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	want := FacilityBoundStaff{StaffID: 42, Role: RolePhysician, FacilityID: 2}
	if caller != want {
		t.Errorf("caller = %#v, want %#v", caller, want)
	}
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})
	rec, _ := doRequest(t, mw, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTMiddlewareRejectsBadSignature(t *testing.T) {
	other := JWTMiddleware(JWTConfig{SigningKey: []byte("other-secret")})
	token := signToken(t, claimsFor("42", RolePhysician, int64p(2)))
	rec, _ := doRequest(t, other, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTMiddlewareRejectsMalformedIdentity(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})
	// Valid signature, but a physician with no facility claim.
	token := signToken(t, claimsFor("42", RolePhysician, nil))
	rec, _ := doRequest(t, mw, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name   string
		caller Caller
		roles  []string
		want   int
	}{
		{"physician allowed", FacilityBoundStaff{StaffID: 1, Role: RolePhysician, FacilityID: 2}, []string{RolePhysician}, http.StatusOK},
		{"admin passes physician check", FacilitylessAdmin{StaffID: 1}, []string{RolePhysician}, http.StatusOK},
		{"patient rejected", UnaffiliatedPatient{PatientID: 1}, []string{RolePhysician}, http.StatusForbidden},
		{"physician rejected from admin route", FacilityBoundStaff{StaffID: 1, Role: RolePhysician, FacilityID: 2}, []string{RoleAdmin}, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithCaller(req.Context(), tc.caller))
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := RequireRole(tc.roles...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
