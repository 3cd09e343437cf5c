package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestAuthenticateHeader(t *testing.T) {
	a := New("")

	r := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	if _, err := a.Authenticate(r); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}

	r.Header.Set(UserHeader, " u42 ")
	id, err := a.Authenticate(r)
	if err != nil || id != "u42" {
		t.Fatalf("Authenticate() = %q, %v", id, err)
	}
}

func TestAuthenticateToken(t *testing.T) {
	secret := []byte("s3cret")
	a := New(string(secret))
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name    string
		header  string
		wantID  string
		wantErr error
	}{
		{"valid", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "u1", ExpiresAt: future}), "u1", nil},
		{"padded subject", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: " u1 ", ExpiresAt: future}), "u1", nil},
		{"missing", "", "", ErrMissingCredentials},
		{"not bearer", "Basic abc", "", ErrMissingCredentials},
		{"wrong key", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: "u1"}), "", ErrInvalidToken},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "u1", ExpiresAt: past}), "", ErrInvalidToken},
		{"wrong method", "Bearer " + sign(t, jwt.SigningMethodHS384, secret, jwt.RegisteredClaims{Subject: "u1"}), "", ErrInvalidToken},
		{"no subject", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{ExpiresAt: future}), "", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			r.Header.Set(UserHeader, "spoofed")
			id, err := a.Authenticate(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if id != tt.wantID {
				t.Fatalf("id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	var seen string
	h := New("").Middleware(func(w http.ResponseWriter, _ *http.Request, _ error) {
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserHeader, "u7")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen != "u7" {
		t.Fatalf("status = %d, user = %q", rec.Code, seen)
	}
}
