package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	signed := signToken(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"oid":  "user-1",
		"name": "Alice",
		"role": "manager",
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret")(func(c echo.Context) error {
		called = true
		if c.Get(ContextUserID) != "user-1" {
			t.Fatalf("user id not set")
		}
		if c.Get(ContextName) != "Alice" {
			t.Fatalf("name not set")
		}
		if c.Get(ContextRole) != "manager" {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired := signToken(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"oid": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	noOID := signToken(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"name": "Alice"})
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"oid": "user-1"})
	hs512 := signToken(t, jwt.SigningMethodHS512, []byte("secret"), jwt.MapClaims{"oid": "user-1"})

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Token abc",
		"garbage token":  "Bearer not-a-token",
		"expired":        "Bearer " + expired,
		"missing oid":    "Bearer " + noOID,
		"wrong secret":   "Bearer " + wrongKey,
		"unexpected alg": "Bearer " + hs512,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, called := runAuth(t, header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_AppRolesClaim(t *testing.T) {
	e := echo.New()
	signed := signToken(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"oid":   "user-2",
		"roles": []string{"Timesheet.Reader", "Admin"},
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	c := e.NewContext(req, httptest.NewRecorder())

	var role any
	handler := Auth("secret")(func(c echo.Context) error {
		role = c.Get(ContextRole)
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if role != "admin" {
		t.Fatalf("expected admin from roles claim, got %v", role)
	}
}
