package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name     string
		minRole  string
		role     string
		wantCode int
	}{
		{"manager passes manager gate", domain.RoleManager, domain.RoleManager, http.StatusOK},
		{"admin outranks manager", domain.RoleManager, domain.RoleAdmin, http.StatusOK},
		{"member below manager", domain.RoleManager, domain.RoleMember, http.StatusForbidden},
		{"no role set", domain.RoleMember, "", http.StatusForbidden},
		{"unknown role", domain.RoleMember, "guest", http.StatusForbidden},
		{"manager below admin", domain.RoleAdmin, domain.RoleManager, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
			if tc.role != "" {
				c.Set(ContextRole, tc.role)
			}

			handler := RequireRole(tc.minRole)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
		})
	}
}

func TestRequireRole_PanicsOnUnknownRole(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	RequireRole("owner")
}

func TestHighestRole(t *testing.T) {
	cases := map[string]struct {
		claimed []string
		want    string
	}{
		"empty":            {nil, domain.RoleMember},
		"mixed case":       {[]string{"Manager"}, domain.RoleManager},
		"picks strongest":  {[]string{"admin", "manager", ""}, domain.RoleAdmin},
		"ignores unknown":  {[]string{"Timesheet.Read"}, domain.RoleMember},
		"padded role name": {[]string{" admin "}, domain.RoleAdmin},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := highestRole(tc.claimed); got != tc.want {
				t.Errorf("highestRole(%v): want %q, got %q", tc.claimed, tc.want, got)
			}
		})
	}
}
