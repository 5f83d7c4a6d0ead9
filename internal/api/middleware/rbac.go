package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

// member < manager < admin
var roleRank = map[string]int{
	domain.RoleMember:  1,
	domain.RoleManager: 2,
	domain.RoleAdmin:   3,
}

// RequireRole lets a request through when the caller's role ranks at least as
// high as minRole.
func RequireRole(minRole string) echo.MiddlewareFunc {
	need, ok := roleRank[minRole]
	if !ok {
		panic(fmt.Sprintf("middleware: unknown role %q", minRole))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if roleRank[role] < need {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

// highestRole picks the strongest known role, case-insensitively. Tokens
// without a known role act as members.
func highestRole(claimed []string) string {
	best := domain.RoleMember
	for _, r := range claimed {
		r = strings.ToLower(strings.TrimSpace(r))
		if roleRank[r] > roleRank[best] {
			best = r
		}
	}
	return best
}
