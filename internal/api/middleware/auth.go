package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys populated by Auth.
const (
	ContextUserID = "user_id"
	ContextName   = "name"
	ContextRole   = "role"
)

// Claims mirrors the identity claims carried by an Entra ID access token.
// App roles arrive in roles; role is accepted for tokens minted by tooling.
type Claims struct {
	ObjectID string   `json:"oid"`
	Name     string   `json:"name"`
	Role     string   `json:"role,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Auth validates the HS256 bearer token and injects the caller's object id,
// display name and role into the echo context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := &Claims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.ObjectID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing oid claim")
			}

			c.Set(ContextUserID, claims.ObjectID)
			c.Set(ContextName, claims.Name)
			c.Set(ContextRole, highestRole(append(claims.Roles, claims.Role)))

			return next(c)
		}
	}
}
